package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailing-admin/internal/domain"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func testEmail() *domain.OutgoingEmail {
	return &domain.OutgoingEmail{
		MailingID: "m-1",
		ClientID:  "c-1",
		From:      "noreply@example.com",
		To:        []string{"a@x.com"},
		Subject:   "Spring sale",
		Body:      "Twenty percent off",
	}
}

func TestSESSend(t *testing.T) {
	api := &fakeSES{}
	res, err := NewSESWithClient(api, nil).Send(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, "ses-123", res.MessageID)
	assert.Equal(t, "ses", res.Provider)

	in := api.in
	require.NotNil(t, in)
	assert.Equal(t, "noreply@example.com", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"a@x.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Spring sale", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Equal(t, "Twenty percent off", aws.ToString(in.Content.Simple.Body.Text.Data))
	assert.Nil(t, in.Content.Simple.Body.Html)
	assert.Len(t, in.EmailTags, 2)
}

func TestSESSendError(t *testing.T) {
	api := &fakeSES{err: errors.New("MessageRejected: Email address is not verified")}
	_, err := NewSESWithClient(api, nil).Send(context.Background(), testEmail())
	assert.EqualError(t, err, "MessageRejected: Email address is not verified")

	msg := testEmail()
	msg.To = nil
	_, err = NewSESWithClient(&fakeSES{}, nil).Send(context.Background(), msg)
	assert.Error(t, err)
}

func TestLogTransport(t *testing.T) {
	res, err := NewLog(nil).Send(context.Background(), testEmail())
	require.NoError(t, err)
	assert.Equal(t, "log", res.Provider)
	assert.NotEmpty(t, res.MessageID)
}

func TestLiquidRender(t *testing.T) {
	r := NewLiquid()
	vars := map[string]any{"full_name": "Ann Lee", "email": "ann@x.com", "mailing_id": "m-1"}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"plain text untouched", "Hello there", "Hello there"},
		{"variable", "Hi {{ full_name }}", "Hi Ann Lee"},
		{"first_word filter", "Hi {{ full_name | first_word }}!", "Hi Ann!"},
		{"missing variable renders empty", "Hi {{ nickname }}.", "Hi ."},
		{"conditional", "{% if email %}to {{ email }}{% endif %}", "to ann@x.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.tmpl, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// second render hits the cache
	got, err := r.Render("Hi {{ full_name }}", map[string]any{"full_name": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Bob", got)
}

func TestLiquidParseError(t *testing.T) {
	_, err := NewLiquid().Render("{% if email %}unterminated", nil)
	assert.Error(t, err)
}
