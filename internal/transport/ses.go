// Package transport holds the mail providers the dispatcher sends through
// and the template renderer used to personalize messages.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/pkg/logger"
)

// SESAPI is the subset of the SES v2 client used by SES.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends plain-text email through AWS SES v2.
type SES struct {
	client SESAPI
	log    *zap.Logger
}

// SESOptions configures the SES client. Empty keys use the default AWS
// credential chain.
type SESOptions struct {
	Region    string
	AccessKey string
	SecretKey string
}

// NewSES loads AWS configuration and creates an SES transport.
func NewSES(ctx context.Context, opts SESOptions, log *zap.Logger) (*SES, error) {
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESWithClient(sesv2.NewFromConfig(cfg), log), nil
}

// NewSESWithClient wraps an existing SES client.
func NewSESWithClient(client SESAPI, log *zap.Logger) *SES {
	if log == nil {
		log = zap.NewNop()
	}
	return &SES{client: client, log: log.Named("ses")}
}

// Send delivers msg. Any SES error is returned to the caller as is.
func (s *SES) Send(ctx context.Context, msg *domain.OutgoingEmail) (*domain.SendResult, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("no recipient")
	}

	out, err := s.client.SendEmail(ctx, buildSendEmailInput(msg))
	if err != nil {
		return nil, err
	}

	res := &domain.SendResult{Provider: "ses", SentAt: time.Now().UTC()}
	if out.MessageId != nil {
		res.MessageID = *out.MessageId
	}
	s.log.Debug("sent", logger.Email("to", msg.To[0]), zap.String("message_id", res.MessageID))
	return res, nil
}

func buildSendEmailInput(msg *domain.OutgoingEmail) *sesv2.SendEmailInput {
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.MailingID != "" {
		in.EmailTags = append(in.EmailTags, types.MessageTag{Name: aws.String("mailing_id"), Value: aws.String(msg.MailingID)})
	}
	if msg.ClientID != "" {
		in.EmailTags = append(in.EmailTags, types.MessageTag{Name: aws.String("client_id"), Value: aws.String(msg.ClientID)})
	}
	return in
}
