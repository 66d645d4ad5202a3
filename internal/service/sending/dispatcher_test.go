package sending_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/pkg/distlock"
	"github.com/ignite/mailing-admin/internal/service/sending"
)

type memStore struct {
	mu         sync.Mutex
	mailings   map[uuid.UUID]*domain.Mailing
	messages   map[uuid.UUID]*domain.Message
	recipients map[uuid.UUID][]domain.Client
	attempts   []domain.MailingAttempt
	failRecord bool
}

func newMemStore() *memStore {
	return &memStore{
		mailings:   make(map[uuid.UUID]*domain.Mailing),
		messages:   make(map[uuid.UUID]*domain.Message),
		recipients: make(map[uuid.UUID][]domain.Client),
	}
}

func (s *memStore) Recipients(_ context.Context, mailingID uuid.UUID) ([]domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Client(nil), s.recipients[mailingID]...), nil
}

func (s *memStore) RecordAttempt(ctx context.Context, a *domain.MailingAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failRecord {
		return errors.New("disk full")
	}
	s.attempts = append(s.attempts, *a)
	return nil
}

type mailingSource struct{ *memStore }

func (s mailingSource) Get(_ context.Context, id uuid.UUID) (*domain.Mailing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mailings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

type messageSource struct{ *memStore }

func (s messageSource) Get(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

// fakeTransport fails for addresses listed in failFor and records every call.
type fakeTransport struct {
	mu      sync.Mutex
	failFor map[string]bool
	sent    []*domain.OutgoingEmail
}

func (f *fakeTransport) Send(_ context.Context, msg *domain.OutgoingEmail) (*domain.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.failFor[msg.To[0]] {
		return nil, fmt.Errorf("550 mailbox unavailable")
	}
	return &domain.SendResult{MessageID: uuid.NewString(), Provider: "fake", SentAt: time.Now()}, nil
}

type recordingMetrics struct {
	attempts map[string]int
	outcomes []string
}

func (r *recordingMetrics) ObserveAttempt(status string) {
	if r.attempts == nil {
		r.attempts = map[string]int{}
	}
	r.attempts[status]++
}

func (r *recordingMetrics) ObserveDispatch(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

var (
	now   = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	owner = domain.Identity{UserID: uuid.New()}
	other = domain.Identity{UserID: uuid.New()}
)

// seed creates a mailing with the given recipient addresses.
func seed(s *memStore, start, end time.Time, emails ...string) uuid.UUID {
	msgID := uuid.New()
	s.messages[msgID] = &domain.Message{ID: msgID, OwnerID: owner.UserID, Subject: "Hello there", Body: "Body text"}

	id := uuid.New()
	s.mailings[id] = &domain.Mailing{
		ID: id, OwnerID: owner.UserID, MessageID: msgID,
		StartTime: start, EndTime: end, Status: domain.MailingCreated,
	}
	for _, e := range emails {
		s.recipients[id] = append(s.recipients[id], domain.Client{ID: uuid.New(), OwnerID: owner.UserID, Email: e, FullName: strings.ToUpper(e[:1])})
	}
	return id
}

func newDispatcher(s *memStore, tr sending.Transport, opts ...sending.Option) *sending.Dispatcher {
	opts = append([]sending.Option{sending.WithClock(func() time.Time { return now })}, opts...)
	return sending.NewDispatcher(mailingSource{s}, messageSource{s}, s, tr, "noreply@example.com", opts...)
}

func TestDispatchPartialFailure(t *testing.T) {
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com", "b@x.com")
	tr := &fakeTransport{failFor: map[string]bool{"b@x.com": true}}
	m := &recordingMetrics{}

	sum, err := newDispatcher(s, tr, sending.WithMetrics(m)).Dispatch(context.Background(), owner, id)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, sending.OutcomePartialSuccess, sum.Outcome)
	assert.Equal(t, "Mailing sent! Succeeded: 1, Failed: 1", sum.Message)

	require.Len(t, s.attempts, 2)
	assert.Equal(t, domain.AttemptSuccess, s.attempts[0].Status)
	assert.Contains(t, s.attempts[0].ServerResponse, "a@x.com")
	assert.Equal(t, domain.AttemptFailed, s.attempts[1].Status)
	assert.Equal(t, "Error: 550 mailbox unavailable", s.attempts[1].ServerResponse)
	for _, a := range s.attempts {
		assert.Equal(t, id, a.MailingID)
	}

	require.Len(t, tr.sent, 2)
	assert.Equal(t, "noreply@example.com", tr.sent[0].From)
	assert.Equal(t, "Hello there", tr.sent[0].Subject)
	assert.Equal(t, "Body text", tr.sent[0].Body)

	assert.Equal(t, map[string]int{"success": 1, "failed": 1}, m.attempts)
	assert.Equal(t, []string{"partial_success"}, m.outcomes)
}

func TestDispatchFailureDoesNotAbortLoop(t *testing.T) {
	s := newMemStore()
	emails := []string{"r1@x.com", "r2@x.com", "r3@x.com", "r4@x.com", "r5@x.com"}
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), emails...)
	tr := &fakeTransport{failFor: map[string]bool{"r1@x.com": true, "r3@x.com": true}}

	sum, err := newDispatcher(s, tr).Dispatch(context.Background(), owner, id)
	require.NoError(t, err)

	assert.Equal(t, len(emails), sum.Sent+sum.Failed)
	assert.Len(t, s.attempts, len(emails))
	require.Len(t, tr.sent, len(emails))
	for i, e := range emails {
		assert.Equal(t, e, tr.sent[i].To[0], "recipients are delivered in store order")
	}
}

func TestDispatchAllFailed(t *testing.T) {
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com")
	tr := &fakeTransport{failFor: map[string]bool{"a@x.com": true}}

	sum, err := newDispatcher(s, tr).Dispatch(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, sending.OutcomeAllFailed, sum.Outcome)
	assert.Equal(t, 0, sum.Sent)
	assert.Equal(t, 1, sum.Failed)
}

func TestDispatchNoRecipients(t *testing.T) {
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour))

	sum, err := newDispatcher(s, &fakeTransport{}).Dispatch(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, sending.OutcomeNoRecipients, sum.Outcome)
	assert.Empty(t, s.attempts)
}

func TestDispatchWindowGuard(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"before window", now.Add(time.Minute), now.Add(time.Hour), true},
		{"after window", now.Add(-time.Hour), now.Add(-time.Minute), true},
		{"at start", now, now.Add(time.Hour), false},
		{"at end", now.Add(-time.Hour), now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()
			id := seed(s, tt.start, tt.end, "a@x.com")
			tr := &fakeTransport{}

			_, err := newDispatcher(s, tr).Dispatch(context.Background(), owner, id)
			if tt.wantErr {
				assert.ErrorIs(t, err, sending.ErrWindowInactive)
				assert.Empty(t, s.attempts, "no attempts outside the window")
				assert.Empty(t, tr.sent, "no mail outside the window")
				return
			}
			require.NoError(t, err)
			assert.Len(t, s.attempts, 1)
		})
	}
}

func TestDispatchVisibility(t *testing.T) {
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com")
	d := newDispatcher(s, &fakeTransport{})

	_, err := d.Dispatch(context.Background(), other, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = d.Dispatch(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	manager := domain.Identity{UserID: uuid.New(), Roles: []string{domain.RoleManager}}
	_, err = d.Dispatch(context.Background(), manager, id)
	assert.NoError(t, err)
	assert.Len(t, s.attempts, 1)
}

func TestDispatchRecordFailureIsFatal(t *testing.T) {
	s := newMemStore()
	s.failRecord = true
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com", "b@x.com")
	tr := &fakeTransport{}

	_, err := newDispatcher(s, tr).Dispatch(context.Background(), owner, id)
	require.Error(t, err)
	assert.Len(t, tr.sent, 1, "loop stops when the attempt log cannot be written")
}

type upperRenderer struct{}

func (upperRenderer) Render(tmpl string, vars map[string]any) (string, error) {
	if strings.Contains(tmpl, "{{ broken") {
		return "", errors.New("unterminated tag")
	}
	return strings.ReplaceAll(tmpl, "{{ full_name }}", vars["full_name"].(string)), nil
}

func TestDispatchRendersPerRecipient(t *testing.T) {
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "ann@x.com", "bob@x.com")
	for _, m := range s.messages {
		m.Subject = "Hi {{ full_name }}"
	}
	tr := &fakeTransport{}

	_, err := newDispatcher(s, tr, sending.WithRenderer(upperRenderer{})).Dispatch(context.Background(), owner, id)
	require.NoError(t, err)
	require.Len(t, tr.sent, 2)
	assert.Equal(t, "Hi A", tr.sent[0].Subject)
	assert.Equal(t, "Hi B", tr.sent[1].Subject)
}

func TestDispatchRenderFailureIsRecorded(t *testing.T) {
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "ann@x.com")
	for _, m := range s.messages {
		m.Body = "{{ broken"
	}
	tr := &fakeTransport{}

	sum, err := newDispatcher(s, tr, sending.WithRenderer(upperRenderer{})).Dispatch(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Empty(t, tr.sent)
	assert.Contains(t, s.attempts[0].ServerResponse, "render body")
}

func TestDispatchLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	locks := distlock.NewFactory(client, nil, time.Minute)
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com")
	d := newDispatcher(s, &fakeTransport{}, sending.WithLocks(locks))

	held := locks.Lock(sending.LockKey(id))
	ok, err := held.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = d.Dispatch(context.Background(), owner, id)
	assert.ErrorIs(t, err, sending.ErrDispatchInProgress)
	assert.Empty(t, s.attempts)

	require.NoError(t, held.Release(context.Background()))
	_, err = d.Dispatch(context.Background(), owner, id)
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:"+sending.LockKey(id)), "lock is released after dispatch")
}

type slowTransport struct{}

func (slowTransport) Send(ctx context.Context, _ *domain.OutgoingEmail) (*domain.SendResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDispatchSendTimeout(t *testing.T) {
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com", "b@x.com")

	sum, err := newDispatcher(s, slowTransport{}, sending.WithSendTimeout(10*time.Millisecond)).
		Dispatch(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Failed)
	assert.Contains(t, s.attempts[0].ServerResponse, "deadline exceeded")
}

// cancellingTransport delivers successfully and then cancels the caller's
// context, as a client disconnecting mid-dispatch would.
type cancellingTransport struct {
	inner  *fakeTransport
	cancel context.CancelFunc
}

func (c *cancellingTransport) Send(ctx context.Context, msg *domain.OutgoingEmail) (*domain.SendResult, error) {
	res, err := c.inner.Send(ctx, msg)
	c.cancel()
	return res, err
}

func TestDispatchCancelledAfterDelivery(t *testing.T) {
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com", "b@x.com", "c@x.com")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := &cancellingTransport{inner: &fakeTransport{}, cancel: cancel}

	sum, err := newDispatcher(s, tr).Dispatch(ctx, owner, id)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, sum)

	require.Len(t, tr.inner.sent, 1, "no recipient is contacted after cancellation")
	require.Len(t, s.attempts, 1, "the delivered send is still logged")
	assert.Equal(t, domain.AttemptSuccess, s.attempts[0].Status)
	assert.Contains(t, s.attempts[0].ServerResponse, "a@x.com")
}

// racingTransport advances the Redis clock on every send and tries to take
// the dispatch lock the way a second dispatch would.
type racingTransport struct {
	inner  *fakeTransport
	mr     *miniredis.Miniredis
	locks  *distlock.Factory
	key    string
	step   time.Duration
	stolen int
}

func (r *racingTransport) Send(ctx context.Context, msg *domain.OutgoingEmail) (*domain.SendResult, error) {
	r.mr.FastForward(r.step)
	if ok, err := r.locks.Lock(r.key).Acquire(ctx); err == nil && ok {
		r.stolen++
	}
	return r.inner.Send(ctx, msg)
}

func setupLocks(t *testing.T) (*miniredis.Miniredis, *distlock.Factory) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, distlock.NewFactory(client, nil, time.Minute)
}

func TestDispatchExtendsLockBetweenRecipients(t *testing.T) {
	mr, locks := setupLocks(t)
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com", "b@x.com", "c@x.com")
	tr := &racingTransport{inner: &fakeTransport{}, mr: mr, locks: locks, key: sending.LockKey(id), step: 40 * time.Second}

	sum, err := newDispatcher(s, tr, sending.WithLocks(locks)).Dispatch(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Sent)
	assert.Zero(t, tr.stolen, "the lock outlives a dispatch longer than its ttl")
	assert.False(t, mr.Exists("lock:"+sending.LockKey(id)))
}

func TestDispatchStopsWhenLockLost(t *testing.T) {
	mr, locks := setupLocks(t)
	s := newMemStore()
	id := seed(s, now.Add(-time.Hour), now.Add(time.Hour), "a@x.com", "b@x.com", "c@x.com")
	tr := &racingTransport{inner: &fakeTransport{}, mr: mr, locks: locks, key: sending.LockKey(id), step: 2 * time.Minute}

	_, err := newDispatcher(s, tr, sending.WithLocks(locks)).Dispatch(context.Background(), owner, id)
	assert.ErrorIs(t, err, sending.ErrLockLost)
	assert.ErrorIs(t, err, sending.ErrDispatchInProgress)

	assert.Equal(t, 1, tr.stolen)
	assert.Len(t, tr.inner.sent, 1, "no further recipients once another dispatch holds the lock")
	assert.Len(t, s.attempts, 1)
	assert.True(t, mr.Exists("lock:"+sending.LockKey(id)), "the new holder keeps its lock")
}
