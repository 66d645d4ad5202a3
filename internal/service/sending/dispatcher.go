package sending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/pkg/distlock"
	"github.com/ignite/mailing-admin/internal/pkg/logger"
	"github.com/ignite/mailing-admin/internal/policy"
)

// Outcome classifies a finished dispatch.
type Outcome string

const (
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeAllFailed      Outcome = "all_failed"
	OutcomeNoRecipients   Outcome = "no_recipients"
)

// Summary reports the result of one dispatch. Sent+Failed always equals Total.
type Summary struct {
	MailingID uuid.UUID `json:"mailing_id"`
	Sent      int       `json:"sent_count"`
	Failed    int       `json:"failed_count"`
	Total     int       `json:"total"`
	Outcome   Outcome   `json:"outcome"`
	Message   string    `json:"message"`
}

// Dispatcher runs the send loop for one mailing at a time per call.
type Dispatcher struct {
	mailings  MailingSource
	messages  MessageSource
	store     Store
	transport Transport
	from      string

	renderer Renderer
	locks    LockFactory
	metrics  Metrics
	timeout  time.Duration
	clock    func() time.Time
	log      *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRenderer enables per-recipient personalization of subject and body.
func WithRenderer(r Renderer) Option { return func(d *Dispatcher) { d.renderer = r } }

// WithLocks guards each dispatch with a per-mailing lock.
func WithLocks(f LockFactory) Option { return func(d *Dispatcher) { d.locks = f } }

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option { return func(d *Dispatcher) { d.metrics = m } }

// WithSendTimeout bounds each transport call.
func WithSendTimeout(t time.Duration) Option { return func(d *Dispatcher) { d.timeout = t } }

// WithClock overrides the time source used by the window guard.
func WithClock(now func() time.Time) Option { return func(d *Dispatcher) { d.clock = now } }

// WithLogger sets the dispatcher logger.
func WithLogger(l *zap.Logger) Option { return func(d *Dispatcher) { d.log = l.Named("dispatcher") } }

// NewDispatcher creates a dispatcher sending from the given address.
func NewDispatcher(mailings MailingSource, messages MessageSource, store Store, transport Transport, from string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		mailings:  mailings,
		messages:  messages,
		store:     store,
		transport: transport,
		from:      from,
		clock:     time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LockKey names the dispatch lock of a mailing.
func LockKey(mailingID uuid.UUID) string {
	return "mailing-dispatch:" + mailingID.String()
}

// Dispatch sends the mailing's message to every recipient, in order, if now
// falls inside the mailing window. Transport failures are recorded as failed
// attempts and never returned. Errors are returned only for an unknown or
// invisible mailing, an inactive window, a held or lost lock, a store
// failure, or a cancelled ctx; a cancelled dispatch stops before the next
// recipient and keeps the attempts already written.
func (d *Dispatcher) Dispatch(ctx context.Context, id domain.Identity, mailingID uuid.UUID) (*Summary, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}

	m, err := d.mailings.Get(ctx, mailingID)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(id, m.OwnerID) {
		return nil, domain.ErrNotFound
	}

	var lock distlock.DistLock
	if d.locks != nil {
		lock = d.locks.Lock(LockKey(m.ID))
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire dispatch lock: %w", err)
		}
		if !ok {
			return nil, ErrDispatchInProgress
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, distlock.ErrNotHeld) {
				d.log.Warn("dispatch lock release failed", zap.String("mailing_id", m.ID.String()), zap.Error(err))
			}
		}()
	}

	if now := d.clock(); !m.IsActiveAt(now) {
		d.log.Info("dispatch refused, window inactive",
			zap.String("mailing_id", m.ID.String()),
			zap.Time("now", now),
			zap.Time("start_time", m.StartTime),
			zap.Time("end_time", m.EndTime),
		)
		return nil, ErrWindowInactive
	}

	msg, err := d.messages.Get(ctx, m.MessageID)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	recipients, err := d.store.Recipients(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}

	start := time.Now()
	sum := &Summary{MailingID: m.ID, Total: len(recipients)}

	for i := range recipients {
		// Stop between recipients, never after a delivered send.
		if err := ctx.Err(); err != nil {
			d.log.Warn("dispatch interrupted",
				zap.String("mailing_id", m.ID.String()),
				zap.Int("delivered", i),
				zap.Int("total", len(recipients)),
			)
			return nil, fmt.Errorf("dispatch interrupted after %d of %d recipients: %w", i, len(recipients), err)
		}
		if lock != nil && i > 0 {
			if err := lock.Extend(ctx, d.locks.TTL()); err != nil {
				if errors.Is(err, distlock.ErrNotHeld) {
					d.log.Error("dispatch lock lost",
						zap.String("mailing_id", m.ID.String()),
						zap.Int("delivered", i),
					)
					return nil, ErrLockLost
				}
				d.log.Warn("dispatch lock extend failed", zap.String("mailing_id", m.ID.String()), zap.Error(err))
			}
		}

		c := &recipients[i]
		attempt := &domain.MailingAttempt{ID: uuid.New(), MailingID: m.ID}

		if sendErr := d.deliver(ctx, m, msg, c); sendErr != nil {
			attempt.Status = domain.AttemptFailed
			attempt.ServerResponse = "Error: " + sendErr.Error()
			sum.Failed++
			d.log.Warn("delivery failed",
				zap.String("mailing_id", m.ID.String()),
				logger.Email("recipient", c.Email),
				logger.Text("error", sendErr.Error()),
			)
		} else {
			attempt.Status = domain.AttemptSuccess
			attempt.ServerResponse = "Sent successfully to " + c.Email
			sum.Sent++
		}

		// The send already happened; its attempt row is written even if the
		// caller has gone away.
		if err := d.store.RecordAttempt(context.WithoutCancel(ctx), attempt); err != nil {
			return nil, fmt.Errorf("record attempt: %w", err)
		}
		if d.metrics != nil {
			d.metrics.ObserveAttempt(string(attempt.Status))
		}
	}

	sum.Outcome, sum.Message = summarize(sum.Sent, sum.Failed)
	if d.metrics != nil {
		d.metrics.ObserveDispatch(string(sum.Outcome), time.Since(start))
	}

	d.log.Info("mailing dispatched",
		zap.String("mailing_id", m.ID.String()),
		zap.String("actor", id.UserID.String()),
		zap.Int("sent", sum.Sent),
		zap.Int("failed", sum.Failed),
		zap.String("outcome", string(sum.Outcome)),
		zap.Duration("took", time.Since(start)),
	)
	return sum, nil
}

func (d *Dispatcher) deliver(ctx context.Context, m *domain.Mailing, msg *domain.Message, c *domain.Client) error {
	subject, body := msg.Subject, msg.Body
	if d.renderer != nil {
		vars := map[string]any{
			"full_name":  c.FullName,
			"email":      c.Email,
			"mailing_id": m.ID.String(),
		}
		var err error
		if subject, err = d.renderer.Render(subject, vars); err != nil {
			return fmt.Errorf("render subject: %w", err)
		}
		if body, err = d.renderer.Render(body, vars); err != nil {
			return fmt.Errorf("render body: %w", err)
		}
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	_, err := d.transport.Send(sendCtx, &domain.OutgoingEmail{
		MailingID: m.ID.String(),
		ClientID:  c.ID.String(),
		From:      d.from,
		To:        []string{c.Email},
		Subject:   subject,
		Body:      body,
	})
	return err
}

func summarize(sent, failed int) (Outcome, string) {
	switch {
	case sent > 0:
		return OutcomePartialSuccess, fmt.Sprintf("Mailing sent! Succeeded: %d, Failed: %d", sent, failed)
	case failed > 0:
		return OutcomeAllFailed, fmt.Sprintf("All deliveries failed. Failed: %d", failed)
	default:
		return OutcomeNoRecipients, "Mailing has no recipients."
	}
}
