package mailing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/policy"
	"github.com/ignite/mailing-admin/internal/validation"
)

// Service implements mailing business logic.
type Service struct {
	repo     Repository
	attempts AttemptReader
	messages MessageSource
	clients  ClientSource
	inv      Invalidator
	log      *zap.Logger
	clock    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for window validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = now }
}

// WithInvalidator sets the statistics invalidator called after every write.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.inv = inv }
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log.Named("mailing") }
}

// NewService creates a mailing service.
func NewService(repo Repository, attempts AttemptReader, messages MessageSource, clients ClientSource, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		attempts: attempts,
		messages: messages,
		clients:  clients,
		log:      zap.NewNop(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the mailings visible to id.
func (s *Service) List(ctx context.Context, id domain.Identity) ([]domain.Mailing, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, policy.OwnerScope(id))
}

// Get returns a mailing visible to id.
func (s *Service) Get(ctx context.Context, id domain.Identity, mailingID uuid.UUID) (*domain.Mailing, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}
	m, err := s.repo.Get(ctx, mailingID)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(id, m.OwnerID) {
		return nil, ErrNotFound
	}
	return m, nil
}

// Create validates and persists a mailing owned by id.
func (s *Service) Create(ctx context.Context, id domain.Identity, in Input) (*domain.Mailing, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	m := &domain.Mailing{
		ID:        uuid.New(),
		OwnerID:   id.UserID,
		Status:    domain.MailingCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(ctx, id, m, in, now); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.log.Info("mailing created",
		zap.String("mailing_id", m.ID.String()),
		zap.Int("recipients", len(m.ClientIDs)),
		zap.Time("start_time", m.StartTime),
		zap.Time("end_time", m.EndTime),
	)
	s.invalidate(ctx)
	return m, nil
}

// Update replaces the editable fields of a mailing visible to id.
func (s *Service) Update(ctx context.Context, id domain.Identity, mailingID uuid.UUID, in Input) (*domain.Mailing, error) {
	m, err := s.Get(ctx, id, mailingID)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	if err := s.apply(ctx, id, m, in, now); err != nil {
		return nil, err
	}
	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return m, nil
}

// Delete removes a mailing visible to id.
func (s *Service) Delete(ctx context.Context, id domain.Identity, mailingID uuid.UUID) error {
	if _, err := s.Get(ctx, id, mailingID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, mailingID); err != nil {
		return err
	}

	s.log.Info("mailing deleted", zap.String("mailing_id", mailingID.String()))
	s.invalidate(ctx)
	return nil
}

// Choices returns the messages and clients id may attach to a mailing.
func (s *Service) Choices(ctx context.Context, id domain.Identity) (*Choices, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}
	scope := policy.OwnerScope(id)

	msgs, err := s.messages.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list message choices: %w", err)
	}
	clients, err := s.clients.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list client choices: %w", err)
	}
	return &Choices{Messages: msgs, Clients: clients}, nil
}

// Attempts returns the delivery log of a mailing visible to id, optionally
// filtered by status.
func (s *Service) Attempts(ctx context.Context, id domain.Identity, mailingID uuid.UUID, status string) ([]domain.MailingAttempt, error) {
	if _, err := s.Get(ctx, id, mailingID); err != nil {
		return nil, err
	}

	var filter *domain.AttemptStatus
	if status != "" {
		st := domain.AttemptStatus(status)
		if st != domain.AttemptSuccess && st != domain.AttemptFailed {
			v := &validation.Error{}
			v.Add("status", validation.MsgInvalidStatus)
			return nil, v
		}
		filter = &st
	}
	return s.attempts.ListAttempts(ctx, mailingID, filter)
}

// apply copies in onto m after running every rule. Nothing is copied when a
// rule fails.
func (s *Service) apply(ctx context.Context, id domain.Identity, m *domain.Mailing, in Input, now time.Time) error {
	v := validation.Window(in.StartTime, in.EndTime, now)

	// An omitted status keeps the current one.
	status := domain.MailingStatus(in.Status)
	if status == "" {
		status = m.Status
	}
	if !status.Valid() {
		v.Add("status", validation.MsgInvalidStatus)
	}

	if in.MessageID == uuid.Nil {
		v.Add("message_id", validation.MsgRequired)
	} else {
		msg, err := s.messages.Get(ctx, in.MessageID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			v.Add("message_id", validation.MsgInvalidChoice)
		case err != nil:
			return fmt.Errorf("resolve message: %w", err)
		case !policy.CanMutate(id, msg.OwnerID):
			v.Add("message_id", validation.MsgInvalidChoice)
		}
	}

	clientIDs := dedupe(in.ClientIDs)
	for _, cid := range clientIDs {
		c, err := s.clients.Get(ctx, cid)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !policy.CanMutate(id, c.OwnerID)) {
			v.Add("client_ids", validation.MsgInvalidChoice)
			break
		}
		if err != nil {
			return fmt.Errorf("resolve client: %w", err)
		}
	}

	if err := v.Err(); err != nil {
		return err
	}

	m.StartTime = in.StartTime.UTC()
	m.EndTime = in.EndTime.UTC()
	m.Status = status
	m.MessageID = in.MessageID
	m.ClientIDs = clientIDs
	m.ClientsCount = len(clientIDs)
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) invalidate(ctx context.Context) {
	if s.inv == nil {
		return
	}
	if err := s.inv.Invalidate(ctx); err != nil {
		s.log.Warn("stats invalidation failed", zap.Error(err))
	}
}
