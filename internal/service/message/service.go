package message

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/policy"
	"github.com/ignite/mailing-admin/internal/validation"
)

// Service implements message business logic.
type Service struct {
	repo  Repository
	inv   Invalidator
	log   *zap.Logger
	clock func() time.Time
}

// NewService creates a message service. inv may be nil.
func NewService(repo Repository, inv Invalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, inv: inv, log: log.Named("message"), clock: time.Now}
}

// List returns the messages visible to id.
func (s *Service) List(ctx context.Context, id domain.Identity) ([]domain.Message, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, policy.OwnerScope(id))
}

// Get returns a message visible to id.
func (s *Service) Get(ctx context.Context, id domain.Identity, messageID uuid.UUID) (*domain.Message, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}
	m, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(id, m.OwnerID) {
		return nil, ErrNotFound
	}
	return m, nil
}

// Create validates and persists a message owned by id.
func (s *Service) Create(ctx context.Context, id domain.Identity, in Input) (*domain.Message, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	m := &domain.Message{
		ID:        uuid.New(),
		OwnerID:   id.UserID,
		Subject:   strings.TrimSpace(in.Subject),
		Body:      in.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validation.Message(m).Err(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.log.Info("message created", zap.String("message_id", m.ID.String()))
	return m, nil
}

// Update replaces subject and body of a message visible to id.
func (s *Service) Update(ctx context.Context, id domain.Identity, messageID uuid.UUID, in Input) (*domain.Message, error) {
	m, err := s.Get(ctx, id, messageID)
	if err != nil {
		return nil, err
	}

	m.Subject = strings.TrimSpace(in.Subject)
	m.Body = in.Body
	m.UpdatedAt = s.clock().UTC()

	if err := validation.Message(m).Err(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a message visible to id, along with its mailings.
func (s *Service) Delete(ctx context.Context, id domain.Identity, messageID uuid.UUID) error {
	if _, err := s.Get(ctx, id, messageID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, messageID); err != nil {
		return err
	}

	s.log.Info("message deleted", zap.String("message_id", messageID.String()))
	if s.inv != nil {
		if err := s.inv.Invalidate(ctx); err != nil {
			s.log.Warn("stats invalidation failed", zap.Error(err))
		}
	}
	return nil
}
