package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/policy"
	"github.com/ignite/mailing-admin/internal/validation"
)

// Service implements client business logic. All public methods are safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo  Repository
	inv   Invalidator
	log   *zap.Logger
	clock func() time.Time
}

// NewService creates a client service. inv may be nil.
func NewService(repo Repository, inv Invalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, inv: inv, log: log.Named("client"), clock: time.Now}
}

// List returns the clients visible to id.
func (s *Service) List(ctx context.Context, id domain.Identity) ([]domain.Client, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, policy.OwnerScope(id))
}

// Get returns a client visible to id.
func (s *Service) Get(ctx context.Context, id domain.Identity, clientID uuid.UUID) (*domain.Client, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(id, c.OwnerID) {
		return nil, ErrNotFound
	}
	return c, nil
}

// Create validates and persists a client owned by id.
func (s *Service) Create(ctx context.Context, id domain.Identity, in Input) (*domain.Client, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	c := &domain.Client{
		ID:        uuid.New(),
		OwnerID:   id.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(c, in)

	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.log.Info("client created", zap.String("client_id", c.ID.String()), zap.String("owner_id", c.OwnerID.String()))
	s.invalidate(ctx)
	return c, nil
}

// Update replaces the editable fields of a client visible to id.
func (s *Service) Update(ctx context.Context, id domain.Identity, clientID uuid.UUID, in Input) (*domain.Client, error) {
	c, err := s.Get(ctx, id, clientID)
	if err != nil {
		return nil, err
	}

	apply(c, in)
	c.UpdatedAt = s.clock().UTC()

	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return c, nil
}

// Delete removes a client visible to id.
func (s *Service) Delete(ctx context.Context, id domain.Identity, clientID uuid.UUID) error {
	if _, err := s.Get(ctx, id, clientID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, clientID); err != nil {
		return err
	}

	s.log.Info("client deleted", zap.String("client_id", clientID.String()))
	s.invalidate(ctx)
	return nil
}

func apply(c *domain.Client, in Input) {
	c.Email = validation.NormalizeEmail(in.Email)
	c.FullName = strings.TrimSpace(in.FullName)
	c.Comment = in.Comment
}

func (s *Service) validate(ctx context.Context, c *domain.Client) error {
	v := validation.Client(c)
	if !v.Has("email") {
		taken, err := s.repo.EmailTaken(ctx, c.Email, c.ID)
		if err != nil {
			return fmt.Errorf("check client email: %w", err)
		}
		if taken {
			v.Add("email", validation.MsgClientEmailUsed)
		}
	}
	return v.Err()
}

// invalidate drops the statistics cache. Errors are logged; the write stands.
func (s *Service) invalidate(ctx context.Context) {
	if s.inv == nil {
		return
	}
	if err := s.inv.Invalidate(ctx); err != nil {
		s.log.Warn("stats invalidation failed", zap.Error(err))
	}
}
