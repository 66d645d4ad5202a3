package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/pkg/logger"
	"github.com/ignite/mailing-admin/internal/policy"
	"github.com/ignite/mailing-admin/internal/validation"
)

const minPasswordLength = 8

// Service implements account business logic.
type Service struct {
	repo    Repository
	avatars AvatarStore
	log     *zap.Logger
	clock   func() time.Time
}

// NewService creates a user service. avatars may be nil, in which case
// avatar uploads are rejected.
func NewService(repo Repository, avatars AvatarStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, avatars: avatars, log: log.Named("user"), clock: time.Now}
}

// Profile returns the acting user's account.
func (s *Service) Profile(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if err := policy.Require(id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id.UserID)
}

// UpdateProfile edits the acting user's own profile.
func (s *Service) UpdateProfile(ctx context.Context, id domain.Identity, in ProfileInput) (*domain.User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	applyProfile(u, in)
	if err := s.validate(ctx, u); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UploadAvatar processes an image and stores it as the acting user's avatar.
func (s *Service) UploadAvatar(ctx context.Context, id domain.Identity, r io.Reader) (*domain.User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.avatars == nil {
		return nil, fmt.Errorf("avatar storage is not configured")
	}

	data, err := ProcessAvatar(r)
	if err != nil {
		if errors.Is(err, ErrImageTooLarge) || errors.Is(err, ErrBadImage) {
			v := &validation.Error{}
			v.Add("avatar", err.Error())
			return nil, v
		}
		return nil, err
	}

	url, err := s.avatars.Put(ctx, "avatars/"+u.ID.String()+".png", "image/png", data)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	if err := s.repo.SetAvatar(ctx, u.ID, url); err != nil {
		return nil, err
	}

	s.log.Info("avatar updated", zap.String("user_id", u.ID.String()), zap.Int("bytes", len(data)))
	u.AvatarURL = url
	return u, nil
}

// Create registers an account with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.User, error) {
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	now := s.clock().UTC()
	u := &domain.User{ID: uuid.New(), IsSuperuser: in.Superuser, CreatedAt: now, UpdatedAt: now}
	applyProfile(u, in.ProfileInput)
	if err := s.validate(ctx, u); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", u.ID.String()), logger.Email("email", u.Email), zap.Bool("superuser", u.IsSuperuser))
	return u, nil
}

// ByEmail looks an account up by login email.
func (s *Service) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, validation.NormalizeEmail(email))
}

// GrantRole adds role to the account with the given email.
func (s *Service) GrantRole(ctx context.Context, email, role string) error {
	u, err := s.ByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.Identity().HasRole(role) {
		return nil
	}
	return s.repo.AddRole(ctx, u.ID, role)
}

// RevokeRole removes role from the account with the given email.
func (s *Service) RevokeRole(ctx context.Context, email, role string) error {
	u, err := s.ByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.repo.RemoveRole(ctx, u.ID, role)
}

func applyProfile(u *domain.User, in ProfileInput) {
	u.Email = validation.NormalizeEmail(in.Email)
	u.Username = strings.TrimSpace(in.Username)
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Phone = strings.TrimSpace(in.Phone)
	u.Country = strings.TrimSpace(in.Country)
}

func (s *Service) validate(ctx context.Context, u *domain.User) error {
	v := &validation.Error{}

	switch {
	case u.Email == "":
		v.Add("email", validation.MsgRequired)
	case !validation.ValidEmail(u.Email):
		v.Add("email", validation.MsgInvalidEmail)
	default:
		taken, err := s.repo.EmailTaken(ctx, u.Email, u.ID)
		if err != nil {
			return fmt.Errorf("check user email: %w", err)
		}
		if taken {
			v.Add("email", validation.MsgUserEmailUsed)
		}
	}

	switch {
	case u.Username == "":
		v.Add("username", validation.MsgRequired)
	case utf8.RuneCountInString(u.Username) > 150:
		v.Add("username", "Ensure this value has at most 150 characters.")
	default:
		taken, err := s.repo.UsernameTaken(ctx, u.Username, u.ID)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			v.Add("username", "A user with that username already exists.")
		}
	}

	if utf8.RuneCountInString(u.Phone) > 20 {
		v.Add("phone", "Ensure this value has at most 20 characters.")
	}
	if utf8.RuneCountInString(u.Country) > 100 {
		v.Add("country", "Ensure this value has at most 100 characters.")
	}
	return v.Err()
}
