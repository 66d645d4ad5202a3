package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/service/user"
	"github.com/ignite/mailing-admin/internal/validation"
)

const userSelect = `
	SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.avatar_url,
	       u.phone, u.country, u.password_hash, u.is_superuser, u.created_at, u.updated_at,
	       ARRAY(SELECT role FROM user_roles WHERE user_id = u.id ORDER BY role)
	FROM users u`

// UserRepo implements user.Repository against PostgreSQL.
type UserRepo struct{ db *sql.DB }

// NewUserRepo creates a Postgres-backed user repository.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) get(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, userSelect+` WHERE `+where, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.AvatarURL,
		&u.Phone, &u.Country, &u.PasswordHash, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
		(*pq.StringArray)(&u.Roles),
	)
	if err == sql.ErrNoRows {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.get(ctx, `u.id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `u.email = $1`, email)
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, first_name, last_name, avatar_url, phone, country,
		                   password_hash, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, u.ID, u.Email, u.Username, u.FirstName, u.LastName, u.AvatarURL, u.Phone, u.Country,
		u.PasswordHash, u.IsSuperuser, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return mapUserErr("create user", err)
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, username = $3, first_name = $4, last_name = $5,
		    phone = $6, country = $7, updated_at = $8
		WHERE id = $1
	`, u.ID, u.Email, u.Username, u.FirstName, u.LastName, u.Phone, u.Country, u.UpdatedAt)
	if err != nil {
		return mapUserErr("update user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetAvatar(ctx context.Context, id uuid.UUID, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepo) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *UserRepo) UsernameTaken(ctx context.Context, username string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id <> $2)`, username, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *UserRepo) AddRole(ctx context.Context, id uuid.UUID, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, role)
	if err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	return nil
}

func (r *UserRepo) RemoveRole(ctx context.Context, id uuid.UUID, role string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, id, role)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}

func mapUserErr(op string, err error) error {
	switch {
	case uniqueViolation(err, "users_email_key"):
		v := &validation.Error{}
		v.Add("email", validation.MsgUserEmailUsed)
		return v
	case uniqueViolation(err, "users_username_key"):
		v := &validation.Error{}
		v.Add("username", "A user with that username already exists.")
		return v
	}
	return fmt.Errorf("%s: %w", op, err)
}
