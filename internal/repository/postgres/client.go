package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/service/client"
	"github.com/ignite/mailing-admin/internal/validation"
)

const clientColumns = `id, owner_id, email, full_name, comment, created_at, updated_at`

// ClientRepo implements client.Repository against PostgreSQL.
type ClientRepo struct{ db *sql.DB }

// NewClientRepo creates a Postgres-backed client repository.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

func scanClient(s scanner) (*domain.Client, error) {
	c := &domain.Client{}
	err := s.Scan(&c.ID, &c.OwnerID, &c.Email, &c.FullName, &c.Comment, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *ClientRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, client.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (r *ClientRepo) List(ctx context.Context, owner *uuid.UUID) ([]domain.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM clients`
	var args []interface{}
	if owner != nil {
		q += ` WHERE owner_id = $1`
		args = append(args, *owner)
	}
	q += ` ORDER BY full_name, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	out := []domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) Create(ctx context.Context, c *domain.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, owner_id, email, full_name, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.OwnerID, c.Email, c.FullName, c.Comment, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapClientErr("create client", err)
	}
	return nil
}

func (r *ClientRepo) Update(ctx context.Context, c *domain.Client) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients SET email = $2, full_name = $3, comment = $4, updated_at = $5
		WHERE id = $1
	`, c.ID, c.Email, c.FullName, c.Comment, c.UpdatedAt)
	if err != nil {
		return mapClientErr("update client", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return client.ErrNotFound
	}
	return nil
}

// Delete removes the client. Memberships in mailing_clients cascade.
func (r *ClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepo) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM clients WHERE email = $1 AND id <> $2)`,
		email, excludeID,
	).Scan(&exists)
	return exists, err
}

// mapClientErr turns a lost uniqueness race into the same field error the
// service reports.
func mapClientErr(op string, err error) error {
	if uniqueViolation(err, "clients_email_key") {
		v := &validation.Error{}
		v.Add("email", validation.MsgClientEmailUsed)
		return v
	}
	return fmt.Errorf("%s: %w", op, err)
}
