package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/service/message"
)

// MessageRepo implements message.Repository against PostgreSQL.
type MessageRepo struct{ db *sql.DB }

// NewMessageRepo creates a Postgres-backed message repository.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

func (r *MessageRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, subject, body, created_at, updated_at
		FROM messages WHERE id = $1
	`, id).Scan(&m.ID, &m.OwnerID, &m.Subject, &m.Body, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, message.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) List(ctx context.Context, owner *uuid.UUID) ([]domain.Message, error) {
	q := `SELECT id, owner_id, subject, body, created_at, updated_at FROM messages`
	var args []interface{}
	if owner != nil {
		q += ` WHERE owner_id = $1`
		args = append(args, *owner)
	}
	q += ` ORDER BY subject, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Subject, &m.Body, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, owner_id, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.OwnerID, m.Subject, m.Body, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *MessageRepo) Update(ctx context.Context, m *domain.Message) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET subject = $2, body = $3, updated_at = $4 WHERE id = $1
	`, m.ID, m.Subject, m.Body, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return message.ErrNotFound
	}
	return nil
}

// Delete removes the message. Mailings using it cascade.
func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return message.ErrNotFound
	}
	return nil
}
