package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/service/mailing"
)

// MailingRepo implements mailing.Repository, mailing.AttemptReader and the
// dispatcher's store against PostgreSQL.
type MailingRepo struct{ db *sql.DB }

// NewMailingRepo creates a Postgres-backed mailing repository.
func NewMailingRepo(db *sql.DB) *MailingRepo { return &MailingRepo{db: db} }

func (r *MailingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Mailing, error) {
	m := &domain.Mailing{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, start_time, end_time, status, message_id, created_at, updated_at
		FROM mailings WHERE id = $1
	`, id).Scan(&m.ID, &m.OwnerID, &m.StartTime, &m.EndTime, &m.Status, &m.MessageID, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, mailing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mailing: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT mc.client_id
		FROM mailing_clients mc
		JOIN clients c ON c.id = mc.client_id
		WHERE mc.mailing_id = $1
		ORDER BY c.created_at, c.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get mailing clients: %w", err)
	}
	defer rows.Close()

	m.ClientIDs = []uuid.UUID{}
	for rows.Next() {
		var cid uuid.UUID
		if err := rows.Scan(&cid); err != nil {
			return nil, fmt.Errorf("scan mailing client: %w", err)
		}
		m.ClientIDs = append(m.ClientIDs, cid)
	}
	m.ClientsCount = len(m.ClientIDs)
	return m, rows.Err()
}

func (r *MailingRepo) List(ctx context.Context, owner *uuid.UUID) ([]domain.Mailing, error) {
	q := `
		SELECT m.id, m.owner_id, m.start_time, m.end_time, m.status, m.message_id,
		       m.created_at, m.updated_at,
		       (SELECT COUNT(*) FROM mailing_clients mc WHERE mc.mailing_id = m.id)
		FROM mailings m`
	var args []interface{}
	if owner != nil {
		q += ` WHERE m.owner_id = $1`
		args = append(args, *owner)
	}
	q += ` ORDER BY m.created_at DESC, m.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list mailings: %w", err)
	}
	defer rows.Close()

	out := []domain.Mailing{}
	for rows.Next() {
		var m domain.Mailing
		if err := rows.Scan(
			&m.ID, &m.OwnerID, &m.StartTime, &m.EndTime, &m.Status, &m.MessageID,
			&m.CreatedAt, &m.UpdatedAt, &m.ClientsCount,
		); err != nil {
			return nil, fmt.Errorf("scan mailing: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MailingRepo) Create(ctx context.Context, m *domain.Mailing) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mailings (id, owner_id, start_time, end_time, status, message_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, m.ID, m.OwnerID, m.StartTime, m.EndTime, m.Status, m.MessageID, m.CreatedAt, m.UpdatedAt); err != nil {
			return fmt.Errorf("create mailing: %w", err)
		}
		return insertRecipients(ctx, tx, m.ID, m.ClientIDs)
	})
}

func (r *MailingRepo) Update(ctx context.Context, m *domain.Mailing) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE mailings
			SET start_time = $2, end_time = $3, status = $4, message_id = $5, updated_at = $6
			WHERE id = $1
		`, m.ID, m.StartTime, m.EndTime, m.Status, m.MessageID, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update mailing: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return mailing.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM mailing_clients WHERE mailing_id = $1`, m.ID); err != nil {
			return fmt.Errorf("clear mailing clients: %w", err)
		}
		return insertRecipients(ctx, tx, m.ID, m.ClientIDs)
	})
}

func insertRecipients(ctx context.Context, tx *sql.Tx, mailingID uuid.UUID, clientIDs []uuid.UUID) error {
	if len(clientIDs) == 0 {
		return nil
	}
	ids := make([]string, len(clientIDs))
	for i, id := range clientIDs {
		ids[i] = id.String()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO mailing_clients (mailing_id, client_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, mailingID, pq.Array(ids)); err != nil {
		return fmt.Errorf("insert mailing clients: %w", err)
	}
	return nil
}

// Delete removes the mailing. Recipients and attempts cascade.
func (r *MailingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mailings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mailing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mailing.ErrNotFound
	}
	return nil
}

// Recipients returns the mailing's clients ordered by creation.
func (r *MailingRepo) Recipients(ctx context.Context, mailingID uuid.UUID) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.owner_id, c.email, c.full_name, c.comment, c.created_at, c.updated_at
		FROM mailing_clients mc
		JOIN clients c ON c.id = mc.client_id
		WHERE mc.mailing_id = $1
		ORDER BY c.created_at, c.id
	`, mailingID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// RecordAttempt appends an attempt; attempt_time is assigned by the database.
func (r *MailingRepo) RecordAttempt(ctx context.Context, a *domain.MailingAttempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	var at time.Time
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO mailing_attempts (id, mailing_id, status, server_response)
		VALUES ($1, $2, $3, $4)
		RETURNING attempt_time
	`, a.ID, a.MailingID, a.Status, a.ServerResponse).Scan(&at)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	a.AttemptTime = at
	return nil
}

func (r *MailingRepo) ListAttempts(ctx context.Context, mailingID uuid.UUID, status *domain.AttemptStatus) ([]domain.MailingAttempt, error) {
	q := `
		SELECT id, mailing_id, attempt_time, status, server_response
		FROM mailing_attempts
		WHERE mailing_id = $1`
	args := []interface{}{mailingID}
	if status != nil {
		q += ` AND status = $2`
		args = append(args, *status)
	}
	q += ` ORDER BY attempt_time DESC, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := []domain.MailingAttempt{}
	for rows.Next() {
		var a domain.MailingAttempt
		if err := rows.Scan(&a.ID, &a.MailingID, &a.AttemptTime, &a.Status, &a.ServerResponse); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
