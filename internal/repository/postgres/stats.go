package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StatsRepo implements stats.Counter against PostgreSQL.
type StatsRepo struct{ db *sql.DB }

// NewStatsRepo creates a Postgres-backed counter.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) CountMailings(ctx context.Context) (int, error) {
	return r.count(ctx, "count mailings", `SELECT COUNT(*) FROM mailings`)
}

func (r *StatsRepo) CountActiveMailings(ctx context.Context, now time.Time) (int, error) {
	return r.count(ctx, "count active mailings",
		`SELECT COUNT(*) FROM mailings WHERE start_time <= $1 AND end_time >= $1`, now)
}

func (r *StatsRepo) CountClients(ctx context.Context) (int, error) {
	return r.count(ctx, "count clients", `SELECT COUNT(*) FROM clients`)
}

func (r *StatsRepo) count(ctx context.Context, op, q string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
