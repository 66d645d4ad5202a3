// Package client implements management of client contact records.
//
// Every operation runs policy -> validation -> store -> cache invalidation.
// Records the acting identity cannot see are reported as ErrNotFound. The
// package depends on the Repository interface defined here; the PostgreSQL
// implementation lives in repository/postgres.
package client
