// Package stats serves the landing-page summary (total mailings, active
// mailings, clients) through a short-lived cache entry.
//
// The entry is computed on a miss and dropped by Invalidate whenever a
// client or mailing is written. Counts are global, not owner-scoped.
package stats
