package reporting

import (
	"context"
	"database/sql"
	"time"
)

// NOTE: This repository assumes the following table exists:
//
// CREATE TABLE call_records (
//   call_id          TEXT PRIMARY KEY,
//   caller           TEXT NOT NULL DEFAULT '',
//   status           TEXT NOT NULL,
//   duration_seconds INT NOT NULL DEFAULT 0,
//   ended_at         TIMESTAMPTZ NOT NULL
// );
//
// call_id as the primary key makes retried status callbacks no-ops.

// Postgres is the durable call record repository.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Insert(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO call_records (call_id, caller, status, duration_seconds, ended_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (call_id) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		rec.CallID, rec.Caller, string(rec.Status), rec.DurationSeconds, rec.EndedAt,
	)
	return err
}

func (r *Postgres) ListRange(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	const q = `
SELECT call_id, caller, status, duration_seconds, ended_at
FROM call_records
WHERE ended_at >= $1 AND ended_at < $2
ORDER BY ended_at
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var rec CallRecord
		var status string
		if err := rows.Scan(
			&rec.CallID,
			&rec.Caller,
			&status,
			&rec.DurationSeconds,
			&rec.EndedAt,
		); err != nil {
			return nil, err
		}
		rec.Status = CallStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
