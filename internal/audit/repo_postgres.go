package audit

import (
	"context"
	"database/sql"
)

// NOTE: This repository assumes the following table exists:
//
// CREATE TABLE audit_events (
//   id            UUID PRIMARY KEY,
//   agency_id     TEXT NOT NULL,
//   type          TEXT NOT NULL,
//   actor_user_id TEXT NOT NULL DEFAULT '',
//   actor_role    TEXT NOT NULL DEFAULT '',
//   ip_address    TEXT NOT NULL DEFAULT '',
//   call_id       TEXT NOT NULL DEFAULT '',
//   target        TEXT NOT NULL DEFAULT '',
//   message       TEXT NOT NULL DEFAULT '',
//   metadata      TEXT NOT NULL DEFAULT '',
//   created_at    TIMESTAMPTZ NOT NULL
// );
//
// The table is INSERT-only; revoke UPDATE and DELETE from the app role.

// Postgres is the durable audit event repository.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, agency_id, type, actor_user_id, actor_role, ip_address, call_id, target, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.AgencyID, string(e.Type), e.ActorUserID, e.ActorRole,
		e.IPAddress, e.CallID, e.Target, e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}

func (r *Postgres) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	const q = `
SELECT id, agency_id, type, actor_user_id, actor_role, ip_address, call_id, target, message, metadata, created_at
FROM audit_events
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(
			&e.ID,
			&e.AgencyID,
			&typ,
			&e.ActorUserID,
			&e.ActorRole,
			&e.IPAddress,
			&e.CallID,
			&e.Target,
			&e.Message,
			&e.Metadata,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
