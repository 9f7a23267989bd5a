package queue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"careline/pkg/utils"
)

// NOTE: This repository assumes the following table exists:
//
// CREATE TABLE hold_queue (
//   id            UUID PRIMARY KEY,
//   call_id       TEXT NOT NULL UNIQUE,
//   caller_number TEXT NOT NULL,
//   employee_id   TEXT NOT NULL DEFAULT '',
//   provider_id   TEXT NOT NULL DEFAULT '',
//   reason        TEXT NOT NULL DEFAULT '',
//   enqueued_at   TIMESTAMPTZ NOT NULL,
//   seq           BIGSERIAL
// );
//
// seq orders entries that share an enqueued_at timestamp.

// Postgres is the production queue repository.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Insert adds the entry and computes its position in one transaction,
// so two concurrent enqueues cannot read the same position. The
// call_id unique constraint makes re-enqueueing a no-op that returns
// the existing entry.
func (r *Postgres) Insert(ctx context.Context, e Entry) (Entry, int, error) {
	var stored Entry
	var position int
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const ins = `
INSERT INTO hold_queue (id, call_id, caller_number, employee_id, provider_id, reason, enqueued_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (call_id) DO NOTHING
`
		if _, err := tx.ExecContext(ctx, ins,
			e.ID, e.CallID, e.CallerNumber, e.EmployeeID, e.ProviderID, e.Reason, e.EnqueuedAt,
		); err != nil {
			return err
		}
		var err error
		stored, position, err = findTx(ctx, tx, e.CallID)
		return err
	})
	if err != nil {
		return Entry{}, 0, err
	}
	return stored, position, nil
}

func (r *Postgres) Find(ctx context.Context, callID string) (Entry, int, error) {
	var stored Entry
	var position int
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		stored, position, err = findTx(ctx, tx, callID)
		return err
	})
	if err != nil {
		return Entry{}, 0, err
	}
	return stored, position, nil
}

func findTx(ctx context.Context, tx *sql.Tx, callID string) (Entry, int, error) {
	const sel = `
SELECT id, call_id, caller_number, employee_id, provider_id, reason, enqueued_at, seq
FROM hold_queue
WHERE call_id = $1
`
	var e Entry
	if err := tx.QueryRowContext(ctx, sel, callID).Scan(
		&e.ID,
		&e.CallID,
		&e.CallerNumber,
		&e.EmployeeID,
		&e.ProviderID,
		&e.Reason,
		&e.EnqueuedAt,
		&e.Seq,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, 0, ErrNotFound
		}
		return Entry{}, 0, err
	}

	const cnt = `
SELECT COUNT(*)
FROM hold_queue
WHERE (enqueued_at, seq) < ($1, $2)
`
	var earlier int
	if err := tx.QueryRowContext(ctx, cnt, e.EnqueuedAt, e.Seq).Scan(&earlier); err != nil {
		return Entry{}, 0, err
	}
	return e, earlier + 1, nil
}

func (r *Postgres) Remove(ctx context.Context, callID string) error {
	const q = `
DELETE FROM hold_queue
WHERE call_id = $1
`
	res, err := r.db.ExecContext(ctx, q, callID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Postgres) List(ctx context.Context) ([]Entry, error) {
	const q = `
SELECT id, call_id, caller_number, employee_id, provider_id, reason, enqueued_at, seq
FROM hold_queue
ORDER BY enqueued_at, seq
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.CallID,
			&e.CallerNumber,
			&e.EmployeeID,
			&e.ProviderID,
			&e.Reason,
			&e.EnqueuedAt,
			&e.Seq,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Postgres) RemoveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	const q = `
DELETE FROM hold_queue
WHERE enqueued_at < $1
`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
