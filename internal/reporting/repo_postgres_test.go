package reporting

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Postgres) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgres(db)
}

func TestPostgresInsert(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	endedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	rec := CallRecord{
		CallID:          "CA1",
		Caller:          "+15550001111",
		Status:          CallStatusCompleted,
		DurationSeconds: 185,
		EndedAt:         endedAt,
	}

	mock.ExpectExec(`INSERT INTO call_records`).
		WithArgs(rec.CallID, rec.Caller, "completed", rec.DurationSeconds, rec.EndedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertPropagatesError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO call_records`).
		WillReturnError(sql.ErrConnDone)

	err := repo.Insert(context.Background(), CallRecord{
		CallID: "CA1", Status: CallStatusFailed, EndedAt: time.Now(),
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRange(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	mock.ExpectQuery(`FROM call_records`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"call_id", "caller", "status", "duration_seconds", "ended_at"}).
			AddRow("CA1", "+15550001111", "completed", 90, from.Add(9*time.Hour)).
			AddRow("CA2", "+15550002222", "no-answer", 0, from.Add(10*time.Hour)))

	rows, err := repo.ListRange(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CA1", rows[0].CallID)
	assert.Equal(t, CallStatusCompleted, rows[0].Status)
	assert.Equal(t, CallStatusNoAnswer, rows[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
