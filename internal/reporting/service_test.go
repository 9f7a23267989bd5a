package reporting

import (
	"context"
	"testing"
	"time"
)

func TestRecordRejectsInvalidRecords(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.Record(ctx, CallRecord{Status: CallStatusCompleted}); err == nil {
		t.Fatalf("expected error for missing call id")
	}
	if err := svc.Record(ctx, CallRecord{CallID: "CA1", Status: "ringing"}); err == nil {
		t.Fatalf("expected error for non-final status")
	}
	if err := svc.Record(ctx, CallRecord{CallID: "CA1", Status: CallStatusCompleted, DurationSeconds: -1}); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}

func TestRecordStampsEndTime(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return now }

	if err := svc.Record(context.Background(), CallRecord{CallID: "CA1", Status: CallStatusCompleted, DurationSeconds: 90}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rows, err := repo.ListRange(context.Background(), now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 record, got %d", len(rows))
	}
	if !rows[0].EndedAt.Equal(now) {
		t.Fatalf("expected ended_at %v, got %v", now, rows[0].EndedAt)
	}
}

func TestDuplicateCallRecordedOnce(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return now }

	rec := CallRecord{CallID: "CA1", Status: CallStatusCompleted, DurationSeconds: 30}
	if err := svc.Record(context.Background(), rec); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.Record(context.Background(), rec); err != nil {
		t.Fatalf("unexpected err on retry: %v", err)
	}

	sum, err := svc.Summarize(context.Background(), TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sum.TotalCalls != 1 {
		t.Fatalf("expected 1 call, got %d", sum.TotalCalls)
	}
}

func TestSummarizeAggregatesByStatus(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return now }

	seed := []CallRecord{
		{CallID: "CA1", Status: CallStatusCompleted, DurationSeconds: 120},
		{CallID: "CA2", Status: CallStatusCompleted, DurationSeconds: 60},
		{CallID: "CA3", Status: CallStatusFailed},
		{CallID: "CA4", Status: CallStatusNoAnswer},
	}
	for _, rec := range seed {
		if err := svc.Record(context.Background(), rec); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	sum, err := svc.Summarize(context.Background(), TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sum.TotalCalls != 4 || sum.CompletedCalls != 2 || sum.FailedCalls != 1 || sum.NoAnswerCalls != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.TotalDurationSeconds != 180 {
		t.Fatalf("expected 180 total seconds, got %d", sum.TotalDurationSeconds)
	}
	if sum.AverageDurationSeconds != 45 {
		t.Fatalf("expected 45s average, got %d", sum.AverageDurationSeconds)
	}
}

func TestSummarizeRejectsBadRange(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	now := time.Unix(1700000000, 0).UTC()
	if _, err := svc.Summarize(context.Background(), TimeRange{From: now, To: now}); err == nil {
		t.Fatalf("expected error for empty range")
	}
	if _, err := svc.Summarize(context.Background(), TimeRange{From: now}); err == nil {
		t.Fatalf("expected error for missing bound")
	}
}

func TestSummarizeExcludesCallsOutsideRange(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	svc := NewService(repo)

	seed := []CallRecord{
		{CallID: "CA1", Status: CallStatusCompleted, EndedAt: now},
		{CallID: "CA2", Status: CallStatusCompleted, EndedAt: now.Add(-2 * time.Hour)},
		{CallID: "CA3", Status: CallStatusCompleted, EndedAt: now.Add(2 * time.Hour)},
	}
	for _, rec := range seed {
		if err := svc.Record(context.Background(), rec); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	sum, err := svc.Summarize(context.Background(), TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sum.TotalCalls != 1 {
		t.Fatalf("expected 1 call in range, got %d", sum.TotalCalls)
	}
}
