package audit

import (
	"context"
	"testing"
	"time"
)

func TestAppendRequiresAgencyAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeQueueRemoved}); err == nil {
		t.Fatalf("expected error for missing agency")
	}
	if err := svc.Append(context.Background(), Event{AgencyID: "agency-1"}); err == nil {
		t.Fatalf("expected error for missing type")
	}
}

func TestAppendStampsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	now := time.Unix(1700000000, 0).UTC()
	svc.clock = func() time.Time { return now }

	if err := svc.LogQueueRemoved(context.Background(), "agency-1", "user-2", "dispatcher", "1.2.3.4", "CA-100", "caller asked us to"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !e.CreatedAt.Equal(now) {
		t.Fatalf("expected clock time, got %v", e.CreatedAt)
	}
	if e.Type != EventTypeQueueRemoved || e.CallID != "CA-100" || e.IPAddress != "1.2.3.4" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestOverrideLifecycleEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	ctx := context.Background()
	if err := svc.LogOverrideSet(ctx, "agency-1", "user-9", "admin", "10.0.0.1", "+15550002222", `{"ttl":"2h"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := svc.LogOverrideApplied(ctx, "agency-1", "CA-7", "+15550002222"); err != nil {
		t.Fatalf("applied: %v", err)
	}
	if err := svc.LogOverrideCleared(ctx, "agency-1", "user-9", "admin", "10.0.0.1"); err != nil {
		t.Fatalf("cleared: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evs))
	}
	if evs[0].Type != EventTypeOverrideSet || evs[1].Type != EventTypeOverrideApplied || evs[2].Type != EventTypeOverrideCleared {
		t.Fatalf("unexpected sequence: %v %v %v", evs[0].Type, evs[1].Type, evs[2].Type)
	}
	if evs[1].ActorUserID != "" {
		t.Fatalf("applied events carry no actor, got %q", evs[1].ActorUserID)
	}
	if evs[1].Target != "+15550002222" {
		t.Fatalf("expected target on applied event, got %q", evs[1].Target)
	}
}

func TestListRecentNewestFirstAndCapped(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := svc.LogOverrideCleared(ctx, "agency-1", "user-1", "admin", ""); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	evs, err := svc.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}

	all := repo.Events()
	if evs[0].ID != all[3].ID || evs[1].ID != all[2].ID {
		t.Fatalf("expected newest first")
	}
}
