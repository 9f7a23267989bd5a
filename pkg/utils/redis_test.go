package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestAcquireSlotCapsHeldSlots(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	for _, id := range []string{"CA1", "CA2"} {
		ok, err := AcquireSlot(ctx, rdb, "slots", id, 2, time.Hour)
		if err != nil || !ok {
			t.Fatalf("expected %s to acquire, got %v %v", id, ok, err)
		}
	}
	if ok, err := AcquireSlot(ctx, rdb, "slots", "CA3", 2, time.Hour); err != nil || ok {
		t.Fatalf("expected CA3 rejected at cap, got %v %v", ok, err)
	}

	// A held member re-acquires without consuming another slot.
	if ok, err := AcquireSlot(ctx, rdb, "slots", "CA1", 2, time.Hour); err != nil || !ok {
		t.Fatalf("expected CA1 re-acquire, got %v %v", ok, err)
	}

	if err := ReleaseSlot(ctx, rdb, "slots", "CA2"); err != nil {
		t.Fatalf("expected release, got %v", err)
	}
	if ok, err := AcquireSlot(ctx, rdb, "slots", "CA3", 2, time.Hour); err != nil || !ok {
		t.Fatalf("expected CA3 to acquire after release, got %v %v", ok, err)
	}
}

func TestReleaseSlotUnheldIsNoOp(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	if ok, err := AcquireSlot(ctx, rdb, "slots", "CA1", 1, time.Hour); err != nil || !ok {
		t.Fatalf("expected CA1 to acquire, got %v %v", ok, err)
	}
	if err := ReleaseSlot(ctx, rdb, "slots", "CA-never-held"); err != nil {
		t.Fatalf("expected no-op release, got %v", err)
	}
	if ok, err := AcquireSlot(ctx, rdb, "slots", "CA2", 1, time.Hour); err != nil || ok {
		t.Fatalf("expected CA2 still rejected, got %v %v", ok, err)
	}
}

func TestAcquireSlotDropsStaleSlots(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	// A slot from a crashed process, well past its age limit.
	stale := float64(time.Now().Add(-time.Hour).UnixMilli())
	if err := rdb.ZAdd(ctx, "slots", redis.Z{Score: stale, Member: "CA-old"}).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if ok, err := AcquireSlot(ctx, rdb, "slots", "CA-new", 1, 10*time.Minute); err != nil || !ok {
		t.Fatalf("expected stale slot evicted and CA-new granted, got %v %v", ok, err)
	}
	if n, err := rdb.ZCard(ctx, "slots").Result(); err != nil || n != 1 {
		t.Fatalf("expected only the fresh slot held, got %d %v", n, err)
	}
}

func TestAcquireSlotValidatesArgs(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	if _, err := AcquireSlot(ctx, rdb, "slots", "", 1, time.Hour); err == nil {
		t.Fatalf("expected error for empty member")
	}
	if _, err := AcquireSlot(ctx, rdb, "slots", "CA1", 0, time.Hour); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if _, err := AcquireSlot(ctx, rdb, "slots", "CA1", 1, 0); err == nil {
		t.Fatalf("expected error for zero max age")
	}
	if _, err := AcquireSlot(ctx, nil, "slots", "CA1", 1, time.Hour); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
