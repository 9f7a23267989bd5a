package statestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"careline/internal/callflow"
	"careline/internal/catalog"
)

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, time.Minute), mr
}

func sampleState(callID string) *callflow.CallState {
	s := callflow.NewCallState(callID, "+15550001111", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	s.Phase = callflow.PhasePinCollect
	s.BumpAttempt(callflow.PhasePinCollect)
	s.Employee = &catalog.Employee{ID: "emp-1", Name: "Dana Reyes"}
	s.Sched.SetClock(14, 30)
	return s
}

func runStoreContract(t *testing.T, store callflow.Store) {
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, callflow.ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}

	s := sampleState("CA100")
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if s.Version != 1 {
		t.Fatalf("expected version 1 after first save, got %d", s.Version)
	}

	loaded, err := store.Load(ctx, "CA100")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Phase != callflow.PhasePinCollect {
		t.Fatalf("phase lost: %s", loaded.Phase)
	}
	if loaded.Attempt(callflow.PhasePinCollect) != 1 {
		t.Fatalf("attempt counter lost: %d", loaded.Attempt(callflow.PhasePinCollect))
	}
	if loaded.Employee == nil || loaded.Employee.ID != "emp-1" {
		t.Fatalf("employee lost: %+v", loaded.Employee)
	}
	if !loaded.Sched.HasTime || loaded.Sched.Hour != 14 || loaded.Sched.Minute != 30 {
		t.Fatalf("schedule draft lost: %+v", loaded.Sched)
	}
	if loaded.Version != 1 {
		t.Fatalf("loaded version = %d, want 1", loaded.Version)
	}

	// second transition
	loaded.Phase = callflow.PhaseMainMenu
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if loaded.Version != 2 {
		t.Fatalf("expected version 2, got %d", loaded.Version)
	}

	// the original copy is now stale and must lose the race
	s.Phase = callflow.PhaseError
	if err := store.Save(ctx, s); !errors.Is(err, callflow.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if s.Version != 1 {
		t.Fatalf("losing save must not advance the version, got %d", s.Version)
	}

	winner, err := store.Load(ctx, "CA100")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if winner.Phase != callflow.PhaseMainMenu {
		t.Fatalf("committed phase = %s, want main_menu", winner.Phase)
	}

	if err := store.Delete(ctx, "CA100"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "CA100"); !errors.Is(err, callflow.ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound after delete, got %v", err)
	}
}

func TestRedisStoreContract(t *testing.T) {
	store, _ := newRedisStore(t)
	runStoreContract(t, store)
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleState("CA200")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL(stateKeyPrefix + "CA200"); ttl <= 0 {
		t.Fatalf("state key has no ttl: %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Load(ctx, "CA200"); !errors.Is(err, callflow.ErrStateNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestRedisStoreSaveRefreshesTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	s := sampleState("CA300")
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(30 * time.Second)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("second save: %v", err)
	}
	mr.FastForward(45 * time.Second)
	if _, err := store.Load(ctx, "CA300"); err != nil {
		t.Fatalf("state should have survived the refreshed ttl: %v", err)
	}
}

func TestRedisStoreDeleteClearsVersion(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	s := sampleState("CA400")
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "CA400"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(stateKeyPrefix + "CA400" + versionKeySuffix) {
		t.Fatal("version key should be removed with the state")
	}

	// a fresh call under the same id starts from version zero again
	fresh := sampleState("CA400")
	if err := store.Save(ctx, fresh); err != nil {
		t.Fatalf("save after delete: %v", err)
	}
	if fresh.Version != 1 {
		t.Fatalf("expected version 1 on recreated state, got %d", fresh.Version)
	}
}
