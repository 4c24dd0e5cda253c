package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iwvelando/budget-allocation/internal/allocation"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		ProfileID:        "retail",
		TotalBudgetCents: 1_000_000,
		Lines: []allocation.PreviewLine{
			{Section: "FEES", Activity: "Cost Planning", Percent: 40, AmountCents: 400_000},
			{Section: "FEES", Activity: "Architect", Percent: 60, AmountCents: 600_000},
		},
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	snap := sampleSnapshot()
	if err := store.Create(ctx, snap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap.ID == "" {
		t.Fatal("Create() did not assign an id")
	}
	if snap.Version != 1 {
		t.Errorf("version = %d, expected 1", snap.Version)
	}

	got, err := store.Get(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ProfileID != "retail" || len(got.Lines) != 2 {
		t.Errorf("unexpected snapshot %+v", got)
	}

	// Callers must not be able to reach into stored state.
	got.Lines[0].Percent = 99
	again, _ := store.Get(ctx, snap.ID)
	if again.Lines[0].Percent != 40 {
		t.Errorf("stored snapshot was mutated through Get() result")
	}

	if err := store.Create(ctx, &Snapshot{ID: snap.ID}); err == nil {
		t.Error("Create() with an existing id should fail")
	}
}

func TestMemoryStoreUpdateVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	snap := sampleSnapshot()
	if err := store.Create(ctx, snap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first, _ := store.Get(ctx, snap.ID)
	second, _ := store.Get(ctx, snap.ID)

	first.Lines[0].Percent = 50
	if err := store.Update(ctx, first, 1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version after update = %d, expected 2", first.Version)
	}

	second.Lines[0].Percent = 10
	err := store.Update(ctx, second, 1)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale Update() error = %v, expected ErrVersionConflict", err)
	}

	current, _ := store.Get(ctx, snap.ID)
	if current.Lines[0].Percent != 50 || current.Version != 2 {
		t.Errorf("stale write leaked into store: %+v", current)
	}

	if err := store.Update(ctx, &Snapshot{ID: "missing"}, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() on unknown id error = %v, expected ErrNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	snap := sampleSnapshot()
	if err := store.Create(ctx, snap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	now = now.Add(30 * time.Second)
	if _, err := store.Get(ctx, snap.ID); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, expected ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("expired entry was not evicted, Len() = %d", store.Len())
	}
}

func TestMemoryStoreEvictsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		if err := store.Create(ctx, sampleSnapshot()); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	kept := sampleSnapshot()
	if err := store.Create(ctx, kept); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if store.Len() != 1001 {
		t.Fatalf("Len() = %d, expected 1001", store.Len())
	}

	// Only kept is written again before the others expire.
	now = now.Add(45 * time.Second)
	if err := store.Update(ctx, kept, kept.Version); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	now = now.Add(30 * time.Second)
	if err := store.Create(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Len() after expiry = %d, expected 2", store.Len())
	}
	if _, err := store.Get(ctx, kept.ID); err != nil {
		t.Errorf("Get() of a live session error = %v", err)
	}

	now = now.Add(24 * time.Hour)
	if err := store.Update(ctx, kept, kept.Version); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() of an expired session error = %v, expected ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after a day = %d, expected 0", store.Len())
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	snap := sampleSnapshot()
	_ = store.Create(ctx, snap)
	if err := store.Delete(ctx, snap.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete() of unknown id error = %v", err)
	}
}

func TestSnapshotRemoved(t *testing.T) {
	snap := &Snapshot{Removed: []int{2, 5}}
	if !snap.IsRemoved(5) || snap.IsRemoved(3) {
		t.Errorf("IsRemoved() gave wrong answer for %v", snap.Removed)
	}

	clone := snap.Clone()
	clone.Removed[0] = 9
	if snap.Removed[0] != 2 {
		t.Error("Clone() shares the removed slice")
	}
}
