// Package session keeps the current allocation preview of each editing
// session between requests. Every write carries the version the caller last
// saw; a stale version is rejected so concurrent edits cannot silently
// overwrite each other.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/budget-allocation/internal/allocation"
)

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("preview session not found")

	// ErrVersionConflict is returned when an update is based on a stale version.
	ErrVersionConflict = errors.New("preview session was modified by another request")
)

// Snapshot is one stored version of a preview.
type Snapshot struct {
	ID               string                   `json:"id"`
	Version          int64                    `json:"version"`
	ProfileID        string                   `json:"profileId"`
	TotalBudgetCents int64                    `json:"totalBudgetCents"`
	Lines            []allocation.PreviewLine `json:"lines"`
	Removed          []int                    `json:"removed,omitempty"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// IsRemoved reports whether the line at index was removed earlier in the session.
func (s *Snapshot) IsRemoved(index int) bool {
	for _, i := range s.Removed {
		if i == index {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	clone := *s
	clone.Lines = append([]allocation.PreviewLine(nil), s.Lines...)
	clone.Removed = append([]int(nil), s.Removed...)
	return &clone
}

// Store persists preview snapshots.
type Store interface {
	// Create stores a new snapshot at version 1, assigning an id when empty.
	Create(ctx context.Context, snap *Snapshot) error
	// Get returns the current snapshot or ErrNotFound.
	Get(ctx context.Context, id string) (*Snapshot, error)
	// Update replaces the snapshot when its stored version equals
	// expectedVersion and bumps snap.Version; otherwise ErrVersionConflict.
	Update(ctx context.Context, snap *Snapshot, expectedVersion int64) error
	// Delete drops a snapshot. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

func prepareCreate(snap *Snapshot, now time.Time) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.Version = 1
	snap.UpdatedAt = now
}
