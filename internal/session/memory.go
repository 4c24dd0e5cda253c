package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	snap    *Snapshot
	expires time.Time
}

// MemoryStore keeps snapshots in process memory. Suitable for a single API
// instance and for tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore creates an in-memory store whose entries expire after ttl
// without writes. Expired entries are evicted on the next Create or Update.
// A non-positive ttl keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (m *MemoryStore) expiry(now time.Time) time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(m.ttl)
}

// lookup returns the live entry for id, evicting it if expired. Callers hold m.mu.
func (m *MemoryStore) lookup(id string, now time.Time) (memoryEntry, bool) {
	entry, ok := m.data[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expires.IsZero() && now.After(entry.expires) {
		delete(m.data, id)
		return memoryEntry{}, false
	}
	return entry, true
}

// sweep evicts every expired entry. Callers hold m.mu.
func (m *MemoryStore) sweep(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for id, entry := range m.data {
		if now.After(entry.expires) {
			delete(m.data, id)
		}
	}
}

// Create stores a new snapshot.
func (m *MemoryStore) Create(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	prepareCreate(snap, now)
	if _, exists := m.lookup(snap.ID, now); exists {
		return fmt.Errorf("preview session %s already exists", snap.ID)
	}
	m.data[snap.ID] = memoryEntry{snap: snap.Clone(), expires: m.expiry(now)}
	return nil
}

// Get returns a copy of the stored snapshot.
func (m *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(id, m.now())
	if !ok {
		return nil, ErrNotFound
	}
	return entry.snap.Clone(), nil
}

// Update replaces the snapshot if nobody else has written since expectedVersion.
func (m *MemoryStore) Update(_ context.Context, snap *Snapshot, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	entry, ok := m.lookup(snap.ID, now)
	if !ok {
		return ErrNotFound
	}
	if entry.snap.Version != expectedVersion {
		return ErrVersionConflict
	}

	snap.Version = expectedVersion + 1
	snap.UpdatedAt = now
	m.data[snap.ID] = memoryEntry{snap: snap.Clone(), expires: m.expiry(now)}
	return nil
}

// Delete removes a snapshot.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, id)
	return nil
}

// Len returns the number of stored snapshots, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
