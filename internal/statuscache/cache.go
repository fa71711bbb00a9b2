// Package statuscache holds the latest live-status snapshot projected from
// provider events. Snapshots are ephemeral overlay data and are never
// written to the primary store.
package statuscache

import (
    "context"
    "sync"
    "time"
)

// Snapshot is one consistent view of live driver and stop statuses.
// Drivers is keyed by driver serial (name when no serial is known),
// Stops by provider order number.
type Snapshot struct {
    Tag       string            `json:"tag"`
    Drivers   map[string]string `json:"drivers"`
    Stops     map[string]string `json:"stops"`
    UpdatedAt time.Time         `json:"updatedAt"`
}

type Cache interface {
    Put(ctx context.Context, snap Snapshot) error
    // Get returns the current snapshot and whether one exists.
    Get(ctx context.Context) (Snapshot, bool, error)
}

// Memory keeps the snapshot in-process. Used when no Redis URL is
// configured and in tests.
type Memory struct {
    mu   sync.RWMutex
    snap Snapshot
    set  bool
    ttl  time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }
    return &Memory{ttl: ttl}
}

func (m *Memory) Put(_ context.Context, snap Snapshot) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if snap.UpdatedAt.IsZero() {
        snap.UpdatedAt = time.Now().UTC()
    }
    m.snap = snap
    m.set = true
    return nil
}

func (m *Memory) Get(_ context.Context) (Snapshot, bool, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if !m.set || time.Since(m.snap.UpdatedAt) > m.ttl {
        return Snapshot{}, false, nil
    }
    return m.snap, true, nil
}
