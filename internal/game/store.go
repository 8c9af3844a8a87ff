package game

import (
    "context"
    "strings"
    "sync"
)

// Store persists the in-progress game per voice session.
// Load returns (nil, nil) when nothing is stored.
type Store interface {
    Load(ctx context.Context, sessionID string) (*Snapshot, error)
    Save(ctx context.Context, snap *Snapshot) error
}

// memoryStore is a development-only store used when no Redis is configured.
type memoryStore struct {
    mu    sync.RWMutex
    games map[string]*Snapshot
}

func NewMemoryStore() Store {
    return &memoryStore{games: make(map[string]*Snapshot)}
}

func (m *memoryStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    return m.games[strings.TrimSpace(sessionID)].clone(), nil
}

func (m *memoryStore) Save(ctx context.Context, snap *Snapshot) error {
    if snap == nil { return nil }
    m.mu.Lock()
    m.games[strings.TrimSpace(snap.SessionID)] = snap.clone()
    m.mu.Unlock()
    return nil
}
