// Package store is the engine's boundary to account and table persistence.
// The engine only ever talks to the Adapter interface; this package ships an
// in-memory implementation used by the server and by tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownTable is returned when a table id has no stored configuration
var ErrUnknownTable = errors.New("unknown table")

// Profile is the persisted per-player state the engine needs: the player's
// chip balance (their whole bankroll, including chips currently on a table)
// and the avatar color shown at their seat.
type Profile struct {
	Chips       int
	AvatarColor string
}

// TableConfig is the persisted configuration of one table
type TableConfig struct {
	Name       string
	MaxPlayers int
	SmallBlind int
	BigBlind   int
	BuyIn      int
}

// Adapter is the persistence boundary. Implementations must be safe for
// concurrent use; gameplay never blocks on them beyond profile loads at join.
type Adapter interface {
	LoadTableConfig(ctx context.Context, id string) (TableConfig, error)
	LoadProfile(ctx context.Context, username string) (Profile, error)
	CommitChipDelta(ctx context.Context, username string, delta int) error
}

const (
	defaultChips       = 1000
	defaultAvatarColor = "#000000"
)

// Memory is the in-memory Adapter. Profiles are created with default chips
// and avatar color on first touch, matching a fresh account.
type Memory struct {
	mu       sync.Mutex
	profiles map[string]Profile
	tables   map[string]TableConfig
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string]Profile),
		tables:   make(map[string]TableConfig),
	}
}

// AddTable registers a table configuration under its name
func (m *Memory) AddTable(cfg TableConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[cfg.Name] = cfg
}

// SetProfile stores a profile, replacing any existing one
func (m *Memory) SetProfile(username string, p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[username] = p
}

// LoadTableConfig returns the configuration stored for a table id
func (m *Memory) LoadTableConfig(_ context.Context, id string) (TableConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.tables[id]
	if !ok {
		return TableConfig{}, fmt.Errorf("%w: %s", ErrUnknownTable, id)
	}
	return cfg, nil
}

// LoadProfile returns the profile for a username, creating a default one for
// players seen for the first time.
func (m *Memory) LoadProfile(_ context.Context, username string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile(username), nil
}

// CommitChipDelta applies a net chip change to a player's balance
func (m *Memory) CommitChipDelta(_ context.Context, username string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profile(username)
	p.Chips += delta
	m.profiles[username] = p
	return nil
}

// profile fetches or lazily creates a profile; callers hold the lock
func (m *Memory) profile(username string) Profile {
	p, ok := m.profiles[username]
	if !ok {
		p = Profile{Chips: defaultChips, AvatarColor: defaultAvatarColor}
		m.profiles[username] = p
	}
	return p
}
