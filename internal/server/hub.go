package server

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/cardroomhq/holdem/internal/store"
	"github.com/cardroomhq/holdem/internal/table"
)

// HubOptions tune hub-wide table behavior
type HubOptions struct {
	TurnTimeout time.Duration
	HandDelay   time.Duration
	Clock       quartz.Clock
	Seed        int64 // 0 seeds each table from wall time
}

// Hub owns the table registry and fans table state out to subscribers. Each
// table runs its own actor; the hub routes inbound actions to the right
// actor and publishes a per-viewer snapshot after every applied command.
type Hub struct {
	logger    *log.Logger
	store     store.Adapter
	committer *store.Committer
	opts      HubOptions

	mu     sync.RWMutex
	tables map[string]*tableEntry
}

type tableEntry struct {
	runner *table.Runner
	buyIn  int

	mu          sync.RWMutex
	subscribers map[*Connection]bool
}

// NewHub creates a hub around the persistence adapter and commit queue
func NewHub(st store.Adapter, committer *store.Committer, logger *log.Logger, opts HubOptions) *Hub {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	return &Hub{
		logger:    logger.WithPrefix("hub"),
		store:     st,
		committer: committer,
		opts:      opts,
		tables:    make(map[string]*tableEntry),
	}
}

// AddTable registers a table from its stored configuration. Must be called
// before Run.
func (h *Hub) AddTable(cfg store.TableConfig) {
	seed := h.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	runner := table.NewRunner(cfg.Name, table.Config{
		MaxPlayers: cfg.MaxPlayers,
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		BuyIn:      cfg.BuyIn,
	}, rng, h.logger, table.RunnerOptions{
		TurnTimeout: h.opts.TurnTimeout,
		HandDelay:   h.opts.HandDelay,
		Clock:       h.opts.Clock,
	})

	entry := &tableEntry{
		runner:      runner,
		buyIn:       cfg.BuyIn,
		subscribers: make(map[*Connection]bool),
	}

	runner.SetUpdateHook(func(t *table.Table) {
		h.broadcast(entry, t)
	})
	runner.SetHandEndHook(func(result table.Result) {
		h.committer.Enqueue(result.HandID, result.Deltas)
		entry.applyDeltas(result.Deltas)
	})

	h.mu.Lock()
	h.tables[cfg.Name] = entry
	h.mu.Unlock()
	h.logger.Info("table registered", "table", cfg.Name,
		"maxPlayers", cfg.MaxPlayers, "smallBlind", cfg.SmallBlind,
		"bigBlind", cfg.BigBlind, "buyIn", cfg.BuyIn)
}

// Run drives every registered table actor until the context is canceled
func (h *Hub) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	h.mu.RLock()
	for _, entry := range h.tables {
		runner := entry.runner
		g.Go(func() error {
			runner.Run(ctx)
			return nil
		})
	}
	h.mu.RUnlock()
	return g.Wait()
}

func (h *Hub) entry(tableID string) (*tableEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownTable, tableID)
	}
	return entry, nil
}

// Subscribe binds a connection to a table, loads the viewer's profile, and
// delivers a full snapshot. Reconnecting clients resume here with a fresh
// snapshot instead of replaying missed messages.
func (h *Hub) Subscribe(ctx context.Context, tableID string, conn *Connection) error {
	entry, err := h.entry(tableID)
	if err != nil {
		return err
	}

	profile, err := h.store.LoadProfile(ctx, conn.Username())
	if err != nil {
		return fmt.Errorf("load profile for %s: %w", conn.Username(), err)
	}
	conn.setProfile(profile.Chips, profile.AvatarColor)

	entry.mu.Lock()
	entry.subscribers[conn] = true
	entry.mu.Unlock()

	return entry.runner.View(ctx, func(t *table.Table) {
		conn.Send(snapshotState(t, conn.Username(), conn.Chips()))
	})
}

// Unsubscribe detaches a connection from its table. The player's seat is
// kept; a later connection under the same username resumes it.
func (h *Hub) Unsubscribe(tableID string, conn *Connection) {
	entry, err := h.entry(tableID)
	if err != nil {
		return
	}
	entry.mu.Lock()
	delete(entry.subscribers, conn)
	entry.mu.Unlock()
}

// HandleAction routes one inbound action. Rejections are answered with an
// error-bearing snapshot on the originating connection only.
func (h *Hub) HandleAction(ctx context.Context, conn *Connection, action GameAction) {
	entry, err := h.entry(conn.tableID)
	if err != nil {
		h.logger.Error("action for unknown table", "table", conn.tableID, "error", err)
		return
	}

	if err := h.applyAction(ctx, entry, conn, action); err != nil {
		h.logger.Debug("action rejected", "table", conn.tableID,
			"player", conn.Username(), "action", action.Action, "error", err)
		h.sendError(ctx, entry, conn, err.Error())
	}
}

func (h *Hub) applyAction(ctx context.Context, entry *tableEntry, conn *Connection, action GameAction) error {
	if action.Player != "" && action.Player != conn.Username() {
		return fmt.Errorf("cannot act for player %q", action.Player)
	}
	if err := action.Validate(); err != nil {
		return err
	}

	switch action.Action {
	case "join":
		if conn.Chips() < entry.buyIn {
			return fmt.Errorf("insufficient chips for buy-in of %d", entry.buyIn)
		}
		return entry.runner.Join(ctx, conn.Username(), conn.AvatarColor())

	case "leave":
		return entry.runner.Leave(ctx, conn.Username())

	default:
		parsed, ok := table.ParseAction(action.Action)
		if !ok {
			return fmt.Errorf("unknown action %q", action.Action)
		}
		return entry.runner.Apply(ctx, conn.Username(), parsed, action.Amount)
	}
}

// broadcast publishes a per-viewer snapshot to every subscriber. Runs on the
// table's runner goroutine after a command fully applies.
func (h *Hub) broadcast(entry *tableEntry, t *table.Table) {
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	for conn := range entry.subscribers {
		conn.Send(snapshotState(t, conn.Username(), conn.Chips()))
	}
}

// sendError answers a rejected action with a snapshot carrying the error.
// Other subscribers see nothing.
func (h *Hub) sendError(ctx context.Context, entry *tableEntry, conn *Connection, message string) {
	err := entry.runner.View(ctx, func(t *table.Table) {
		state := snapshotState(t, conn.Username(), conn.Chips())
		state.Error = message
		conn.Send(state)
	})
	if err != nil {
		h.logger.Error("failed to send rejection", "player", conn.Username(), "error", err)
	}
}

// applyDeltas folds settled hand results into each subscriber's cached
// bankroll so total_user_chips tracks play without waiting on the committer.
func (e *tableEntry) applyDeltas(deltas map[string]int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for conn := range e.subscribers {
		if delta, ok := deltas[conn.Username()]; ok && delta != 0 {
			conn.addChips(delta)
		}
	}
}
