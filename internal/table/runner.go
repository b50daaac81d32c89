package table

import (
	"context"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// DefaultTurnTimeout is how long a seat may hold the action before the
// table acts for it.
const DefaultTurnTimeout = 30 * time.Second

// DefaultHandDelay is the pause between a hand settling and the next deal
const DefaultHandDelay = 3 * time.Second

// RunnerOptions tune a Runner's scheduling behavior. A zero TurnTimeout or
// HandDelay takes the default; a negative TurnTimeout disables the turn
// clock entirely.
type RunnerOptions struct {
	TurnTimeout time.Duration
	HandDelay   time.Duration
	Clock       quartz.Clock
}

// Runner serializes all access to one Table through a single goroutine and
// drives the clock-based parts of the game: turn timeouts and the delay
// between hands. Mutations flow through Join/Leave/Apply; reads through
// View. The update hook fires only after a command that changed state.
type Runner struct {
	table  *Table
	logger *log.Logger
	clock  quartz.Clock

	turnTimeout time.Duration
	handDelay   time.Duration

	commands chan command
	done     chan struct{}

	// Timer bookkeeping lives on the runner goroutine. turnKey is the turn
	// token the running timer belongs to so a stale fire is a no-op.
	turnTimer *quartz.Timer
	turnKey   string
	dealTimer *quartz.Timer

	onUpdate func(*Table)
}

// NewRunner creates a runner for a fresh table
func NewRunner(id string, cfg Config, rng *rand.Rand, logger *log.Logger, opts RunnerOptions) *Runner {
	if opts.TurnTimeout == 0 {
		opts.TurnTimeout = DefaultTurnTimeout
	}
	if opts.HandDelay <= 0 {
		opts.HandDelay = DefaultHandDelay
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	return &Runner{
		table:       New(id, cfg, rng, logger),
		logger:      logger.WithPrefix("runner").With("table", id),
		clock:       opts.Clock,
		turnTimeout: opts.TurnTimeout,
		handDelay:   opts.HandDelay,
		commands:    make(chan command, 64),
		done:        make(chan struct{}),
	}
}

// command is one unit of work on the runner goroutine. fn reports whether
// it may have changed table state; only then do timers reschedule and the
// update hook fire. The finished signal closes after all of that, so a
// caller that waits on it observes fully settled timer state.
type command struct {
	fn       func() bool
	finished chan struct{}
}

// SetUpdateHook registers a callback invoked on the runner goroutine after
// every state-changing command. The table may be read inside the callback
// but must not escape it. Must be called before Run.
func (r *Runner) SetUpdateHook(fn func(*Table)) {
	r.onUpdate = fn
}

// SetHandEndHook forwards to the table. Must be called before Run.
func (r *Runner) SetHandEndHook(fn func(Result)) {
	r.table.SetHandEndHook(fn)
}

// Run processes commands until the context is canceled. It owns the table:
// no other goroutine may touch it while Run is live.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			r.stopTimers()
			return
		case cmd := <-r.commands:
			if cmd.fn() {
				r.reschedule()
				if r.onUpdate != nil {
					r.onUpdate(r.table)
				}
			}
			if cmd.finished != nil {
				close(cmd.finished)
			}
		}
	}
}

// submit queues a command and waits for its completion
func (r *Runner) submit(ctx context.Context, fn func() bool) error {
	finished := make(chan struct{})
	select {
	case r.commands <- command{fn: fn, finished: finished}:
	case <-r.done:
		return ErrTableUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-r.done:
		return ErrTableUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View runs fn on the runner goroutine with read access to the table. It
// never triggers a broadcast; fn must not mutate.
func (r *Runner) View(ctx context.Context, fn func(t *Table)) error {
	return r.submit(ctx, func() bool {
		fn(r.table)
		return false
	})
}

// Join seats a player and starts dealing when the table reaches quorum
func (r *Runner) Join(ctx context.Context, username, avatarColor string) error {
	var joinErr error
	err := r.submit(ctx, func() bool {
		joinErr = r.table.Join(username, avatarColor)
		return joinErr == nil
	})
	if err != nil {
		return err
	}
	return joinErr
}

// Leave removes a player, folding them first if a hand is live
func (r *Runner) Leave(ctx context.Context, username string) error {
	var leaveErr error
	err := r.submit(ctx, func() bool {
		leaveErr = r.table.Leave(username)
		return leaveErr == nil
	})
	if err != nil {
		return err
	}
	return leaveErr
}

// Apply submits a gameplay action. A rejected action changes nothing and
// triggers no broadcast.
func (r *Runner) Apply(ctx context.Context, username string, action Action, amount int) error {
	var applyErr error
	err := r.submit(ctx, func() bool {
		applyErr = r.table.Apply(username, action, amount)
		return applyErr == nil
	})
	if err != nil {
		return err
	}
	return applyErr
}

// reschedule aligns the timers with the table state after a command. Runs
// on the runner goroutine.
func (r *Runner) reschedule() {
	t := r.table

	if t.Unavailable() {
		r.stopTimers()
		return
	}

	// Turn timer follows the acting seat. The token changes on every turn
	// assignment, so a seat acting on consecutive streets still gets a
	// fresh clock.
	_, _, ok := t.NextToAct()
	if !ok || r.turnTimeout < 0 {
		r.stopTurnTimer()
	} else if key := t.turnToken(); key != r.turnKey {
		r.stopTurnTimer()
		r.turnKey = key
		r.turnTimer = r.clock.AfterFunc(r.turnTimeout, func() {
			r.expireTurn(key)
		})
	}

	// Deal timer fires once the table can open a hand
	if t.CanStartHand() {
		if r.dealTimer == nil {
			r.dealTimer = r.clock.AfterFunc(r.handDelay, r.deal)
		}
	} else if r.dealTimer != nil {
		r.dealTimer.Stop()
		r.dealTimer = nil
	}
}

// expireTurn acts for a seat that let its clock run out: check when the
// seat owes nothing, fold otherwise.
func (r *Runner) expireTurn(key string) {
	fn := func() bool {
		t := r.table
		username, canCheck, ok := t.NextToAct()
		if !ok || t.turnToken() != key {
			return false // action already happened
		}
		action := Fold
		if canCheck {
			action = Check
		}
		r.logger.Info("turn timed out", "player", username, "action", action)
		if err := t.Apply(username, action, 0); err != nil {
			r.logger.Error("timeout action rejected", "player", username, "error", err)
			return false
		}
		return true
	}
	select {
	case r.commands <- command{fn: fn}:
	case <-r.done:
	}
}

// deal starts the next hand if the table still has quorum when the delay
// elapses
func (r *Runner) deal() {
	fn := func() bool {
		r.dealTimer = nil
		t := r.table
		if !t.CanStartHand() {
			return false
		}
		if err := t.StartHand(); err != nil {
			r.logger.Error("failed to start hand", "error", err)
		}
		return true
	}
	select {
	case r.commands <- command{fn: fn}:
	case <-r.done:
	}
}

func (r *Runner) stopTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	r.turnKey = ""
}

func (r *Runner) stopTimers() {
	r.stopTurnTimer()
	if r.dealTimer != nil {
		r.dealTimer.Stop()
		r.dealTimer = nil
	}
}
