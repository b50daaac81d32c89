package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

const (
	commitBackoffBase = time.Second
	commitBackoffMax  = 30 * time.Second
)

// commit is one player's pending net chip change from a settled hand
type commit struct {
	handID   string
	username string
	delta    int
	attempts int
}

// Committer drains hand results into the adapter off the gameplay path.
// Failed commits are held in memory and retried with exponential backoff on
// the injected clock; a persistence outage never surfaces as a gameplay
// error and never re-opens a settled pot.
type Committer struct {
	adapter Adapter
	logger  *log.Logger
	clock   quartz.Clock

	mu    sync.Mutex
	queue []commit
	wake  chan struct{}
}

// NewCommitter creates a committer writing through the given adapter
func NewCommitter(adapter Adapter, logger *log.Logger, clock quartz.Clock) *Committer {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Committer{
		adapter: adapter,
		logger:  logger.WithPrefix("committer"),
		clock:   clock,
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue records a settled hand's chip deltas for asynchronous commit.
// Zero deltas are skipped. Never blocks.
func (c *Committer) Enqueue(handID string, deltas map[string]int) {
	c.mu.Lock()
	for username, delta := range deltas {
		if delta == 0 {
			continue
		}
		c.queue = append(c.queue, commit{handID: handID, username: username, delta: delta})
	}
	pending := len(c.queue)
	c.mu.Unlock()

	c.logger.Debug("hand result queued", "hand", handID, "pending", pending)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many commits are still waiting on the adapter
func (c *Committer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Run drains the queue until the context is canceled. Commits apply in
// enqueue order; a failing commit blocks the queue behind its backoff so
// per-player deltas land in hand order.
func (c *Committer) Run(ctx context.Context) error {
	for {
		item, ok := c.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.wake:
			}
			continue
		}

		if err := c.adapter.CommitChipDelta(ctx, item.username, item.delta); err != nil {
			item.attempts++
			wait := backoff(item.attempts)
			c.logger.Error("chip commit failed, retrying",
				"hand", item.handID, "player", item.username, "delta", item.delta,
				"attempt", item.attempts, "backoff", wait, "error", err)
			c.requeue(item)

			timer := c.clock.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}

		c.logger.Debug("chip delta committed",
			"hand", item.handID, "player", item.username, "delta", item.delta)
	}
}

// pop takes the head of the queue
func (c *Committer) pop() (commit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return commit{}, false
	}
	item := c.queue[0]
	c.queue = c.queue[1:]
	return item, true
}

// requeue puts a failed commit back at the head so ordering holds
func (c *Committer) requeue(item commit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append([]commit{item}, c.queue...)
}

// backoff doubles per attempt from the base, capped at the maximum
func backoff(attempts int) time.Duration {
	wait := commitBackoffBase << (attempts - 1)
	if wait > commitBackoffMax || wait <= 0 {
		wait = commitBackoffMax
	}
	return wait
}
