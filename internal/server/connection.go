package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound snapshots buffered per subscriber before the oldest is dropped
	sendBufferSize = 32
)

// Connection is one client's WebSocket subscription to one table
type Connection struct {
	ws       *websocket.Conn
	hub      *Hub
	tableID  string
	username string
	logger   *log.Logger

	send      chan *GameState
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu          sync.Mutex
	chips       int
	avatarColor string
}

// newConnection wraps an upgraded WebSocket bound to a username and table
func newConnection(ws *websocket.Conn, hub *Hub, tableID, username string, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ws:       ws,
		hub:      hub,
		tableID:  tableID,
		username: username,
		logger:   logger.WithPrefix("conn").With("table", tableID, "player", username),
		send:     make(chan *GameState, sendBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Username returns the authenticated player name
func (c *Connection) Username() string { return c.username }

// Close tears the connection down once
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.ws.Close()
	})
	return err
}

// setProfile caches the viewer's bankroll and avatar color
func (c *Connection) setProfile(chips int, avatarColor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chips = chips
	c.avatarColor = avatarColor
}

// Chips returns the cached bankroll rendered as total_user_chips
func (c *Connection) Chips() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chips
}

// addChips folds a settled hand delta into the cached bankroll
func (c *Connection) addChips(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chips += delta
}

// AvatarColor returns the cached avatar color from the profile
func (c *Connection) AvatarColor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avatarColor
}

// Send queues a snapshot for delivery. A slow reader never blocks the
// caller: when the buffer is full the oldest queued snapshot is dropped,
// which is safe because every snapshot is complete.
func (c *Connection) Send(state *GameState) {
	for {
		select {
		case c.send <- state:
			return
		case <-c.ctx.Done():
			return
		default:
		}
		select {
		case dropped := <-c.send:
			c.logger.Debug("send buffer full, dropping stale snapshot", "phase", dropped.CurrentPhase)
		default:
		}
	}
}

// Start runs the read and write pumps
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done closes when the connection has shut down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// readPump parses inbound actions and forwards them to the hub
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var action GameAction
		if err := c.ws.ReadJSON(&action); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}

		c.hub.HandleAction(c.ctx, c, action)
	}
}

// writePump delivers queued snapshots and keeps the connection alive
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case state := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(state); err != nil {
				c.logger.Error("failed to write snapshot", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
