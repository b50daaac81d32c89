// Package server is the WebSocket boundary of the table engine: endpoint
// routing, connection pumps, the table hub, and HCL configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server exposes the hub over HTTP: one WebSocket endpoint per table plus a
// health check.
type Server struct {
	addr     string
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewServer creates a server around a configured hub
func NewServer(addr string, hub *Hub, logger *log.Logger) *Server {
	return &Server{
		addr: addr,
		hub:  hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.WithPrefix("server"),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/game/{table}", s.handleGame)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.hub.Run(ctx)
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// handleGame upgrades a client and subscribes it to a table. The username
// query parameter binds the connection to a player.
func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("table")
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username query parameter required", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ws, s.hub, tableID, username, s.logger)
	if err := s.hub.Subscribe(conn.ctx, tableID, conn); err != nil {
		s.logger.Warn("subscription rejected", "table", tableID, "player", username, "error", err)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	s.logger.Info("client subscribed", "table", tableID, "player", username)
	conn.Start()

	// The seat survives a disconnect; only the subscription is dropped
	go func() {
		<-conn.Done()
		s.hub.Unsubscribe(tableID, conn)
		s.logger.Info("client disconnected", "table", tableID, "player", username)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}
