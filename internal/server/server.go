// Package server is the real-time transport adapter: a gorilla/websocket
// gateway translating socket events into room manager commands.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hearttiles/hearttiles-server/internal/config"
	"github.com/hearttiles/hearttiles-server/internal/room"
	"github.com/hearttiles/hearttiles-server/internal/session"
)

// Server accepts websocket connections and dispatches game commands.
type Server struct {
	cfg      config.ServerConfig
	logger   *zap.Logger
	rooms    *room.Manager
	sessions *session.Manager
	limiter  *session.ConnLimiter
	hub      *Hub
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer wires the gateway.
func NewServer(cfg config.ServerConfig, rooms *room.Manager, sessions *session.Manager, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		rooms:    rooms,
		sessions: sessions,
		limiter:  session.NewConnLimiter(cfg.MaxConnectionsPerAddress),
		hub:      NewHub(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.httpSrv = &http.Server{Addr: cfg.Address, Handler: mux}
	return s
}

// ListenAndServe runs the gateway until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("websocket server listening", zap.String("address", s.cfg.Address))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains the HTTP server and closes all clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.CloseAll()
	return s.httpSrv.Shutdown(ctx)
}

// handleWS upgrades a connection, enforcing the per-address ceiling, and
// starts the client's read and write pumps.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	addr := sourceAddr(r)
	if !s.limiter.Acquire(addr) {
		s.logger.Warn("connection rejected, per-address ceiling reached", zap.String("addr", addr))
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.limiter.Release(addr)
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// An existing userId query parameter re-attaches a reconnecting player;
	// otherwise a fresh identity is minted.
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = session.NewUserID()
	}

	client := newClient(s, conn, userID, addr)
	s.hub.Register(client)

	client.sendEvent("connected", map[string]any{"userId": userID})

	go client.writePump()
	go client.readPump()
}

func sourceAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientContext bounds the store writes triggered by one socket command.
func clientContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
