// Package server relays turn actions between the clients of a room and
// serves the lobby API that creates, joins and starts rooms.
//
// The server never validates game actions. Every action a client sends on
// /ws/{room} is fanned out to all of that room's subscribers, the sender
// included; clients reconcile state themselves.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/pokeropoly/internal/auth"
	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/lox/pokeropoly/internal/store"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server ties the hub, the lobby store and the HTTP listener together.
type Server struct {
	addr       string
	sendBuffer int
	store      store.Store
	hub        *Hub
	upgrader   websocket.Upgrader
	logger     *log.Logger

	validator auth.Validator
	failOpen  bool
}

// Option configures a Server.
type Option func(*Server)

// WithValidator requires a valid player token on every request that acts
// for a user. With failOpen, requests are admitted while the validator
// reports ErrUnavailable.
func WithValidator(v auth.Validator, failOpen bool) Option {
	return func(s *Server) {
		s.validator = v
		s.failOpen = failOpen
	}
}

// New creates a server. recorder may be nil.
func New(cfg *Config, st store.Store, recorder Recorder, logger *log.Logger, opts ...Option) *Server {
	logger = logger.WithPrefix("server")
	s := &Server{
		addr:       cfg.ListenAddress(),
		sendBuffer: cfg.Server.SendBuffer,
		store:      st,
		hub:        NewHub(logger, recorder),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub exposes the broadcast hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP routes without starting the hub loop.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Run serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.hub.Run(ctx)
	})
	g.Go(func() error {
		s.logger.Info("Starting server", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	codec, err := protocol.ParseCodec(r.URL.Query().Get("codec"))
	if err != nil {
		s.respond(w, http.StatusBadRequest, protocol.Error{Code: "bad_codec", Message: err.Error()})
		return
	}

	userID := r.URL.Query().Get("user_id")
	if !s.identify(w, r, &userID) {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	// The request context ends when this handler returns; the pumps live
	// until the peer or the hub goes away.
	c := NewConnection(conn, s.hub, roomID, userID, codec, s.sendBuffer, s.logger)
	if err := c.Start(context.WithoutCancel(r.Context())); err != nil {
		s.logger.Debug("Connection not registered", "room", roomID, "error", err)
	}
}

// identify settles the user a request acts for. Without a validator the
// claimed id is trusted; with one, the token's identity replaces it. When
// identify returns false the error response has been written.
func (s *Server) identify(w http.ResponseWriter, r *http.Request, userID *string) bool {
	if s.validator == nil {
		return true
	}

	identity, err := s.validator.Validate(r.Context(), auth.BearerToken(r))
	switch {
	case err == nil && identity != nil:
		if *userID != "" && *userID != identity.UserID {
			s.logger.Debug("Replacing claimed user id", "claimed", *userID, "user", identity.UserID)
		}
		*userID = identity.UserID
		return true
	case err == nil:
		return true
	case errors.Is(err, auth.ErrUnavailable) && s.failOpen:
		s.logger.Warn("Identity service unavailable, admitting request", "error", err)
		return true
	case errors.Is(err, auth.ErrUnavailable):
		s.logger.Error("Identity service unavailable", "error", err)
		s.respond(w, http.StatusServiceUnavailable, protocol.Error{Code: "auth_unavailable", Message: err.Error()})
		return false
	default:
		s.respond(w, http.StatusUnauthorized, protocol.Error{Code: "unauthorized", Message: err.Error()})
		return false
	}
}
