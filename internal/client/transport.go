// Package client connects a game session to a pokeropoly server: a
// websocket transport for the room's action broadcasts and a REST client
// for the lobby.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/pokeropoly/internal/protocol"
)

var (
	ErrTransportClosed = errors.New("client: transport closed")
	ErrSendBufferFull  = errors.New("client: send buffer full")
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// DeliverFunc receives every envelope broadcast in the room.
type DeliverFunc func(ctx context.Context, env protocol.Envelope) error

// TransportConfig configures a Transport.
type TransportConfig struct {
	ServerURL      string
	RoomID         string
	UserID         string
	Codec          protocol.Codec
	ReconnectDelay time.Duration
	SendBuffer     int
	// Token is sent as a bearer credential when dialing.
	Token string
}

// Transport is the room broadcast channel of one client. Publish only
// enqueues; Run owns the socket and redials after a fixed delay whenever
// the connection fails.
type Transport struct {
	url            string
	header         http.Header
	codec          protocol.Codec
	reconnectDelay time.Duration
	clock          quartz.Clock
	logger         *log.Logger

	outbound  chan protocol.Envelope
	closed    chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	connected bool
}

// NewTransport validates cfg and returns an unconnected transport.
func NewTransport(cfg TransportConfig, clock quartz.Clock, logger *log.Logger) (*Transport, error) {
	u, err := WebSocketURL(cfg.ServerURL, cfg.RoomID, cfg.UserID, cfg.Codec)
	if err != nil {
		return nil, err
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 2 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}
	return &Transport{
		url:            u,
		header:         header,
		codec:          cfg.Codec,
		reconnectDelay: cfg.ReconnectDelay,
		clock:          clock,
		logger:         logger.WithPrefix("transport").With("room", cfg.RoomID),
		outbound:       make(chan protocol.Envelope, cfg.SendBuffer),
		closed:         make(chan struct{}),
	}, nil
}

// WebSocketURL maps an http(s) server URL onto the room's websocket
// endpoint.
func WebSocketURL(serverURL, roomID, userID string, codec protocol.Codec) (string, error) {
	if roomID == "" {
		return "", errors.New("room id is required")
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}

	u.Path = "/ws/" + roomID
	u.RawPath = ""
	q := url.Values{}
	if codec != "" {
		q.Set("codec", string(codec))
	}
	if userID != "" {
		q.Set("user_id", userID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Publish queues env for sending. It never blocks on the network.
func (t *Transport) Publish(ctx context.Context, env protocol.Envelope) error {
	select {
	case <-t.closed:
		return ErrTransportClosed
	default:
	}
	select {
	case t.outbound <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		t.logger.Warn("Send buffer full, dropping action", "type", env.ActionType)
		return ErrSendBufferFull
	}
}

// Close stops Run and drops anything still queued.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// Connected reports whether a socket is currently up.
func (t *Transport) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

func (t *Transport) setConnected(v bool) {
	t.mu.Lock()
	t.connected = v
	t.mu.Unlock()
}

// Run dials the room and passes every received envelope to deliver until
// ctx ends or Close is called.
func (t *Transport) Run(ctx context.Context, deliver DeliverFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-t.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-t.closed:
			return nil
		default:
		}

		err := t.connect(ctx, deliver)
		if ctx.Err() != nil {
			return nil
		}
		t.logger.Error("Connection lost, reconnecting", "error", err, "delay", t.reconnectDelay)

		timer := t.clock.NewTimer(t.reconnectDelay, "transport", "reconnect")
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

// connect serves one socket until it fails.
func (t *Transport) connect(ctx context.Context, deliver DeliverFunc) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	t.setConnected(true)
	t.logger.Info("Connected to server", "url", t.url)
	defer t.setConnected(false)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writeErr := make(chan error, 1)
	go func() {
		err := t.writePump(connCtx, conn)
		cancel()
		writeErr <- err
	}()

	readErr := t.readPump(connCtx, conn, deliver)
	cancel()
	_ = conn.Close()
	if err := <-writeErr; readErr == nil {
		readErr = err
	}
	return readErr
}

func (t *Transport) readPump(ctx context.Context, conn *websocket.Conn, deliver DeliverFunc) error {
	// unblocks ReadMessage when the context ends
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		env, err := protocol.DecodeFrame(messageType == websocket.BinaryMessage, data)
		if err != nil {
			t.logger.Warn("Dropping malformed frame", "error", err)
			continue
		}
		t.logger.Debug("Received action", "type", env.ActionType, "user", env.UserID)
		if err := deliver(ctx, env); err != nil {
			return fmt.Errorf("deliver: %w", err)
		}
	}
}

func (t *Transport) writePump(ctx context.Context, conn *websocket.Conn) error {
	ticker := t.clock.NewTicker(pingPeriod, "transport", "ping")
	defer ticker.Stop()

	frame := websocket.TextMessage
	if t.codec.Binary() {
		frame = websocket.BinaryMessage
	}

	for {
		select {
		case env := <-t.outbound:
			data, err := t.codec.Encode(&env)
			if err != nil {
				t.logger.Error("Failed to encode action", "error", err, "type", env.ActionType)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(frame, data); err != nil {
				return err
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}

		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}
