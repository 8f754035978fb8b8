package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/pokeropoly/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection is one websocket subscriber of a room. Frames it reads are
// published to the room; envelopes the hub queues on send are written back
// in the connection's codec.
type Connection struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan protocol.Envelope
	roomID string
	userID string
	codec  protocol.Codec
	logger *log.Logger

	closeOnce sync.Once
}

// NewConnection wraps conn for roomID. The send queue holds buffer envelopes.
func NewConnection(conn *websocket.Conn, hub *Hub, roomID, userID string, codec protocol.Codec, buffer int, logger *log.Logger) *Connection {
	return &Connection{
		conn:   conn,
		hub:    hub,
		send:   make(chan protocol.Envelope, buffer),
		roomID: roomID,
		userID: userID,
		codec:  codec,
		logger: logger.WithPrefix("conn").With("room", roomID),
	}
}

// Start registers with the hub and runs the pumps until the peer goes away
// or ctx ends.
func (c *Connection) Start(ctx context.Context) error {
	if err := c.hub.Register(ctx, c); err != nil {
		_ = c.Close()
		return err
	}
	go c.writePump()
	go c.readPump(ctx)
	return nil
}

// Close closes the underlying socket. The send queue belongs to the hub.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// readPump publishes every decoded frame to the room
func (c *Connection) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(ctx, c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		env, err := protocol.DecodeFrame(messageType == websocket.BinaryMessage, data)
		if err != nil {
			c.logger.Warn("Dropping malformed frame", "error", err, "bytes", len(data))
			continue
		}
		if err := c.hub.Publish(ctx, c.roomID, env); err != nil {
			return
		}
	}
}

// writePump writes queued envelopes and keeps the peer alive with pings
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	frame := websocket.TextMessage
	if c.codec.Binary() {
		frame = websocket.BinaryMessage
	}

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := c.codec.Encode(&env)
			if err != nil {
				c.logger.Error("Failed to encode envelope", "error", err, "type", env.ActionType)
				continue
			}
			if err := c.conn.WriteMessage(frame, data); err != nil {
				c.logger.Debug("Write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
