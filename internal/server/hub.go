package server

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/pokeropoly/internal/protocol"
)

// ErrHubClosed is returned once the hub loop has stopped.
var ErrHubClosed = errors.New("server: hub closed")

// Recorder receives every envelope the hub relays.
type Recorder interface {
	Record(roomID string, env protocol.Envelope)
}

// RoomStats are the relay counters of one room.
type RoomStats struct {
	Subscribers int                         `json:"subscribers"`
	Relayed     map[protocol.ActionType]int `json:"relayed"`
	Dropped     int                         `json:"dropped"`
}

type roomMessage struct {
	roomID string
	env    protocol.Envelope
}

type room struct {
	subscribers map[*Connection]struct{}
	relayed     map[protocol.ActionType]int
	dropped     int
}

// Hub fans every action published in a room out to all of the room's
// subscribers, the sender included. Delivery is at most once: a subscriber
// whose queue is full is disconnected.
type Hub struct {
	logger   *log.Logger
	recorder Recorder

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan roomMessage
	done       chan struct{}

	mu    sync.RWMutex
	rooms map[string]*room
}

// NewHub creates a hub. recorder may be nil.
func NewHub(logger *log.Logger, recorder Recorder) *Hub {
	return &Hub{
		logger:     logger.WithPrefix("hub"),
		recorder:   recorder,
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan roomMessage, 256),
		done:       make(chan struct{}),
		rooms:      make(map[string]*room),
	}
}

// Run owns room membership until ctx ends, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c, "disconnected")
		case msg := <-h.broadcast:
			h.fanOut(msg)
		case <-ctx.Done():
			h.closeAll()
			return nil
		}
	}
}

// Register subscribes c to its room.
func (h *Hub) Register(ctx context.Context, c *Connection) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unregister removes c from its room.
func (h *Hub) Unregister(ctx context.Context, c *Connection) {
	select {
	case h.unregister <- c:
	case <-h.done:
	case <-ctx.Done():
	}
}

// Publish queues env for every subscriber of roomID.
func (h *Hub) Publish(ctx context.Context, roomID string, env protocol.Envelope) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- roomMessage{roomID: roomID, env: env}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribers counts the connections subscribed to roomID.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.rooms[roomID]; ok {
		return len(r.subscribers)
	}
	return 0
}

// Stats returns a copy of roomID's counters.
func (h *Hub) Stats(roomID string) RoomStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := RoomStats{Relayed: make(map[protocol.ActionType]int)}
	r, ok := h.rooms[roomID]
	if !ok {
		return stats
	}
	stats.Subscribers = len(r.subscribers)
	stats.Dropped = r.dropped
	for k, v := range r.relayed {
		stats.Relayed[k] = v
	}
	return stats
}

func (h *Hub) add(c *Connection) {
	h.mu.Lock()
	r, ok := h.rooms[c.roomID]
	if !ok {
		r = &room{subscribers: make(map[*Connection]struct{}), relayed: make(map[protocol.ActionType]int)}
		h.rooms[c.roomID] = r
	}
	r.subscribers[c] = struct{}{}
	total := len(r.subscribers)
	h.mu.Unlock()

	h.logger.Info("Client subscribed", "room", c.roomID, "user", c.userID, "codec", c.codec, "total", total)
}

// remove unsubscribes c and closes its send queue. It is a no-op for a
// connection that is no longer subscribed.
func (h *Hub) remove(c *Connection, reason string) {
	h.mu.Lock()
	r, ok := h.rooms[c.roomID]
	if ok {
		if _, subscribed := r.subscribers[c]; !subscribed {
			ok = false
		}
	}
	if ok {
		delete(r.subscribers, c)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Info("Client unsubscribed", "room", c.roomID, "user", c.userID, "reason", reason)
	}
}

func (h *Hub) fanOut(msg roomMessage) {
	h.mu.Lock()
	r, ok := h.rooms[msg.roomID]
	if !ok {
		h.mu.Unlock()
		h.logger.Debug("Dropping action for empty room", "room", msg.roomID, "type", msg.env.ActionType)
		return
	}
	r.relayed[msg.env.ActionType]++

	var slow []*Connection
	for c := range r.subscribers {
		select {
		case c.send <- msg.env:
		default:
			slow = append(slow, c)
		}
	}
	r.dropped += len(slow)
	count := len(r.subscribers) - len(slow)
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("Subscriber queue full, disconnecting", "room", c.roomID, "user", c.userID)
		h.remove(c, "slow")
		_ = c.Close()
	}
	if h.recorder != nil {
		h.recorder.Record(msg.roomID, msg.env)
	}
	h.logger.Debug("Relayed action", "room", msg.roomID, "type", msg.env.ActionType, "recipients", count)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	var all []*Connection
	for _, r := range h.rooms {
		for c := range r.subscribers {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		h.remove(c, "shutdown")
		_ = c.Close()
	}
}
