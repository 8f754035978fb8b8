package game

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Applier is what the queue drains into.
type Applier interface {
	Apply(sender int, a Action) error
	Moving() bool
}

type queued struct {
	sender int
	action Action
}

// Queue buffers remote actions in arrival order and drains them one at a
// time. A drain never runs while a move is in flight, and stops as soon as
// an applied action starts one.
type Queue struct {
	logger     *log.Logger
	items      []queued
	processing bool
}

// NewQueue creates an empty queue.
func NewQueue(logger *log.Logger) *Queue {
	return &Queue{logger: logger.WithPrefix("queue")}
}

// Push appends an action from sender.
func (q *Queue) Push(sender int, a Action) {
	q.items = append(q.items, queued{sender: sender, action: a})
}

// Len is the number of buffered actions.
func (q *Queue) Len() int {
	return len(q.items)
}

// Processing reports whether a drain is running.
func (q *Queue) Processing() bool {
	return q.processing
}

// Reset drops every buffered action.
func (q *Queue) Reset() {
	q.items = nil
	q.processing = false
}

// Drain applies buffered actions in order. A failing or panicking action is
// logged and skipped. It returns the number of actions left, which is
// non-zero only when a move started or a drain was already running.
func (q *Queue) Drain(dst Applier) int {
	if q.processing || dst.Moving() {
		return len(q.items)
	}
	q.processing = true
	defer func() { q.processing = false }()

	for len(q.items) > 0 {
		if dst.Moving() {
			q.logger.Debug("movement in progress, deferring queue", "remaining", len(q.items))
			break
		}
		item := q.items[0]
		q.items[0] = queued{}
		q.items = q.items[1:]
		q.apply(dst, item)
	}
	return len(q.items)
}

func (q *Queue) apply(dst Applier, item queued) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("action panicked", "type", item.action.Type(), "sender", item.sender, "panic", fmt.Sprint(r))
		}
	}()

	err := dst.Apply(item.sender, item.action)
	switch {
	case err == nil:
		q.logger.Debug("applied", "type", item.action.Type(), "sender", item.sender)
	case isNoop(err):
		q.logger.Debug("ignored", "type", item.action.Type(), "sender", item.sender, "reason", err)
	default:
		q.logger.Warn("action failed", "type", item.action.Type(), "sender", item.sender, "error", err)
	}
}
