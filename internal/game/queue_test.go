package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeApplier records what it applies and can start a "move" on RollDice.
type fakeApplier struct {
	applied []Action
	moving  bool
	fail    map[int]error
	panicOn int
}

func (f *fakeApplier) Apply(sender int, a Action) error {
	f.applied = append(f.applied, a)
	if f.panicOn > 0 && len(f.applied) == f.panicOn {
		panic("boom")
	}
	if _, ok := a.(RollDice); ok {
		f.moving = true
	}
	return f.fail[len(f.applied)]
}

func (f *fakeApplier) Moving() bool {
	return f.moving
}

func TestQueueDrainsInOrder(t *testing.T) {
	q := NewQueue(testLogger())
	q.Push(1, PlaceBid{Amount: 1})
	q.Push(2, PlaceBid{Amount: 2})
	q.Push(0, EndTurn{NextPlayerIndex: 1})

	dst := &fakeApplier{}
	assert.Equal(t, 0, q.Drain(dst))
	assert.Equal(t, []Action{PlaceBid{Amount: 1}, PlaceBid{Amount: 2}, EndTurn{NextPlayerIndex: 1}}, dst.applied)
	assert.False(t, q.Processing())
}

func TestQueueStopsWhenMoveStarts(t *testing.T) {
	q := NewQueue(testLogger())
	q.Push(0, RollDice{Total: 4})
	q.Push(0, BuyCard{Position: 4})

	dst := &fakeApplier{}
	assert.Equal(t, 1, q.Drain(dst))
	assert.Len(t, dst.applied, 1)

	// still moving: nothing is applied
	assert.Equal(t, 1, q.Drain(dst))
	assert.Len(t, dst.applied, 1)

	dst.moving = false
	assert.Equal(t, 0, q.Drain(dst))
	assert.Equal(t, BuyCard{Position: 4}, dst.applied[1])
}

func TestQueueSkipsFailuresAndPanics(t *testing.T) {
	q := NewQueue(testLogger())
	for i := range 4 {
		q.Push(0, PlaceBid{Amount: i + 1})
	}

	dst := &fakeApplier{fail: map[int]error{1: errors.New("nope"), 2: ErrAlreadyOwned}, panicOn: 3}
	require.NotPanics(t, func() { q.Drain(dst) })
	assert.Len(t, dst.applied, 4)
	assert.Zero(t, q.Len())
	assert.False(t, q.Processing())
}

func TestQueueReset(t *testing.T) {
	q := NewQueue(testLogger())
	q.Push(0, EndTurn{})
	q.Reset()
	assert.Zero(t, q.Len())
}

func TestQueueAgainstEngine(t *testing.T) {
	players := testPlayers(2)
	e, _ := newTestEngine(testLayout(nil), players...)
	q := NewQueue(testLogger())

	q.Push(0, RollDice{Total: 3})
	q.Push(0, EndTurn{NextPlayerIndex: 1})
	q.Drain(e)
	require.True(t, e.Moving())
	assert.Equal(t, 1, q.Len())

	e.FinishMove()
	q.Drain(e)
	assert.Equal(t, 3, players[0].Position)
	assert.Equal(t, 1, e.Turn().Current)
}

func TestQueueSkipsOutOfRangeRoll(t *testing.T) {
	players := testPlayers(2)
	e, _ := newTestEngine(testLayout(nil), players...)
	q := NewQueue(testLogger())

	q.Push(0, RollDice{Total: 1 << 30})
	q.Push(0, EndTurn{NextPlayerIndex: 1})
	q.Drain(e)

	assert.False(t, e.Moving())
	assert.Zero(t, q.Len())
	assert.Zero(t, players[0].Position)
	assert.Equal(t, 1, e.Turn().Current)
}
