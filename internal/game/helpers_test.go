package game

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/pokeropoly/internal/board"
	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/lox/pokeropoly/internal/randutil"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// testLayout deals a seeded board and pins the given cards in place.
func testLayout(pinned map[int]deck.Card) board.Layout {
	layout := board.Deal(randutil.New(1))
	for pos, c := range pinned {
		layout.Cards[pos] = c
	}
	return layout
}

func testPlayers(n int) []*Player {
	players := make([]*Player, n)
	for i := range players {
		players[i] = &Player{
			UserID:   []string{"alice", "bob", "carol", "dave"}[i],
			Name:     []string{"Alice", "Bob", "Carol", "Dave"}[i],
			Chips:    StartingChips,
			Suit:     deck.Suits[i],
			Position: i * board.SideLength,
		}
	}
	return players
}

func testRoster(n int) []protocol.Player {
	roster := make([]protocol.Player, n)
	for i, p := range testPlayers(n) {
		roster[i] = protocol.Player{
			UserID:        p.UserID,
			PlayerIndex:   i,
			PlayerName:    p.Name,
			Suit:          p.Suit.String(),
			Chips:         p.Chips,
			BoardPosition: p.Position,
		}
	}
	return roster
}

func newTestEngine(layout board.Layout, players ...*Player) (*Engine, *recorder) {
	rec := &recorder{}
	e := NewEngine(EngineConfig{Layout: layout, Players: NewRegistry(players...), Logger: testLogger()})
	e.Events().Subscribe(rec)
	return e, rec
}

type recorder struct {
	mu     sync.Mutex
	events []GameEvent
}

func (r *recorder) OnEvent(ev GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(t EventType) []GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []GameEvent
	for _, ev := range r.events {
		if ev.EventType() == t {
			out = append(out, ev)
		}
	}
	return out
}
