package game

import (
	"slices"

	"github.com/lox/pokeropoly/internal/protocol"
)

// ResolveIndex clamps requested into [0, length-1], or 0 for an empty
// roster. The result is always some valid seat, not necessarily the seat
// the sender meant.
func ResolveIndex(requested, length int) int {
	if length <= 0 {
		return 0
	}
	return min(max(requested, 0), length-1)
}

// Registry is the single authoritative roster. Display layers read
// snapshots of it; nothing writes player state anywhere else.
type Registry struct {
	players []*Player
}

// NewRegistry seats players in the given order.
func NewRegistry(players ...*Player) *Registry {
	return &Registry{players: players}
}

// RegistryFromRoster seats lobby players ordered by their player index.
func RegistryFromRoster(roster []protocol.Player) *Registry {
	sorted := slices.Clone(roster)
	slices.SortStableFunc(sorted, func(a, b protocol.Player) int {
		return a.PlayerIndex - b.PlayerIndex
	})
	r := &Registry{players: make([]*Player, 0, len(sorted))}
	for _, rp := range sorted {
		r.players = append(r.players, PlayerFromRoster(rp))
	}
	return r
}

// Len is the roster length.
func (r *Registry) Len() int {
	return len(r.players)
}

// Resolve clamps requested against the current roster.
func (r *Registry) Resolve(requested int) int {
	return ResolveIndex(requested, len(r.players))
}

// At returns the player at the clamped index, or nil for an empty roster.
func (r *Registry) At(requested int) (int, *Player) {
	if len(r.players) == 0 {
		return 0, nil
	}
	idx := r.Resolve(requested)
	return idx, r.players[idx]
}

// IndexOf finds a player by user id, or -1.
func (r *Registry) IndexOf(userID string) int {
	return slices.IndexFunc(r.players, func(p *Player) bool {
		return p.UserID == userID
	})
}

// TotalChips sums every balance.
func (r *Registry) TotalChips() int {
	total := 0
	for _, p := range r.players {
		total += p.Chips
	}
	return total
}

// Snapshot deep-copies the roster.
func (r *Registry) Snapshot() []Player {
	out := make([]Player, len(r.players))
	for i, p := range r.players {
		out[i] = p.clone()
	}
	return out
}

// Reset empties the roster.
func (r *Registry) Reset() {
	r.players = nil
}
