// Package board holds the fixed 64-space layout shared by every client and
// deals the card spaces at game start.
package board

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/lox/pokeropoly/internal/deck"
)

const (
	// Spaces is the number of board spaces; positions wrap modulo Spaces.
	Spaces = 64
	// SideLength is the distance between corners.
	SideLength = 16
	// JokerCount is how many mystery spaces are marked as jokers per game.
	JokerCount = 2
)

// Corners are safe spaces, one per suit, in Spades/Hearts/Diamonds/Clubs order.
var Corners = [4]int{0, 16, 32, 48}

// MysterySpaces grant a wildcard instead of holding a card.
var MysterySpaces = [8]int{5, 11, 21, 27, 37, 43, 53, 59}

// Kind classifies a board space.
type Kind int

const (
	CardSpace Kind = iota
	Corner
	Mystery
)

func (k Kind) String() string {
	switch k {
	case Corner:
		return "corner"
	case Mystery:
		return "mystery"
	default:
		return "card"
	}
}

// Wrap maps any integer onto [0, Spaces).
func Wrap(pos int) int {
	pos %= Spaces
	if pos < 0 {
		pos += Spaces
	}
	return pos
}

// Classify reports what kind of space pos is. pos is wrapped first.
func Classify(pos int) Kind {
	pos = Wrap(pos)
	if pos%SideLength == 0 {
		return Corner
	}
	if slices.Contains(MysterySpaces[:], pos) {
		return Mystery
	}
	return CardSpace
}

// CornerSuit returns the suit a corner space belongs to.
func CornerSuit(pos int) (deck.Suit, bool) {
	pos = Wrap(pos)
	if Classify(pos) != Corner {
		return 0, false
	}
	return deck.Suits[pos/SideLength], true
}

// CardSpaces lists every card-holding position in ascending order.
func CardSpaces() []int {
	out := make([]int, 0, Spaces-len(Corners)-len(MysterySpaces))
	for pos := range Spaces {
		if Classify(pos) == CardSpace {
			out = append(out, pos)
		}
	}
	return out
}

// Layout is the dealt state of a board: which card sits on each card space
// and which mystery spaces carry a joker marker.
type Layout struct {
	Cards          map[int]deck.Card `json:"dealtCards"`
	JokerPositions []int             `json:"jokerPositions"`
}

// CardAt returns the card dealt to pos, if any.
func (l Layout) CardAt(pos int) (deck.Card, bool) {
	c, ok := l.Cards[Wrap(pos)]
	return c, ok && !c.IsEmpty()
}

// IsJoker reports whether pos is one of the marked mystery spaces.
func (l Layout) IsJoker(pos int) bool {
	return slices.Contains(l.JokerPositions, Wrap(pos))
}

// Validate checks that a layout received from storage matches the board:
// every card space holds exactly one distinct card.
func (l Layout) Validate() error {
	seen := make(map[deck.Card]int, len(l.Cards))
	for _, pos := range CardSpaces() {
		c, ok := l.CardAt(pos)
		if !ok {
			return fmt.Errorf("no card dealt at position %d", pos)
		}
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("card %s dealt twice (positions %d and %d)", c, prev, pos)
		}
		seen[c] = pos
	}
	if len(l.Cards) != len(seen) {
		return fmt.Errorf("cards dealt outside card spaces")
	}
	for _, pos := range l.JokerPositions {
		if Classify(pos) != Mystery {
			return fmt.Errorf("joker at non-mystery position %d", pos)
		}
	}
	return nil
}

// Deal shuffles a fresh deck over the card spaces and picks the joker
// mystery spaces.
func Deal(rng *rand.Rand) Layout {
	shuffled := deck.Shuffled(rng)

	cards := make(map[int]deck.Card, deck.Size)
	for i, pos := range CardSpaces() {
		cards[pos] = shuffled[i]
	}

	mystery := slices.Clone(MysterySpaces[:])
	rng.Shuffle(len(mystery), func(i, j int) {
		mystery[i], mystery[j] = mystery[j], mystery[i]
	})
	jokers := mystery[:JokerCount]
	slices.Sort(jokers)

	return Layout{Cards: cards, JokerPositions: jokers}
}
