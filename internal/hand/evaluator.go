// Package hand detects poker hands in a player's collected cards and prices
// the chip penalties they produce.
//
// Collections are unordered and may contain empty slots (the zero Card);
// they are not limited to five or seven cards. DetectBestHand reports the
// single strongest hand; GroupAllHands partitions a whole collection into
// disjoint hands, strongest first.
package hand

import (
	"slices"

	"github.com/lox/pokeropoly/internal/deck"
)

// Type is a poker hand category.
type Type int

const (
	HighCard Type = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var typeNames = [...]string{
	HighCard:      "High Card",
	Pair:          "Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
	RoyalFlush:    "Royal Flush",
}

func (t Type) String() string {
	if t < HighCard || t > RoyalFlush {
		return "Unknown"
	}
	return typeNames[t]
}

// Priority ranks hand types from 1 (High Card) to 10 (Royal Flush).
func (t Type) Priority() int {
	return int(t) + 1
}

// ratio is an exact fraction; penalties are floored from these so that
// results never depend on float rounding.
type ratio struct {
	num, den int64
}

var multipliers = [...]ratio{
	HighCard:      {33, 100},
	Pair:          {3, 2},
	TwoPair:       {2, 1},
	ThreeOfAKind:  {5, 2},
	Straight:      {3, 1},
	Flush:         {3, 1},
	FullHouse:     {4, 1},
	FourOfAKind:   {5, 1},
	StraightFlush: {6, 1},
	RoyalFlush:    {8, 1},
}

// Multiplier is the penalty multiplier of the hand type (8x for a Royal
// Flush down to 0.33x for High Card).
func (t Type) Multiplier() float64 {
	m := multipliers[t]
	return float64(m.num) / float64(m.den)
}

// Result is a detected hand and the cards that make it.
type Result struct {
	Type  Type
	Cards []deck.Card
}

// Multiplier is shorthand for r.Type.Multiplier().
func (r Result) Multiplier() float64 {
	return r.Type.Multiplier()
}

// Contains reports whether c is one of the cards forming the hand.
func (r Result) Contains(c deck.Card) bool {
	return slices.Contains(r.Cards, c)
}

// DetectBestHand returns the strongest hand that can be formed from cards.
// Empty slots are ignored; ok is false when no real card is present.
//
// Pairs, trips and quads use only the cards of the matched rank. When
// several groups qualify the highest-ranked one is chosen. Straights treat
// the Ace as both 14 and the low end of A-2-3-4-5.
func DetectBestHand(cards []deck.Card) (Result, bool) {
	valid := nonEmpty(cards)
	if len(valid) == 0 {
		return Result{}, false
	}
	sortByRankDesc(valid)

	bySuit := make(map[deck.Suit][]deck.Card)
	for _, c := range valid {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}
	groups := rankGroups(valid)

	if sf, ok := bestStraightFlush(bySuit); ok {
		if sf[0].Rank == deck.Ace {
			return Result{Type: RoyalFlush, Cards: sf}, true
		}
		return Result{Type: StraightFlush, Cards: sf}, true
	}

	if quads := highestGroup(groups, 4, 0); quads != nil {
		return Result{Type: FourOfAKind, Cards: quads}, true
	}

	trips := highestGroup(groups, 3, 0)
	if trips != nil {
		if pair := highestGroup(groups, 2, trips[0].Rank); pair != nil {
			return Result{Type: FullHouse, Cards: append(trips, pair...)}, true
		}
	}

	if fl, ok := bestFlush(bySuit); ok {
		return Result{Type: Flush, Cards: fl}, true
	}

	if st, ok := findStraight(valid); ok {
		return Result{Type: Straight, Cards: st}, true
	}

	if trips != nil {
		return Result{Type: ThreeOfAKind, Cards: trips}, true
	}

	if high := highestGroup(groups, 2, 0); high != nil {
		if low := highestGroup(groups, 2, high[0].Rank); low != nil {
			return Result{Type: TwoPair, Cards: append(high, low...)}, true
		}
		return Result{Type: Pair, Cards: high}, true
	}

	return Result{Type: HighCard, Cards: slices.Clone(valid[:1])}, true
}

func nonEmpty(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, 0, len(cards))
	for _, c := range cards {
		if !c.IsEmpty() {
			out = append(out, c)
		}
	}
	return out
}

func sortByRankDesc(cards []deck.Card) {
	slices.SortStableFunc(cards, func(a, b deck.Card) int {
		return int(b.Rank) - int(a.Rank)
	})
}

// rankGroups buckets rank-sorted cards by rank, highest rank first.
func rankGroups(sorted []deck.Card) [][]deck.Card {
	var groups [][]deck.Card
	for _, c := range sorted {
		n := len(groups)
		if n > 0 && groups[n-1][0].Rank == c.Rank {
			groups[n-1] = append(groups[n-1], c)
			continue
		}
		groups = append(groups, []deck.Card{c})
	}
	return groups
}

// highestGroup returns size cards of the highest-ranked group holding at
// least size cards, skipping rank skip. The result is a fresh slice.
func highestGroup(groups [][]deck.Card, size int, skip deck.Rank) []deck.Card {
	for _, g := range groups {
		if g[0].Rank != skip && len(g) >= size {
			return slices.Clone(g[:size])
		}
	}
	return nil
}

// findStraight returns five cards forming the highest straight, high card
// first. The wheel is returned as 5-4-3-2-A.
func findStraight(sorted []deck.Card) ([]deck.Card, bool) {
	if len(sorted) < 5 {
		return nil, false
	}
	byRank := make(map[deck.Rank]deck.Card)
	for _, c := range sorted {
		if _, ok := byRank[c.Rank]; !ok {
			byRank[c.Rank] = c
		}
	}

	for top := deck.Ace; top >= deck.Six; top-- {
		run := make([]deck.Card, 0, 5)
		for r := top; r > top-5; r-- {
			c, ok := byRank[r]
			if !ok {
				break
			}
			run = append(run, c)
		}
		if len(run) == 5 {
			return run, true
		}
	}

	wheel := make([]deck.Card, 0, 5)
	for _, r := range []deck.Rank{deck.Five, deck.Four, deck.Three, deck.Two, deck.Ace} {
		c, ok := byRank[r]
		if !ok {
			return nil, false
		}
		wheel = append(wheel, c)
	}
	return wheel, true
}

func bestStraightFlush(bySuit map[deck.Suit][]deck.Card) ([]deck.Card, bool) {
	var best []deck.Card
	for _, suit := range deck.Suits {
		cards := bySuit[suit]
		if len(cards) < 5 {
			continue
		}
		run, ok := findStraight(cards)
		if ok && (best == nil || straightHigh(run) > straightHigh(best)) {
			best = run
		}
	}
	return best, best != nil
}

func bestFlush(bySuit map[deck.Suit][]deck.Card) ([]deck.Card, bool) {
	var best []deck.Card
	for _, suit := range deck.Suits {
		cards := bySuit[suit]
		if len(cards) < 5 {
			continue
		}
		top := cards[:5]
		if best == nil || compareRanks(top, best) > 0 {
			best = top
		}
	}
	if best == nil {
		return nil, false
	}
	return slices.Clone(best), true
}

// straightHigh is the top rank of a straight; the wheel tops out at 5.
func straightHigh(run []deck.Card) deck.Rank {
	if run[0].Rank == deck.Five && run[4].Rank == deck.Ace {
		return deck.Five
	}
	return run[0].Rank
}

func compareRanks(a, b []deck.Card) int {
	for i := range min(len(a), len(b)) {
		if a[i].Rank != b[i].Rank {
			return int(a[i].Rank) - int(b[i].Rank)
		}
	}
	return len(a) - len(b)
}
