package hand

import "github.com/lox/pokeropoly/internal/deck"

// aceHigh is the ceiling that rank factors are normalised against.
const aceHigh = int64(deck.Ace)

// CardPrice is the purchase price of a card: 100 chips per rank point,
// 2 → 200 up to A → 1400. Empty or invalid ranks cost nothing.
func CardPrice(r deck.Rank) int {
	if r < deck.Two || r > deck.Ace {
		return 0
	}
	return int(r) * 100
}

// Assessment is the penalty owed for landing on an owned card.
type Assessment struct {
	Amount int
	// Hand is the owner's best hand. HasHand is false when the owner holds
	// no cards at all.
	Hand    Result
	HasHand bool
	// InHand is true when the landed card is part of Hand and Hand beats
	// High Card, i.e. the hand-scaled formula applied.
	InHand bool
}

// Penalty prices landing on card when its owner holds ownerCards. A card
// outside the owner's best hand (or any card when that hand is only High
// Card) costs a quarter of its price. A card inside the best hand costs
// PenaltyForHand of that hand.
func Penalty(card deck.Card, ownerCards []deck.Card) Assessment {
	best, ok := DetectBestHand(ownerCards)
	a := Assessment{Hand: best, HasHand: ok}
	if ok && best.Type != HighCard && best.Contains(card) {
		a.InHand = true
		a.Amount = PenaltyForHand(best)
		return a
	}
	a.Amount = CardPrice(card.Rank) / 4
	return a
}

// PenaltyForHand is floor(baseRent × multiplier × rankFactor) where
// baseRent is a tenth of the summed card prices. High Card scores zero.
func PenaltyForHand(r Result) int {
	if r.Type == HighCard || len(r.Cards) == 0 {
		return 0
	}
	var sum int64
	for _, c := range r.Cards {
		sum += int64(CardPrice(c.Rank))
	}
	m := multipliers[r.Type]
	f := rankFactor(r)
	return int(sum * m.num * f.num / (10 * m.den * f.den))
}

// rankFactor normalises the ranks involved in a hand into [0,1].
func rankFactor(r Result) ratio {
	switch r.Type {
	case RoyalFlush:
		return ratio{1, 1}
	case TwoPair, Flush, StraightFlush:
		var sum int64
		for _, c := range r.Cards {
			sum += int64(c.Rank)
		}
		return ratio{sum, int64(len(r.Cards)) * aceHigh}
	case FullHouse:
		// cards are trips then pair
		trips, pair := int64(r.Cards[0].Rank), int64(r.Cards[3].Rank)
		return ratio{3*trips + 2*pair, 5 * aceHigh}
	case Straight:
		return ratio{int64(straightHigh(r.Cards)), aceHigh}
	default:
		return ratio{int64(r.Cards[0].Rank), aceHigh}
	}
}

var descriptions = map[Type]string{
	RoyalFlush:    "8x multiplier - A, K, Q, J, 10 of same suit",
	StraightFlush: "6x multiplier - 5 consecutive cards of same suit",
	FourOfAKind:   "5x multiplier - 4 cards of same value",
	FullHouse:     "4x multiplier - 3 of a kind + pair",
	Flush:         "3x multiplier - 5 cards of same suit",
	Straight:      "3x multiplier - 5 consecutive cards",
	ThreeOfAKind:  "2.5x multiplier - 3 cards of same value",
	TwoPair:       "2x multiplier - 2 pairs of cards",
	Pair:          "1.5x multiplier - 2 cards of same value",
	HighCard:      "No multiplier - No poker hand",
}

// Describe is a one-line rules summary for a hand type.
func Describe(t Type) string {
	return descriptions[t]
}
