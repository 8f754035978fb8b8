package deck

import rand "math/rand/v2"

// Size is the number of cards in a standard deck without jokers.
const Size = 52

// Standard returns the 52 cards in suit then rank order.
func Standard() []Card {
	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// Shuffled returns a standard deck permuted by rng. The same seed always
// yields the same order, which is what makes a seeded board replayable.
func Shuffled(rng *rand.Rand) []Card {
	cards := Standard()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
