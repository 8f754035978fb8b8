package hand

import "github.com/lox/pokeropoly/internal/deck"

// Group is one hand extracted by GroupAllHands.
type Group struct {
	Type  Type
	Cards []deck.Card
	Rank  int // Type.Priority()
}

// GroupAllHands greedily peels the best hand off the unused cards until
// nothing above High Card remains, then returns the leftovers as a final
// High Card group. Every input card lands in exactly one group.
func GroupAllHands(cards []deck.Card) []Group {
	remaining := nonEmpty(cards)
	var groups []Group

	for len(remaining) > 0 {
		best, ok := DetectBestHand(remaining)
		if !ok || best.Type == HighCard {
			break
		}
		groups = append(groups, Group{Type: best.Type, Cards: best.Cards, Rank: best.Type.Priority()})
		remaining = consume(remaining, best.Cards)
	}

	if len(remaining) > 0 {
		sortByRankDesc(remaining)
		groups = append(groups, Group{Type: HighCard, Cards: remaining, Rank: HighCard.Priority()})
	}
	return groups
}

// consume removes one instance of each used card from pool.
func consume(pool, used []deck.Card) []deck.Card {
	taken := make([]bool, len(pool))
	for _, u := range used {
		for i, c := range pool {
			if !taken[i] && c == u {
				taken[i] = true
				break
			}
		}
	}
	out := make([]deck.Card, 0, len(pool)-len(used))
	for i, c := range pool {
		if !taken[i] {
			out = append(out, c)
		}
	}
	return out
}
