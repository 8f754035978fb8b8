package hand

import (
	"testing"

	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupAllHands(t *testing.T) {
	groups := GroupAllHands(deck.MustParseCards("KsKh7d7c7h2s9c"))
	require.Len(t, groups, 2)

	assert.Equal(t, FullHouse, groups[0].Type)
	assert.Equal(t, FullHouse.Priority(), groups[0].Rank)
	assert.ElementsMatch(t, deck.MustParseCards("7d7c7hKsKh"), groups[0].Cards)

	assert.Equal(t, HighCard, groups[1].Type)
	assert.Equal(t, deck.MustParseCards("9c2s"), groups[1].Cards)
}

func TestGroupAllHandsPeelsRepeatedly(t *testing.T) {
	groups := GroupAllHands(deck.MustParseCards("AsAhKsKh3c"))
	require.Len(t, groups, 2)
	assert.Equal(t, TwoPair, groups[0].Type)
	assert.Equal(t, HighCard, groups[1].Type)

	groups = GroupAllHands(deck.MustParseCards("AsAhKsKhQsQhJc"))
	require.Len(t, groups, 3)
	assert.Equal(t, TwoPair, groups[0].Type)
	assert.ElementsMatch(t, deck.MustParseCards("AsAhKsKh"), groups[0].Cards)
	assert.Equal(t, Pair, groups[1].Type)
	assert.Equal(t, HighCard, groups[2].Type)
}

func TestGroupAllHandsEmpty(t *testing.T) {
	assert.Empty(t, GroupAllHands(nil))
	assert.Empty(t, GroupAllHands([]deck.Card{{}, {}}))
}

func TestGroupAllHandsPartitionsInput(t *testing.T) {
	rng := randutil.New(7)
	for iter := range 200 {
		cards := deck.Shuffled(rng)[:1 + iter%20]

		groups := GroupAllHands(cards)
		var all []deck.Card
		for i, g := range groups {
			require.NotEmpty(t, g.Cards)
			if g.Type == HighCard {
				require.Equal(t, len(groups)-1, i, "high card group must be last")
			}
			all = append(all, g.Cards...)
		}
		require.ElementsMatch(t, cards, all)
	}
}
