package board

import (
	"encoding/json"
	"testing"

	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	for _, pos := range Corners {
		assert.Equal(t, Corner, Classify(pos), "position %d", pos)
	}
	for _, pos := range MysterySpaces {
		assert.Equal(t, Mystery, Classify(pos), "position %d", pos)
	}
	assert.Equal(t, CardSpace, Classify(1))
	assert.Equal(t, CardSpace, Classify(63))
	assert.Equal(t, Corner, Classify(64))
	assert.Equal(t, Mystery, Classify(-59))
	assert.Len(t, CardSpaces(), deck.Size)
}

func TestCornerSuit(t *testing.T) {
	want := map[int]deck.Suit{0: deck.Spades, 16: deck.Hearts, 32: deck.Diamonds, 48: deck.Clubs}
	for pos, suit := range want {
		got, ok := CornerSuit(pos)
		require.True(t, ok)
		assert.Equal(t, suit, got)
	}
	_, ok := CornerSuit(5)
	assert.False(t, ok)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, 0, Wrap(64))
	assert.Equal(t, 63, Wrap(-1))
	assert.Equal(t, 5, Wrap(133))
}

func TestDeal(t *testing.T) {
	layout := Deal(randutil.New(42))
	require.NoError(t, layout.Validate())
	assert.Len(t, layout.Cards, deck.Size)
	require.Len(t, layout.JokerPositions, JokerCount)
	for _, pos := range layout.JokerPositions {
		assert.True(t, layout.IsJoker(pos))
	}

	_, ok := layout.CardAt(0)
	assert.False(t, ok)
	_, ok = layout.CardAt(5)
	assert.False(t, ok)
	_, ok = layout.CardAt(1)
	assert.True(t, ok)

	again := Deal(randutil.New(42))
	assert.Equal(t, layout, again)
}

func TestLayoutJSON(t *testing.T) {
	layout := Deal(randutil.New(9))
	data, err := json.Marshal(layout)
	require.NoError(t, err)

	var decoded Layout
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, layout, decoded)
}

func TestValidateRejectsBrokenLayouts(t *testing.T) {
	layout := Deal(randutil.New(1))
	delete(layout.Cards, 1)
	assert.Error(t, layout.Validate())

	layout = Deal(randutil.New(1))
	layout.Cards[2] = layout.Cards[3]
	assert.Error(t, layout.Validate())

	layout = Deal(randutil.New(1))
	layout.JokerPositions = []int{1}
	assert.Error(t, layout.Validate())
}
