package deck

import (
	"encoding/json"
	"testing"

	"github.com/lox/pokeropoly/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "royal flush",
			input: "AsKsQsJsTs",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Spades, Rank: King},
				{Suit: Spades, Rank: Queen},
				{Suit: Spades, Rank: Jack},
				{Suit: Spades, Rank: Ten},
			},
		},
		{
			name:  "ten as two digits",
			input: "10h9d",
			expected: []Card{
				{Suit: Hearts, Rank: Ten},
				{Suit: Diamonds, Rank: Nine},
			},
		},
		{
			name:  "suit symbols with spaces",
			input: "K♠ Q♥ 2♣",
			expected: []Card{
				{Suit: Spades, Rank: King},
				{Suit: Hearts, Rank: Queen},
				{Suit: Clubs, Rank: Two},
			},
		},
		{
			name:  "case insensitive",
			input: "asKHqDjc",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
				{Suit: Diamonds, Rank: Queen},
				{Suit: Clubs, Rank: Jack},
			},
		},
		{name: "invalid rank", input: "XsKs", wantErr: true},
		{name: "invalid suit", input: "AsKx", wantErr: true},
		{name: "dangling rank", input: "AsK", wantErr: true},
		{name: "lone one", input: "1s", wantErr: true},
		{name: "empty string", input: "", expected: []Card{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "10♥", NewCard(Hearts, Ten).String())
	assert.Equal(t, "A♠", NewCard(Spades, Ace).String())
	assert.Equal(t, "--", Card{}.String())
}

func TestCardJSON(t *testing.T) {
	data, err := json.Marshal(NewCard(Diamonds, Ten))
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"♦","value":"10"}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{"suit":"♣","value":"K"}`), &c))
	assert.Equal(t, NewCard(Clubs, King), c)

	var slots []Card
	require.NoError(t, json.Unmarshal([]byte(`[null,{"suit":"","value":""},{"suit":"♥","value":"2"}]`), &slots))
	require.Len(t, slots, 3)
	assert.True(t, slots[0].IsEmpty())
	assert.True(t, slots[1].IsEmpty())
	assert.Equal(t, NewCard(Hearts, Two), slots[2])

	require.Error(t, json.Unmarshal([]byte(`{"suit":"x","value":"K"}`), &c))
}

func TestStandardDeckHas52UniqueCards(t *testing.T) {
	cards := Shuffled(randutil.New(7))
	require.Len(t, cards, Size)

	seen := make(map[Card]bool)
	for _, c := range cards {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, Size)
	assert.ElementsMatch(t, Standard(), cards)
	assert.Equal(t, NewCard(Spades, Two), Standard()[0])
}

func TestShuffleIsDeterministicForSeed(t *testing.T) {
	assert.Equal(t, Shuffled(randutil.New(42)), Shuffled(randutil.New(42)))
	assert.NotEqual(t, Shuffled(randutil.New(42)), Shuffled(randutil.New(43)))
}
