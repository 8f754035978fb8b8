package deck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

// Suits are ordered to match the board corners: 0 ♠, 16 ♥, 32 ♦, 48 ♣.
const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in corner order.
var Suits = [...]Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// ParseSuit accepts either the symbol ("♥") or a letter ("h").
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(s) {
	case "♠", "s":
		return Spades, nil
	case "♥", "h":
		return Hearts, nil
	case "♦", "d":
		return Diamonds, nil
	case "♣", "c":
		return Clubs, nil
	}
	return 0, fmt.Errorf("invalid suit %q", s)
}

// MarshalText encodes the suit as its symbol.
func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts anything ParseSuit does.
func (s *Suit) UnmarshalText(text []byte) error {
	parsed, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rank represents a card rank. The zero Rank marks an empty slot.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the face value as it appears on the wire ("10", not "T").
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// ParseRank accepts "2".."10", "T" and the face letters.
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "A":
		return Ace, nil
	case "K":
		return King, nil
	case "Q":
		return Queen, nil
	case "J":
		return Jack, nil
	case "T", "10":
		return Ten, nil
	}
	if len(s) == 1 && s[0] >= '2' && s[0] <= '9' {
		return Rank(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("invalid rank %q", s)
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	if c.IsEmpty() {
		return "--"
	}
	return c.Rank.String() + c.Suit.String()
}

// IsEmpty reports whether the card is an empty collection slot.
func (c Card) IsEmpty() bool {
	return c.Rank == 0
}

// Value returns the numeric value of the card for comparison.
// Aces are high (14); straights treat them as low where needed.
func (c Card) Value() int {
	return int(c.Rank)
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

type wireCard struct {
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

// MarshalJSON encodes the card as {"suit":"♠","value":"10"}. Empty slots
// encode as null.
func (c Card) MarshalJSON() ([]byte, error) {
	if c.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(wireCard{Suit: c.Suit.String(), Value: c.Rank.String()})
}

// UnmarshalJSON decodes the wire form. null and blank suit/value decode to
// an empty slot.
func (c *Card) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Card{}
		return nil
	}
	var w wireCard
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Suit == "" || w.Value == "" {
		*c = Card{}
		return nil
	}
	suit, err := ParseSuit(w.Suit)
	if err != nil {
		return err
	}
	rank, err := ParseRank(w.Value)
	if err != nil {
		return err
	}
	*c = Card{Suit: suit, Rank: rank}
	return nil
}

// ParseCards parses compact notation such as "AsKs10hTd2c" or "K♠ Q♥".
// Ranks: A K Q J T 10 9..2. Suits: s h d c or the symbols.
func ParseCards(s string) ([]Card, error) {
	runes := []rune(strings.ReplaceAll(s, " ", ""))
	cards := []Card{}
	for i := 0; i < len(runes); {
		rankLen := 1
		if runes[i] == '1' {
			if i+1 >= len(runes) || runes[i+1] != '0' {
				return nil, fmt.Errorf("invalid rank at position %d", i)
			}
			rankLen = 2
		}
		if i+rankLen >= len(runes) {
			return nil, fmt.Errorf("incomplete card at position %d", i)
		}

		rank, err := ParseRank(string(runes[i : i+rankLen]))
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		suit, err := ParseSuit(string(runes[i+rankLen]))
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i+rankLen, err)
		}

		cards = append(cards, NewCard(suit, rank))
		i += rankLen + 1
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}
