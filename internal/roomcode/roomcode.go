// Package roomcode generates the short codes players type to join a room.
package roomcode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Crockford's base32, upper case: no I, L, O or U.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Length is the number of characters in a room code.
const Length = 6

// RandSource lets tests make codes deterministic.
type RandSource interface {
	IntN(n int) int
}

// Generator produces room codes.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil source uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a room code from crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new room code.
func (g *Generator) Generate() string {
	code := make([]byte, Length)
	if g.randSource != nil {
		for i := range code {
			code[i] = alphabet[g.randSource.IntN(len(alphabet))]
		}
		return string(code)
	}

	var raw [Length]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	for i, b := range raw {
		// 256 is a multiple of 32 so the low five bits are uniform
		code[i] = alphabet[b&0x1f]
	}
	return string(code)
}

// Normalize upper-cases a typed code and folds the characters Crockford
// treats as look-alikes: O to 0, I and L to 1. Spaces and dashes are
// dropped.
func Normalize(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		switch r {
		case ' ', '-':
			continue
		case 'O':
			r = '0'
		case 'I', 'L':
			r = '1'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Validate checks that code is a normalized room code.
func Validate(code string) error {
	if len(code) != Length {
		return fmt.Errorf("room code must be exactly %d characters, got %d", Length, len(code))
	}
	for i, char := range code {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
