package roomcode

import (
	"testing"

	"github.com/lox/pokeropoly/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for range 100 {
		code := Generate()
		require.Len(t, code, Length)
		require.NoError(t, Validate(code))
	}
}

func TestGenerateWithRandSourceIsDeterministic(t *testing.T) {
	a := NewGenerator(randutil.New(7)).Generate()
	b := NewGenerator(randutil.New(7)).Generate()
	assert.Equal(t, a, b)
	assert.NoError(t, Validate(a))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "AB01C1", Normalize("ab-oI c-l"))
	assert.Equal(t, "XYZ123", Normalize("XYZ123"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"valid", "7KQ2ZX", false},
		{"too short", "7KQ2", true},
		{"too long", "7KQ2ZXA", true},
		{"lower case", "7kq2zx", true},
		{"excluded letter", "7KQ2ZU", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
