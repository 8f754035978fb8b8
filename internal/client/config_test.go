package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "client.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Server.URL)
	assert.Equal(t, "json", cfg.Server.Codec)
	assert.Equal(t, 2*time.Second, cfg.Transport("r1").ReconnectDelay)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 300, cfg.Play.TickInterval)

	// a name is the one thing the defaults cannot supply
	assert.Error(t, cfg.Validate())
	cfg.Player.Name = "Alice"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server {
  url             = "https://pokeropoly.example.com"
  codec           = "msgpack"
  reconnect_delay = 500
}

player {
  user_id = "u-1"
  name    = "Alice"
  token   = "t-1"
}

play {
  autoplay   = true
  seed       = 7
  state_file = "state.json"
}
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Play.Autoplay)
	assert.Equal(t, int64(7), cfg.Play.Seed)
	assert.Equal(t, 1000, cfg.Play.AutoplayDelay)

	tc := cfg.Transport("room-1")
	assert.Equal(t, protocol.CodecMsgpack, tc.Codec)
	assert.Equal(t, "u-1", tc.UserID)
	assert.Equal(t, 500*time.Millisecond, tc.ReconnectDelay)
	assert.Equal(t, "t-1", tc.Token)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"codec", func(c *Config) { c.Server.Codec = "xml" }},
		{"log level", func(c *Config) { c.Play.LogLevel = "loud" }},
		{"reconnect delay", func(c *Config) { c.Server.ReconnectDelay = -1 }},
		{"tick", func(c *Config) { c.Play.TickInterval = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Player.Name = "Alice"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
