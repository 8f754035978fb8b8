package client

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/pokeropoly/internal/protocol"
)

// Config is the client configuration file.
type Config struct {
	Server ServerConnection `hcl:"server,block"`
	Player PlayerSettings   `hcl:"player,block"`
	Play   *PlaySettings    `hcl:"play,block"`
}

// ServerConnection contains server connection settings. Durations are in
// milliseconds.
type ServerConnection struct {
	URL            string `hcl:"url"`
	Codec          string `hcl:"codec,optional"`
	RequestTimeout int    `hcl:"request_timeout,optional"`
	ReconnectDelay int    `hcl:"reconnect_delay,optional"`
}

// PlayerSettings identifies the local player.
type PlayerSettings struct {
	UserID string `hcl:"user_id,optional"`
	Name   string `hcl:"name"`
	// Token is presented to servers that validate players.
	Token string `hcl:"token,optional"`
}

// PlaySettings tune the local session. Durations are in milliseconds.
type PlaySettings struct {
	Autoplay      bool   `hcl:"autoplay,optional"`
	AutoplayDelay int    `hcl:"autoplay_delay,optional"`
	TickInterval  int    `hcl:"tick_interval,optional"`
	Seed          int64  `hcl:"seed,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	StateFile     string `hcl:"state_file,optional"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	c := &Config{
		Server: ServerConnection{URL: "http://localhost:8080"},
	}
	c.applyDefaults()
	return c
}

// LoadConfig reads filename, falling back to DefaultConfig when the file
// does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = "http://localhost:8080"
	}
	if c.Server.Codec == "" {
		c.Server.Codec = string(protocol.CodecJSON)
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30000
	}
	if c.Server.ReconnectDelay == 0 {
		c.Server.ReconnectDelay = 2000
	}

	if c.Play == nil {
		c.Play = &PlaySettings{}
	}
	if c.Play.AutoplayDelay == 0 {
		c.Play.AutoplayDelay = 1000
	}
	if c.Play.TickInterval == 0 {
		c.Play.TickInterval = 300
	}
	if c.Play.LogLevel == "" {
		c.Play.LogLevel = "warn"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if _, err := protocol.ParseCodec(c.Server.Codec); err != nil {
		return err
	}
	if c.Player.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Server.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}
	if c.Play.TickInterval <= 0 || c.Play.AutoplayDelay <= 0 {
		return fmt.Errorf("play intervals must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Play.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.Play.LogLevel)
	}
	return nil
}

// Transport builds the TransportConfig for roomID.
func (c *Config) Transport(roomID string) TransportConfig {
	return TransportConfig{
		ServerURL:      c.Server.URL,
		RoomID:         roomID,
		UserID:         c.Player.UserID,
		Codec:          protocol.Codec(c.Server.Codec),
		ReconnectDelay: time.Duration(c.Server.ReconnectDelay) * time.Millisecond,
		Token:          c.Player.Token,
	}
}

// RequestTimeout is the lobby HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Millisecond
}
