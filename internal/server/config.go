package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the server configuration file.
type Config struct {
	Server   ServerSettings    `hcl:"server,block"`
	Database *DatabaseSettings `hcl:"database,block"`
	Journal  *JournalSettings  `hcl:"journal,block"`
	Auth     *AuthSettings     `hcl:"auth,block"`
}

// ServerSettings contains listener and logging settings.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	// SendBuffer is the per-subscriber queue length; a subscriber whose
	// queue is full is dropped.
	SendBuffer int `hcl:"send_buffer,optional"`
}

// DatabaseSettings selects the room store.
type DatabaseSettings struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// JournalSettings enables the per-room action journal.
type JournalSettings struct {
	Enabled bool   `hcl:"enabled,optional"`
	Dir     string `hcl:"dir,optional"`
}

// AuthSettings enables token validation against an identity service.
type AuthSettings struct {
	URL         string `hcl:"url,optional"`
	AdminSecret string `hcl:"admin_secret,optional"`
	// FailOpen admits requests while the identity service is unreachable.
	FailOpen bool `hcl:"fail_open,optional"`
}

// Enabled reports whether an identity service is configured.
func (a *AuthSettings) Enabled() bool {
	return a != nil && a.URL != ""
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	c := &Config{
		Server: ServerSettings{
			Address:    "localhost",
			Port:       8080,
			LogLevel:   "info",
			SendBuffer: 256,
		},
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
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = 256
	}

	if c.Database == nil {
		c.Database = &DatabaseSettings{}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "pokeropoly.db"
	}

	if c.Journal == nil {
		c.Journal = &JournalSettings{}
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "journal"
	}

	if c.Auth == nil {
		c.Auth = &AuthSettings{}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for %s", c.Database.Driver)
	}
	return nil
}

// ListenAddress returns host:port.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
