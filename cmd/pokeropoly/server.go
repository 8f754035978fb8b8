package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/lox/pokeropoly/internal/auth"
	"github.com/lox/pokeropoly/internal/journal"
	"github.com/lox/pokeropoly/internal/server"
	"github.com/lox/pokeropoly/internal/store"
)

// ServerCmd runs the relay hub and the lobby API.
type ServerCmd struct {
	Config   string `kong:"default='server.hcl',help='Path to the HCL config file'"`
	Addr     string `kong:"help='Listen address, overrides the config (host:port)'"`
	Database string `kong:"help='Database DSN, overrides the config'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Addr != "" {
		host, port, err := splitAddr(c.Addr)
		if err != nil {
			return err
		}
		cfg.Server.Address, cfg.Server.Port = host, port
	}
	if c.Database != "" {
		cfg.Database.DSN = c.Database
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Server.LogLevel)
	ctx, cancel := signalContext(logger)
	defer cancel()

	st, err := store.Open(ctx, store.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer st.Close()

	var recorder server.Recorder
	if cfg.Journal.Enabled {
		j := journal.New(journal.Config{BaseDir: cfg.Journal.Dir}, logger)
		defer j.Close()
		recorder = j
		logger.Info("Journaling actions", "dir", cfg.Journal.Dir)
	}

	var opts []server.Option
	if cfg.Auth.Enabled() {
		opts = append(opts, server.WithValidator(auth.NewHTTPValidator(cfg.Auth.URL, cfg.Auth.AdminSecret), cfg.Auth.FailOpen))
		logger.Info("Validating player tokens", "url", cfg.Auth.URL, "fail_open", cfg.Auth.FailOpen)
	}

	logger.Info("Starting pokeropoly server",
		"address", cfg.ListenAddress(),
		"driver", cfg.Database.Driver,
		"send_buffer", cfg.Server.SendBuffer,
	)
	return server.New(cfg, st, recorder, logger, opts...).Run(ctx)
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host, port, nil
}
