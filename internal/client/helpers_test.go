package client

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/pokeropoly/internal/server"
	"github.com/lox/pokeropoly/internal/store"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// startServer runs a relay with an in-memory store behind httptest.
func startServer(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Driver: "sqlite", DSN: ":memory:"},
		store.WithLogger(quietLogger()))
	require.NoError(t, err)

	srv := server.New(server.DefaultConfig(), st, nil, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Hub().Run(ctx)
	}()

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		cancel()
		<-done
		hs.Close()
		_ = st.Close()
	})
	return srv, hs
}
