package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/pokeropoly/internal/client"
	"github.com/lox/pokeropoly/internal/display"
	"github.com/lox/pokeropoly/internal/fileutil"
	"github.com/lox/pokeropoly/internal/game"
	"github.com/lox/pokeropoly/internal/protocol"
	"golang.org/x/sync/errgroup"
)

const lobbyPollInterval = time.Second

// PlayCmd joins (or creates) a room, waits for the game to start and plays
// it headless.
type PlayCmd struct {
	Config     string `kong:"default='client.hcl',help='Path to the HCL config file'"`
	Server     string `kong:"help='Server URL, overrides the config'"`
	Name       string `kong:"help='Player name, overrides the config'"`
	UserID     string `kong:"name='user-id',help='User id; a random one is generated when empty'"`
	Token      string `kong:"env='POKEROPOLY_TOKEN',help='Player token for servers that validate identities'"`
	Code       string `kong:"help='Room code to join; a new room is created when empty'"`
	MaxPlayers int    `kong:"default='4',help='Seats in a newly created room'"`
	WaitFor    int    `kong:"default='2',help='Players to wait for before the host starts the game'"`
	Autoplay   bool   `default:"true" negatable:"" help:"Roll, buy and pay automatically"`
	Turns      int    `kong:"default='0',help='Leave once this many turns have been played (0 = until interrupted)'"`
	Seed       int64  `kong:"help='Seed for autoplay dice'"`
	StateFile  string `kong:"help='Write the final game snapshot to this JSON file'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
}

func (c *PlayCmd) Run() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Play.LogLevel)
	ctx, cancel := signalContext(logger)
	defer cancel()

	lobby := client.NewLobby(cfg.Server.URL, cfg.RequestTimeout()).WithToken(cfg.Player.Token)
	clock := quartz.NewReal()

	code := c.Code
	if code == "" {
		room, err := lobby.CreateRoom(ctx, cfg.Player.UserID, c.MaxPlayers)
		if err != nil {
			return fmt.Errorf("creating room: %w", err)
		}
		code = room.RoomCode
		fmt.Fprintf(os.Stdout, "Created room %s\n", code)
	}

	joined, err := lobby.JoinRoom(ctx, code, cfg.Player.UserID, cfg.Player.Name)
	if err != nil {
		return fmt.Errorf("joining room %s: %w", code, err)
	}
	// a validating server may assign a different identity than the one claimed
	cfg.Player.UserID = joined.Player.UserID
	logger.Info("Joined room", "code", code, "seat", joined.Player.PlayerIndex, "suit", joined.Player.Suit)
	defer func() {
		leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lobby.LeaveRoom(leaveCtx, code, cfg.Player.UserID); err != nil {
			logger.Warn("Failed to leave room", "error", err)
		}
	}()

	room, roster, err := c.awaitStart(ctx, lobby, clock, joined.Room, cfg.Player.UserID, logger)
	if err != nil {
		return err
	}

	final, err := c.play(ctx, cfg, room, roster, clock, logger)
	if err != nil {
		return err
	}

	styles := display.DefaultStyles()
	fmt.Fprintln(os.Stdout, styles.Standings(final, seatOf(roster, cfg.Player.UserID)))

	if c.StateFile != "" {
		if err := fileutil.WriteJSONAtomic(c.StateFile, final); err != nil {
			return fmt.Errorf("writing state file: %w", err)
		}
		logger.Info("Wrote state file", "path", c.StateFile)
	}
	return nil
}

func (c *PlayCmd) loadConfig() (*client.Config, error) {
	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.UserID != "" {
		cfg.Player.UserID = c.UserID
	}
	if c.Token != "" {
		cfg.Player.Token = c.Token
	}
	if cfg.Player.UserID == "" {
		cfg.Player.UserID = uuid.NewString()
	}
	cfg.Play.Autoplay = c.Autoplay
	if c.Seed != 0 {
		cfg.Play.Seed = c.Seed
	}
	if c.Debug {
		cfg.Play.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// awaitStart polls the lobby until the room is playing. The host starts
// the game once WaitFor players are seated.
func (c *PlayCmd) awaitStart(ctx context.Context, lobby *client.Lobby, clock quartz.Clock, room protocol.Room, userID string, logger *log.Logger) (protocol.Room, []protocol.Player, error) {
	ticker := clock.NewTicker(lobbyPollInterval, "play", "lobby")
	defer ticker.Stop()

	for {
		var err error
		room, err = lobby.Room(ctx, room.ID)
		if err != nil {
			return room, nil, err
		}
		if room.Status == protocol.StatusFinished {
			return room, nil, errors.New("room has finished")
		}

		if room.Status == protocol.StatusWaiting && room.HostUserID == userID && room.CurrentPlayers >= min(c.WaitFor, room.MaxPlayers) {
			started, err := lobby.StartGame(ctx, room.ID, userID)
			if err != nil {
				return room, nil, fmt.Errorf("starting game: %w", err)
			}
			room = started
		}

		if room.Status == protocol.StatusPlaying {
			roster, err := lobby.Players(ctx, room.ID)
			return room, roster, err
		}

		logger.Info("Waiting for players", "seated", room.CurrentPlayers, "want", c.WaitFor)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return room, nil, ctx.Err()
		}
	}
}

// play runs the session and its transport until the turn limit, an
// interrupt or a fatal error, and returns the last snapshot.
func (c *PlayCmd) play(ctx context.Context, cfg *client.Config, room protocol.Room, roster []protocol.Player, clock quartz.Clock, logger *log.Logger) (game.Snapshot, error) {
	transport, err := client.NewTransport(cfg.Transport(room.ID), clock, logger)
	if err != nil {
		return game.Snapshot{}, err
	}

	sessCfg := game.DefaultSessionConfig(cfg.Player.UserID)
	sessCfg.Autoplay = cfg.Play.Autoplay
	sessCfg.AutoplayDelay = time.Duration(cfg.Play.AutoplayDelay) * time.Millisecond
	sessCfg.TickInterval = time.Duration(cfg.Play.TickInterval) * time.Millisecond
	sessCfg.Seed = cfg.Play.Seed
	session := game.NewSession(sessCfg, transport, clock, logger)

	names := make([]string, len(roster))
	for i, p := range roster {
		names[i] = p.PlayerName
	}
	session.Subscribe(display.NewFeed(os.Stdout, display.DefaultStyles(), names))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCancel(session.Run(gctx))
	})
	g.Go(func() error {
		return transport.Run(gctx, session.Deliver)
	})

	if err := session.Load(ctx, room, roster); err != nil {
		cancel()
		return game.Snapshot{}, errors.Join(err, g.Wait())
	}

	var last game.Snapshot
	g.Go(func() error {
		ticker := clock.NewTicker(500*time.Millisecond, "play", "watch")
		defer ticker.Stop()
		for {
			snap, err := session.Snapshot(gctx)
			if err != nil {
				if errors.Is(err, game.ErrSessionClosed) {
					return nil
				}
				return ignoreCancel(err)
			}
			last = snap
			if c.Turns > 0 && snap.Turn.Number > c.Turns {
				logger.Info("Turn limit reached", "turns", c.Turns)
				return session.Leave(gctx)
			}
			select {
			case <-ticker.C:
			case <-session.Done():
				return nil
			case <-gctx.Done():
				return nil
			}
		}
	})

	err = g.Wait()
	return last, err
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func seatOf(roster []protocol.Player, userID string) int {
	for _, p := range roster {
		if p.UserID == userID {
			return p.PlayerIndex
		}
	}
	return -1
}
