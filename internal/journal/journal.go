// Package journal appends every relayed room action to a per-room JSON
// lines file, one zerolog event per action.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/rs/zerolog"
)

const defaultFilename = "actions.jsonl"

// Config configures a Journal.
type Config struct {
	BaseDir string
	Clock   quartz.Clock
}

// Journal keeps one open file per room.
type Journal struct {
	cfg    Config
	logger *log.Logger

	mu     sync.Mutex
	rooms  map[string]*roomLog
	closed bool
}

type roomLog struct {
	file   *os.File
	events zerolog.Logger
	count  int
}

// New creates a journal writing under cfg.BaseDir.
func New(cfg Config, logger *log.Logger) *Journal {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "journal"
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	return &Journal{
		cfg:    cfg,
		logger: logger.WithPrefix("journal"),
		rooms:  make(map[string]*roomLog),
	}
}

// Path is the file actions of roomID are written to.
func (j *Journal) Path(roomID string) string {
	return filepath.Join(j.cfg.BaseDir, fmt.Sprintf("room-%s", roomID), defaultFilename)
}

// Record appends env to its room's file. Failures are logged and the
// action is dropped from the journal.
func (j *Journal) Record(roomID string, env protocol.Envelope) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}

	rl, err := j.open(roomID)
	if err != nil {
		j.logger.Error("journal unavailable", "room", roomID, "error", err)
		return
	}

	ev := rl.events.Info().
		Time("at", j.cfg.Clock.Now()).
		Str("user_id", env.UserID).
		Int("player_index", env.PlayerIndex).
		Str("action_type", string(env.ActionType)).
		Str("origin", env.Origin).
		Uint64("seq", env.Seq)
	if len(env.ActionData) > 0 {
		ev = ev.RawJSON("action_data", env.ActionData)
	}
	ev.Msg("action")
	rl.count++
}

func (j *Journal) open(roomID string) (*roomLog, error) {
	if rl, ok := j.rooms[roomID]; ok {
		return rl, nil
	}
	path := j.Path(roomID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	rl := &roomLog{
		file:   f,
		events: zerolog.New(f).With().Str("room_id", roomID).Logger(),
	}
	j.rooms[roomID] = rl
	j.logger.Debug("journal opened", "room", roomID, "path", path)
	return rl, nil
}

// CloseRoom closes the file of roomID, if open.
func (j *Journal) CloseRoom(roomID string) error {
	j.mu.Lock()
	rl, ok := j.rooms[roomID]
	delete(j.rooms, roomID)
	j.mu.Unlock()
	if !ok {
		return nil
	}
	j.logger.Debug("journal closed", "room", roomID, "actions", rl.count)
	return rl.file.Close()
}

// Close closes every room file. Later Records are ignored.
func (j *Journal) Close() error {
	j.mu.Lock()
	rooms := j.rooms
	j.rooms = make(map[string]*roomLog)
	j.closed = true
	j.mu.Unlock()

	var firstErr error
	for roomID, rl := range rooms {
		if err := rl.file.Close(); err != nil {
			j.logger.Error("journal close failed", "room", roomID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
