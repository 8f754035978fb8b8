package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/lox/pokeropoly/internal/board"
	"github.com/lox/pokeropoly/internal/deck"
	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/lox/pokeropoly/internal/randutil"
	"github.com/lox/pokeropoly/internal/roomcode"
	_ "modernc.org/sqlite"
)

// StartingChips is the balance of a newly seated player.
const StartingChips = 10000

const codeAttempts = 5

// Config selects the database.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	// DSN is a file path (or ":memory:") for sqlite and a connection URL
	// for postgres.
	DSN string
}

var _ Store = (*SQLStore)(nil)

// SQLStore is a Store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *log.Logger
	clock   quartz.Clock

	mu    sync.Mutex // guards rng
	rng   *rand.Rand
	codes bool // draw room codes from rng instead of crypto/rand
}

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithClock sets the clock used for timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(s *SQLStore) { s.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *SQLStore) { s.logger = logger }
}

// WithRand makes deals and room codes deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(s *SQLStore) {
		s.rng = rng
		s.codes = true
	}
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, cfg Config, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		logger: log.Default(),
		clock:  quartz.NewReal(),
		rng:    randutil.Seeded(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("store")

	var err error
	switch cfg.Driver {
	case "", "sqlite":
		s.dialect = dialectSQLite
		s.db, err = openSQLite(ctx, cfg.DSN)
	case "postgres":
		s.dialect = dialectPostgres
		s.db, err = openPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			_ = s.db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	s.logger.Debug("database ready", "driver", cfg.Driver)
	return s, nil
}

func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dsn != ":memory:" {
		if parent := filepath.Dir(dsn); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) nowMs() int64 {
	return s.clock.Now().UTC().UnixMilli()
}

func (s *SQLStore) newCode() string {
	if !s.codes {
		return roomcode.Generate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return roomcode.NewGenerator(s.rng).Generate()
}

func (s *SQLStore) deal() board.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return board.Deal(s.rng)
}

// CreateRoom opens a waiting room with a fresh room code. A maxPlayers of
// zero means MaxSeats.
func (s *SQLStore) CreateRoom(ctx context.Context, hostUserID string, maxPlayers int) (protocol.Room, error) {
	if strings.TrimSpace(hostUserID) == "" {
		return protocol.Room{}, ErrInvalidUser
	}
	if maxPlayers == 0 {
		maxPlayers = MaxSeats
	}
	if maxPlayers < 1 || maxPlayers > MaxSeats {
		return protocol.Room{}, ErrInvalidMaxPlayers
	}

	now := s.nowMs()
	room := protocol.Room{
		ID:         uuid.NewString(),
		HostUserID: hostUserID,
		Status:     protocol.StatusWaiting,
		MaxPlayers: maxPlayers,
		CreatedAt:  time.UnixMilli(now).UTC(),
		UpdatedAt:  time.UnixMilli(now).UTC(),
	}

	for range codeAttempts {
		room.RoomCode = s.newCode()
		_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO rooms (id, room_code, host_user_id, status, max_players, current_players, game_state, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, 0, '{}', ?, ?)
`), room.ID, room.RoomCode, room.HostUserID, room.Status, room.MaxPlayers, now, now)
		if s.dialect.isUniqueViolation(err) {
			s.logger.Debug("room code taken, retrying", "code", room.RoomCode)
			continue
		}
		if err != nil {
			return protocol.Room{}, fmt.Errorf("create room: %w", err)
		}
		s.logger.Info("room created", "room", room.ID, "code", room.RoomCode, "host", hostUserID)
		return room, nil
	}
	return protocol.Room{}, fmt.Errorf("create room: no free room code after %d attempts", codeAttempts)
}

// JoinRoom seats userID in the first free seat of the room with code. A
// user already seated gets their existing seat back, even once the game
// has started.
func (s *SQLStore) JoinRoom(ctx context.Context, code, userID, name string) (protocol.Room, protocol.Player, error) {
	if strings.TrimSpace(userID) == "" {
		return protocol.Room{}, protocol.Player{}, ErrInvalidUser
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return protocol.Room{}, protocol.Player{}, err
	}
	defer tx.Rollback()

	room, err := s.roomWhere(ctx, tx, "room_code = ?", roomcode.Normalize(code))
	if err != nil {
		return protocol.Room{}, protocol.Player{}, err
	}

	existing, err := s.playerWhere(ctx, tx, "room_id = ? AND user_id = ?", room.ID, userID)
	switch {
	case err == nil:
		s.logger.Debug("player rejoined", "room", room.ID, "user", userID, "index", existing.PlayerIndex)
		return room, existing, nil
	case !errors.Is(err, ErrPlayerNotFound):
		return protocol.Room{}, protocol.Player{}, err
	}

	if room.Status != protocol.StatusWaiting {
		return protocol.Room{}, protocol.Player{}, ErrGameStarted
	}
	if room.CurrentPlayers >= room.MaxPlayers {
		return protocol.Room{}, protocol.Player{}, ErrRoomFull
	}

	seated, err := s.players(ctx, tx, room.ID)
	if err != nil {
		return protocol.Room{}, protocol.Player{}, err
	}
	index, ok := freeSeat(seated, room.MaxPlayers)
	if !ok {
		return protocol.Room{}, protocol.Player{}, ErrRoomFull
	}
	if name == "" {
		name = fmt.Sprintf("Player %d", index+1)
	}

	now := s.nowMs()
	p := protocol.Player{
		ID:             uuid.NewString(),
		RoomID:         room.ID,
		UserID:         userID,
		PlayerIndex:    index,
		PlayerName:     name,
		Color:          PlayerColors[index],
		Suit:           deck.Suits[index].String(),
		Chips:          StartingChips,
		BoardPosition:  index * board.SideLength,
		CollectedCards: []deck.Card{},
		BoughtCards:    []protocol.BoughtCard{},
		IsConnected:    true,
		JoinedAt:       time.UnixMilli(now).UTC(),
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO room_players (id, room_id, user_id, player_index, player_name, player_color, player_suit, chips, board_position, collected_cards, bought_cards, is_ready, is_connected, joined_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '[]', '[]', ?, ?, ?)
`), p.ID, p.RoomID, p.UserID, p.PlayerIndex, p.PlayerName, p.Color, p.Suit, p.Chips, p.BoardPosition, false, true, now); err != nil {
		if s.dialect.isUniqueViolation(err) {
			return protocol.Room{}, protocol.Player{}, fmt.Errorf("%w: seat %d taken concurrently", ErrRoomFull, index)
		}
		return protocol.Room{}, protocol.Player{}, fmt.Errorf("seat player: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
UPDATE rooms SET current_players = current_players + 1, updated_at_ms = ? WHERE id = ?
`), now, room.ID); err != nil {
		return protocol.Room{}, protocol.Player{}, err
	}
	if err := tx.Commit(); err != nil {
		return protocol.Room{}, protocol.Player{}, err
	}

	room.CurrentPlayers++
	room.UpdatedAt = time.UnixMilli(now).UTC()
	s.logger.Info("player joined", "room", room.ID, "user", userID, "index", index)
	return room, p, nil
}

func freeSeat(seated []protocol.Player, maxPlayers int) (int, bool) {
	taken := make(map[int]bool, len(seated))
	for _, p := range seated {
		taken[p.PlayerIndex] = true
	}
	for i := range min(maxPlayers, MaxSeats) {
		if !taken[i] {
			return i, true
		}
	}
	return 0, false
}

// LeaveRoom removes userID from the room. The room is finished once its
// last player leaves.
func (s *SQLStore) LeaveRoom(ctx context.Context, code, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	room, err := s.roomWhere(ctx, tx, "room_code = ?", roomcode.Normalize(code))
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, s.dialect.rebind(`
DELETE FROM room_players WHERE room_id = ? AND user_id = ?
`), room.ID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrPlayerNotFound
	}

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
UPDATE rooms
SET current_players = current_players - 1,
    status = CASE WHEN current_players <= 1 THEN ? ELSE status END,
    updated_at_ms = ?
WHERE id = ?
`), protocol.StatusFinished, s.nowMs(), room.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("player left", "room", room.ID, "user", userID)
	return nil
}

// SetReady flags a seated player ready or not.
func (s *SQLStore) SetReady(ctx context.Context, roomID, userID string, ready bool) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`
UPDATE room_players SET is_ready = ? WHERE room_id = ? AND user_id = ?
`), ready, roomID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// StartGame deals the board and moves the room to playing. Only the host
// may start, and only a waiting room with at least one player.
func (s *SQLStore) StartGame(ctx context.Context, roomID, hostUserID string) (protocol.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return protocol.Room{}, err
	}
	defer tx.Rollback()

	room, err := s.roomWhere(ctx, tx, "id = ?", roomID)
	if err != nil {
		return protocol.Room{}, err
	}
	switch {
	case room.HostUserID != hostUserID:
		return protocol.Room{}, ErrNotHost
	case room.Status != protocol.StatusWaiting:
		return protocol.Room{}, ErrGameStarted
	case room.CurrentPlayers == 0:
		return protocol.Room{}, ErrNotEnoughPlayers
	}

	layout := s.deal()
	state, err := json.Marshal(layout)
	if err != nil {
		return protocol.Room{}, err
	}
	now := s.nowMs()
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
UPDATE rooms
SET status = ?, game_state = ?, current_turn_player_index = 0, turn_number = 1, updated_at_ms = ?
WHERE id = ?
`), protocol.StatusPlaying, string(state), now, room.ID); err != nil {
		return protocol.Room{}, err
	}
	if err := tx.Commit(); err != nil {
		return protocol.Room{}, err
	}

	room.Status = protocol.StatusPlaying
	room.GameState = layout
	room.CurrentTurnPlayerIndex = 0
	room.TurnNumber = 1
	room.UpdatedAt = time.UnixMilli(now).UTC()
	s.logger.Info("game started", "room", room.ID, "cards", len(layout.Cards), "jokers", layout.JokerPositions)
	return room, nil
}

// Room loads a room by id.
func (s *SQLStore) Room(ctx context.Context, roomID string) (protocol.Room, error) {
	return s.roomWhere(ctx, s.db, "id = ?", roomID)
}

// RoomByCode loads a room by its code.
func (s *SQLStore) RoomByCode(ctx context.Context, code string) (protocol.Room, error) {
	return s.roomWhere(ctx, s.db, "room_code = ?", roomcode.Normalize(code))
}

// Players lists a room's players by player index.
func (s *SQLStore) Players(ctx context.Context, roomID string) ([]protocol.Player, error) {
	return s.players(ctx, s.db, roomID)
}

// WaitingRooms lists the newest rooms still accepting players.
func (s *SQLStore) WaitingRooms(ctx context.Context) ([]protocol.Room, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
SELECT `+roomColumns+` FROM rooms WHERE status = ? ORDER BY created_at_ms DESC, id LIMIT ?
`), protocol.StatusWaiting, WaitingRoomsLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []protocol.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

const roomColumns = `id, room_code, host_user_id, status, max_players, current_players, game_state, current_turn_player_index, turn_number, created_at_ms, updated_at_ms`

const playerColumns = `id, room_id, user_id, player_index, player_name, player_color, player_suit, chips, board_position, collected_cards, bought_cards, is_ready, is_connected, joined_at_ms`

func (s *SQLStore) roomWhere(ctx context.Context, q queryer, where string, args ...any) (protocol.Room, error) {
	row := q.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+roomColumns+` FROM rooms WHERE `+where), args...)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return protocol.Room{}, ErrRoomNotFound
	}
	return room, err
}

func (s *SQLStore) playerWhere(ctx context.Context, q queryer, where string, args ...any) (protocol.Player, error) {
	row := q.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+playerColumns+` FROM room_players WHERE `+where), args...)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return protocol.Player{}, ErrPlayerNotFound
	}
	return p, err
}

func (s *SQLStore) players(ctx context.Context, q queryer, roomID string) ([]protocol.Player, error) {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(`
SELECT `+playerColumns+` FROM room_players WHERE room_id = ? ORDER BY player_index
`), roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []protocol.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func scanRoom(row scanner) (protocol.Room, error) {
	var (
		r                  protocol.Room
		state              string
		createdMs, updatedMs int64
	)
	if err := row.Scan(&r.ID, &r.RoomCode, &r.HostUserID, &r.Status, &r.MaxPlayers, &r.CurrentPlayers,
		&state, &r.CurrentTurnPlayerIndex, &r.TurnNumber, &createdMs, &updatedMs); err != nil {
		return protocol.Room{}, err
	}
	if err := json.Unmarshal([]byte(state), &r.GameState); err != nil {
		return protocol.Room{}, fmt.Errorf("room %s game state: %w", r.ID, err)
	}
	r.CreatedAt = time.UnixMilli(createdMs).UTC()
	r.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return r, nil
}

func scanPlayer(row scanner) (protocol.Player, error) {
	var (
		p                 protocol.Player
		collected, bought string
		joined            int64
	)
	if err := row.Scan(&p.ID, &p.RoomID, &p.UserID, &p.PlayerIndex, &p.PlayerName, &p.Color, &p.Suit,
		&p.Chips, &p.BoardPosition, &collected, &bought, &p.IsReady, &p.IsConnected, &joined); err != nil {
		return protocol.Player{}, err
	}
	if err := json.Unmarshal([]byte(collected), &p.CollectedCards); err != nil {
		return protocol.Player{}, fmt.Errorf("player %s collected cards: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(bought), &p.BoughtCards); err != nil {
		return protocol.Player{}, fmt.Errorf("player %s bought cards: %w", p.ID, err)
	}
	p.JoinedAt = time.UnixMilli(joined).UTC()
	return p, nil
}
