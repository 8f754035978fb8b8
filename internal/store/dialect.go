package store

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL. Queries in
// this package never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if d == dialectPostgres {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var schema = []string{`
CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    room_code TEXT NOT NULL UNIQUE,
    host_user_id TEXT NOT NULL,
    status TEXT NOT NULL,
    max_players INTEGER NOT NULL,
    current_players INTEGER NOT NULL DEFAULT 0,
    game_state TEXT NOT NULL DEFAULT '{}',
    current_turn_player_index INTEGER NOT NULL DEFAULT 0,
    turn_number INTEGER NOT NULL DEFAULT 0,
    created_at_ms BIGINT NOT NULL,
    updated_at_ms BIGINT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS room_players (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    player_index INTEGER NOT NULL,
    player_name TEXT NOT NULL,
    player_color TEXT NOT NULL,
    player_suit TEXT NOT NULL,
    chips INTEGER NOT NULL,
    board_position INTEGER NOT NULL,
    collected_cards TEXT NOT NULL DEFAULT '[]',
    bought_cards TEXT NOT NULL DEFAULT '[]',
    is_ready BOOLEAN NOT NULL DEFAULT FALSE,
    is_connected BOOLEAN NOT NULL DEFAULT TRUE,
    joined_at_ms BIGINT NOT NULL,
    UNIQUE (room_id, user_id),
    UNIQUE (room_id, player_index)
)`, `
CREATE INDEX IF NOT EXISTS rooms_status_created ON rooms (status, created_at_ms)`,
}
