package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hearttiles/hearttiles-server/internal/config"
	"github.com/hearttiles/hearttiles-server/internal/room"
	"github.com/hearttiles/hearttiles-server/internal/session"
)

// NewDB opens a pgx connection pool and verifies connectivity.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", zap.Int32("max_conns", poolCfg.MaxConns))
	return pool, nil
}

// Postgres stores rooms and player sessions in PostgreSQL. Room state is a
// JSONB document produced by the record codec, so map-valued fields
// (shields, per-turn actions) round-trip as plain key→value objects.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	code       TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS player_sessions (
	user_id   TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	room_code TEXT NOT NULL DEFAULT '',
	last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// LoadRooms fetches every stored room.
func (s *Postgres) LoadRooms(ctx context.Context) (map[string]*room.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT code, data FROM rooms`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	rooms := make(map[string]*room.Room)
	for rows.Next() {
		var code string
		var data []byte
		if err := rows.Scan(&code, &data); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		r, err := unmarshalRoom(data)
		if err != nil {
			return nil, err
		}
		rooms[code] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

// SaveRoom upserts a room document.
func (s *Postgres) SaveRoom(ctx context.Context, r *room.Room) error {
	data, err := marshalRoom(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO rooms (code, data, updated_at) VALUES ($1, $2, now())
ON CONFLICT (code) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		r.Code, data)
	if err != nil {
		return fmt.Errorf("save room %s: %w", r.Code, err)
	}
	return nil
}

// DeleteRoom removes a room document.
func (s *Postgres) DeleteRoom(ctx context.Context, code string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, code); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

// LoadPlayerSessions fetches every stored session.
func (s *Postgres) LoadPlayerSessions(ctx context.Context) (map[string]*session.Session, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id, name, room_code, last_seen FROM player_sessions`)
	if err != nil {
		return nil, fmt.Errorf("query player sessions: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]*session.Session)
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(&sess.UserID, &sess.Name, &sess.RoomCode, &sess.LastSeen); err != nil {
			return nil, fmt.Errorf("scan player session: %w", err)
		}
		sessions[sess.UserID] = &sess
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player sessions: %w", err)
	}
	return sessions, nil
}

// SavePlayerSession upserts a session row.
func (s *Postgres) SavePlayerSession(ctx context.Context, sess *session.Session) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO player_sessions (user_id, name, room_code, last_seen) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, room_code = EXCLUDED.room_code, last_seen = EXCLUDED.last_seen`,
		sess.UserID, sess.Name, sess.RoomCode, sess.LastSeen)
	if err != nil {
		return fmt.Errorf("save player session %s: %w", sess.UserID, err)
	}
	return nil
}
