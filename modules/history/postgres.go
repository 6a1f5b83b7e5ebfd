package history

import (
	"context"
	"fmt"

	domain "github.com/example/nextalk-server/domain/chat"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	seq     BIGSERIAL PRIMARY KEY,
	id      TEXT NOT NULL UNIQUE,
	sender  TEXT NOT NULL,
	content TEXT NOT NULL,
	room    TEXT NOT NULL,
	ts      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_room_ts ON chat_messages (room, ts DESC, seq DESC);
`

const recentByRoomSQL = `
SELECT id, sender, content, room, ts FROM (
	SELECT seq, id, sender, content, room, ts
	FROM chat_messages
	WHERE room = $1
	ORDER BY ts DESC, seq DESC
	LIMIT $2
) recent
ORDER BY ts ASC, seq ASC`

// PostgresStore stores messages in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url and creates the schema if missing.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Append inserts msg.
func (s *PostgresStore) Append(ctx context.Context, msg domain.Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, sender, content, room, ts) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.Sender, msg.Content, msg.Room, msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// RecentByRoom returns the newest limit messages of room, oldest first.
func (s *PostgresStore) RecentByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx, recentByRoomSQL, room, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0, limit)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Content, &m.Room, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// Ping checks the pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
