package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewPool initializes a PostgreSQL connection pool and applies the embedded
// message-retention migrations.
func NewPool(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// PostgresStore is a Store backed by a messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an initialized pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append inserts the message.
func (s *PostgresStore) Append(ctx context.Context, msg Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, room, sent_by, sent_at, seen_at, body)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.Room, msg.SentBy, msg.SentAt, msg.SeenAt, []byte(msg.Body),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// List returns up to limit messages for the room, oldest first.
func (s *PostgresStore) List(ctx context.Context, room string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultPerRoomLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, room, sent_by, sent_at, seen_at, body
		 FROM (
		     SELECT id, room, sent_by, sent_at, seen_at, body
		     FROM messages
		     WHERE room = $1
		     ORDER BY sent_at DESC
		     LIMIT $2
		 ) latest
		 ORDER BY sent_at ASC`,
		room, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		var body []byte
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.SentBy, &msg.SentAt, &msg.SeenAt, &body); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Body = body
		out = append(out, msg)
	}

	return out, rows.Err()
}
