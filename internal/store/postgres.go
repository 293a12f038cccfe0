package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

// Postgres keeps signal documents as JSONB rows of the documents table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, pings and migrates.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Postgres{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Postgres) Close() { s.pool.Close() }

func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *Postgres) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
		Collection, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %w", ErrUnavailable, id, err)
	}
	return exists, nil
}

// Put writes the full document. A second write to the same id replaces the body.
func (s *Postgres) Put(ctx context.Context, sig monitor.Signal) error {
	body, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrUnavailable, sig.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body`,
		Collection, sig.ID, string(body))
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrUnavailable, sig.ID, err)
	}
	return nil
}

func (s *Postgres) Recent(ctx context.Context, limit int) ([]monitor.Signal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT body FROM documents
		WHERE collection = $1
		ORDER BY (body->>'timestamp')::bigint DESC, id
		LIMIT $2`, Collection, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var signals []monitor.Signal
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("%w: recent: %w", ErrUnavailable, err)
		}
		var sig monitor.Signal
		if err := json.Unmarshal(body, &sig); err != nil {
			return nil, fmt.Errorf("decode signal document: %w", err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: recent: %w", ErrUnavailable, err)
	}
	return signals, nil
}
