// Package postgres persists discovered listings in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/scout"
)

// DB is the slice of the pgx pool the store uses. pgxmock satisfies it in
// tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// BusinessStore writes listings to the businesses table, deduplicating on
// the normalized website.
//
// It assumes a table schema like:
//
//	CREATE TABLE businesses (
//		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//		name TEXT NOT NULL,
//		website TEXT NOT NULL UNIQUE,
//		phone TEXT,
//		source TEXT NOT NULL,
//		location TEXT NOT NULL,
//		first_seen_at TIMESTAMPTZ DEFAULT NOW(),
//		last_seen_at TIMESTAMPTZ DEFAULT NOW()
//	);
type BusinessStore struct {
	db     DB
	logger *zap.Logger
}

const upsertSQL = `
	INSERT INTO businesses (name, website, phone, source, location, last_seen_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (website) DO UPDATE SET
		name = EXCLUDED.name,
		phone = EXCLUDED.phone,
		source = EXCLUDED.source,
		location = EXCLUDED.location,
		last_seen_at = NOW()
`

// NewBusinessStore builds a store over an established pool.
func NewBusinessStore(db DB, logger *zap.Logger) *BusinessStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusinessStore{db: db, logger: logger}
}

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// UpsertByWebsite writes each listing, updating existing rows that share the
// same website. Records without a website are skipped: there is nothing to
// deduplicate on.
func (s *BusinessStore) UpsertByWebsite(ctx context.Context, location string, businesses []scout.Business) error {
	for _, b := range businesses {
		if b.Website == "" {
			s.logger.Debug("skipping record without website", zap.String("name", b.Name))
			continue
		}
		if _, err := s.db.Exec(ctx, upsertSQL, b.Name, b.Website, b.Phone, b.Source, location); err != nil {
			return fmt.Errorf("upsert business %q: %w", b.Website, err)
		}
	}
	return nil
}
