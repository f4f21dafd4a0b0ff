package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/skylinknet/pppmon/config"
	"github.com/skylinknet/pppmon/internal/logger"
)

// Store is the engine's view of the relational database. The tables
// themselves are owned by the administrative surface; the engine only
// needs the reads and targeted writes declared on this type.
type Store struct {
	db *sqlx.DB
}

// Connect opens the Postgres pool and verifies the connection.
func Connect(cfg *config.Database) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Pool != nil {
		db.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
		db.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
		db.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)
	}

	logger.StoreLog.Info("Database connection established")
	return &Store{db: db}, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
