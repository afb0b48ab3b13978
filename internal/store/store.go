// Package store selects and opens the configured entity store backend.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/transitdir/internal/config"
	"github.com/JonMunkholm/transitdir/internal/core"
	"github.com/JonMunkholm/transitdir/internal/store/memstore"
	"github.com/JonMunkholm/transitdir/internal/store/pgstore"
)

// Backend is an entity store that also persists tokens.
type Backend interface {
	core.EntityStore
	core.TokenSource
	AddToken(ctx context.Context, token int64) error
}

// Open returns the backend named by cfg.Store.Backend. The postgres backend
// is connected, pinged and migrated before it is returned. The close
// function is never nil.
func Open(ctx context.Context, cfg *config.Config) (Backend, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			return nil, func() {}, err
		}
		s := pgstore.New(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("migrate: %w", err)
		}
		return s, pool.Close, nil
	case config.BackendMemory, "":
		return memstore.New(), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func connect(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnLifetime = db.MaxConnLifetime
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(db.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
