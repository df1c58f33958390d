// Package store provides an optional TTL cache for retrieval batches,
// keyed by query. The pipeline runs without one; a nil Store disables
// caching entirely.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
)

// Store is the retrieval cache interface.
type Store interface {
	// GetBatch returns the cached results for a key, or nil on a miss or
	// expired entry.
	GetBatch(ctx context.Context, key string) ([]model.RawResult, error)
	// SetBatch caches results under a key. A zero ttl uses the store default.
	SetBatch(ctx context.Context, key string, results []model.RawResult, ttl time.Duration) error
	// DeleteExpired removes expired entries, returning the count removed.
	DeleteExpired(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store from configuration. An empty driver returns
// (nil, nil): caching disabled.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		s, err := NewSQLite(cfg.DSN, ttl)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DSN, ttl)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown cache driver %q", cfg.Driver)
	}
}
