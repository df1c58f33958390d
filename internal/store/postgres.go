package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/entity-intel/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore caches retrieval batches in Postgres, for deployments where
// several server replicas share one cache.
type PostgresStore struct {
	pool    Pool
	ttl     time.Duration
	closeFn func()
}

var _ Store = (*PostgresStore)(nil)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"get_batch":      `SELECT results FROM retrieval_cache WHERE key = $1 AND expires_at > now()`,
	"set_batch":      `INSERT INTO retrieval_cache (key, results, cached_at, expires_at) VALUES ($1, $2, $3, $4) ON CONFLICT (key) DO UPDATE SET results = $2, cached_at = $3, expires_at = $4`,
	"delete_expired": `DELETE FROM retrieval_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PostgresStore{pool: pool, ttl: ttl, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PostgresStore{pool: pool, ttl: ttl}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS retrieval_cache (
	key        TEXT PRIMARY KEY,
	results    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_retrieval_cache_expires_at ON retrieval_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, key string) ([]model.RawResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT results FROM retrieval_cache WHERE key = $1 AND expires_at > now()`,
		key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get batch")
	}

	var results []model.RawResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached results")
	}
	return results, nil
}

func (s *PostgresStore) SetBatch(ctx context.Context, key string, results []model.RawResult, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}
	payload, err := json.Marshal(results)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal results")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO retrieval_cache (key, results, cached_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET results = $2, cached_at = $3, expires_at = $4`,
		key, payload, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set batch")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM retrieval_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}
