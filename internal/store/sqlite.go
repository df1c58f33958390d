package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/entity-intel/internal/model"
)

// SQLiteStore caches retrieval batches in a local SQLite file. Suited to
// single-process CLI runs where standing up Postgres is overkill.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens (or creates) the database at path.
func NewSQLite(path string, ttl time.Duration) (*SQLiteStore, error) {
	if path == "" {
		path = "entity-intel-cache.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}

	// Single writer; WAL keeps concurrent readers from blocking it.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "store: %s", pragma)
		}
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SQLiteStore{db: db, ttl: ttl}, nil
}

// Migrate creates the cache table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS retrieval_cache (
	key        TEXT PRIMARY KEY,
	results    TEXT NOT NULL,
	expires_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_retrieval_cache_expires ON retrieval_cache (expires_at);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

// GetBatch returns cached results for key, or nil on a miss.
func (s *SQLiteStore) GetBatch(ctx context.Context, key string) ([]model.RawResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT results FROM retrieval_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().UTC(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get batch")
	}

	var results []model.RawResult
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		// Corrupt entry: treat as a miss rather than failing the run.
		zap.L().Warn("dropping corrupt cache entry", zap.String("key", key))
		_, _ = s.db.ExecContext(ctx, `DELETE FROM retrieval_cache WHERE key = ?`, key)
		return nil, nil
	}
	return results, nil
}

// SetBatch caches results under key. A zero ttl uses the store default.
func (s *SQLiteStore) SetBatch(ctx context.Context, key string, results []model.RawResult, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}
	payload, err := json.Marshal(results)
	if err != nil {
		return eris.Wrap(err, "store: marshal results")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO retrieval_cache (key, results, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET results = excluded.results, expires_at = excluded.expires_at`,
		key, string(payload), time.Now().UTC().Add(ttl),
	)
	if err != nil {
		return eris.Wrap(err, "store: set batch")
	}
	return nil
}

// DeleteExpired removes expired entries and reports the count removed.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM retrieval_cache WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "store: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "store: rows affected")
	}
	return int(n), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
