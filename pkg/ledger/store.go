package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"tickerwire/llmgateway/pkg/gateway"
)

// Config contains configuration for the usage store.
type Config struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int

	// BusyTimeout is how long a writer waits for the database lock.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// Now overrides the clock used to timestamp records.
	Now func() time.Time

	Logger *slog.Logger
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Path:         "data/usage.db",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		BusyTimeout:  5 * time.Second,
	}
}

// Store is a SQLite-backed usage ledger. It implements gateway.Observer.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt
	now    func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ gateway.Observer = (*Store)(nil)

// Open opens or creates the database at cfg.Path and applies the schema.
func Open(cfg Config) (*Store, error) {
	def := DefaultConfig()
	if cfg.Path == "" {
		cfg.Path = def.Path
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = def.MaxOpenConns
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = def.BusyTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "ledger")

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, storageError("open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &Store{db: db, now: cfg.Now, logger: logger}
	if err := s.initialize(cfg.BusyTimeout); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("usage ledger opened", "path", cfg.Path)
	return s, nil
}

func (s *Store) initialize(busyTimeout time.Duration) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return storageError("enable_wal", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return storageError("set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return storageError("create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return storageError("insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return storageError("get_schema_version", err)
	}
	if version != SchemaVersion {
		return storageError("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	stmt, err := s.db.Prepare(insertRecord)
	if err != nil {
		return storageError("prepare_insert", err)
	}
	s.insert = stmt
	return nil
}

// Append persists rec. A missing ID or timestamp is filled in.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now()
	}
	at := rec.RecordedAt.UTC()

	_, err := s.insert.ExecContext(ctx,
		rec.ID, rec.RequestID, at.UnixNano(), at.Format(dayLayout),
		rec.Feature, nullable(rec.Provider), nullable(rec.Model), nullable(rec.Tier),
		rec.Cached, rec.Failed, rec.SafetyBlocked, nullable(rec.ErrorKind),
		rec.TokensIn, rec.TokensOut, rec.CostUSD, rec.LatencyMS, rec.Retries,
	)
	if err != nil {
		return storageError("insert", err)
	}
	return nil
}

// ObserveResponse records every finalized response except those refused
// because the gateway was disabled.
func (s *Store) ObserveResponse(ctx context.Context, req gateway.Request, resp gateway.Response) error {
	if resp.ErrorKind == "disabled" {
		return nil
	}
	return s.Append(ctx, FromResponse(req, resp))
}

// Daily rolls usage up by UTC day and provider, newest day first.
func (s *Store) Daily(ctx context.Context, f Filter) ([]DailyUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var (
		conds []string
		args  []any
	)
	if !f.Since.IsZero() {
		conds = append(conds, "day >= ?")
		args = append(args, f.Since.UTC().Format(dayLayout))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "day <= ?")
		args = append(args, f.Until.UTC().Format(dayLayout))
	}
	if f.Feature != "" {
		conds = append(conds, "feature = ?")
		args = append(args, f.Feature)
	}

	query := `SELECT day, COALESCE(provider, ''),
		COUNT(*), SUM(cached), SUM(failed),
		SUM(tokens_in), SUM(tokens_out), SUM(cost_usd)
		FROM usage_records`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " GROUP BY day, COALESCE(provider, '') ORDER BY day DESC, 2 ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("rollup", err)
	}
	defer rows.Close()

	var out []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Day, &u.Provider, &u.Requests, &u.CacheHits, &u.Errors,
			&u.TokensIn, &u.TokensOut, &u.CostUSD); err != nil {
			return nil, storageError("rollup_scan", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("rollup", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_records").Scan(&n); err != nil {
		return 0, storageError("count", err)
	}
	return n, nil
}

// Prune deletes records older than retention and returns how many were
// removed. A non-positive retention keeps everything.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	cutoff := s.now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, "DELETE FROM usage_records WHERE recorded_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, storageError("prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError("prune", err)
	}
	if n > 0 {
		s.logger.Info("pruned usage records", "deleted", n, "cutoff", cutoff)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

// Close releases the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.insert != nil {
		errs = append(errs, s.insert.Close())
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, storageError("close", err))
	}
	return errors.Join(errs...)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
