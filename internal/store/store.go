package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const driverName = "sqlite"

func init() {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		panic(err)
	}
}

// Store owns the single SQLite connection and every write to it.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Store)

// WithLogger sets the logger used for migration and lifecycle messages.
func WithLogger(lg *slog.Logger) Option {
	return func(s *Store) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithClock replaces time.Now for timestamps and snooze checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator used for new entities.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: in-memory databases are per connection, and the store
	// is single-process.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:     db,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.logger.Debug("store opened", "path", dbPath)
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	goose.SetLogger(goose.NopLogger())
	if err := goose.UpContext(context.Background(), s.db.DB, "migrations"); err != nil {
		return err
	}
	version, err := goose.GetDBVersion(s.db.DB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	s.logger.Debug("schema migrated", "version", version)
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (int64, error) {
	return goose.GetDBVersion(s.db.DB)
}

// clock returns the current time truncated to the stored precision.
func (s *Store) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// DefaultDBPath returns ~/.config/ctxstore/context.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "ctxstore", "context.db"), nil
}

// queryOne scans a single row and converts it. No row is (nil, nil).
func queryOne[R, M any](db *sqlx.DB, conv func(R) (M, error), query string, args ...any) (*M, error) {
	var row R
	err := db.Get(&row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := conv(row)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func queryAll[R, M any](db *sqlx.DB, conv func(R) (M, error), query string, args ...any) ([]M, error) {
	var rows []R
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	var out []M
	for _, r := range rows {
		m, err := conv(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
