package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/runtimeconfig"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Option customises Open.
type Option func(*options)

type options struct {
	logger interfaces.Logger
}

// WithLogger routes debug query logging to logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open connects to the configured database and returns a bun handle using the
// matching dialect.
func Open(cfg runtimeconfig.StorageConfig, opts ...Option) (*bun.DB, error) {
	o := options{logger: logging.NoOp()}
	for _, opt := range opts {
		opt(&o)
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)

	var db *bun.DB
	switch driver {
	case "", DriverSQLite:
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case DriverPostgres:
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}

	if cfg.Debug {
		db.AddQueryHook(&queryLogger{logger: o.logger})
	}
	return db, nil
}

// Table describes a model whose table Migrate creates, plus its indexes.
type Table struct {
	Model   any
	Indexes []Index
}

// Index is created with IF NOT EXISTS after its table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Migrate creates every table and index that does not exist yet. Records are
// ephemeral so there is no versioned migration history.
func Migrate(ctx context.Context, db bun.IDB, tables ...Table) error {
	for _, table := range tables {
		if _, err := db.NewCreateTable().Model(table.Model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table %T: %w", table.Model, err)
		}
		for _, index := range table.Indexes {
			q := db.NewCreateIndex().
				Model(table.Model).
				Index(index.Name).
				Column(index.Columns...).
				IfNotExists()
			if index.Unique {
				q = q.Unique()
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("storage: create index %s: %w", index.Name, err)
			}
		}
	}
	return nil
}

type queryLogger struct {
	logger interfaces.Logger
}

var _ bun.QueryHook = (*queryLogger)(nil)

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	fields := map[string]any{
		"query":    event.Query,
		"duration": time.Since(event.StartTime).String(),
	}
	if event.Err != nil && event.Err != sql.ErrNoRows {
		logging.WithError(logging.WithFields(h.logger, fields), event.Err).Warn("storage.query.failed")
		return
	}
	logging.WithFields(h.logger, fields).Debug("storage.query")
}
