package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-showcase/internal/storage"
)

var memoryDBSeq atomic.Int64

// NewSQLiteMemoryDB opens a fresh named in-memory database. Each call gets
// its own database so parallel tests do not share tables.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	name := fmt.Sprintf("file:showcase_test_%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
	return sql.Open("sqlite3", name)
}

// NewBunDB returns a migrated bun handle over a fresh in-memory database.
func NewBunDB(tb testing.TB, tables ...storage.Table) *bun.DB {
	tb.Helper()

	sqlDB, err := NewSQLiteMemoryDB()
	if err != nil {
		tb.Fatalf("new sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	tb.Cleanup(func() { _ = db.Close() })

	if err := storage.Migrate(context.Background(), db, tables...); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}
