// Package storage opens the client's local SQLite database and brings its
// schema up to date. The database survives restarts and is used only as a
// cache of the session; the server stays the source of truth.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/firestation/internal/client/migrations"
	"github.com/dmitrijs2005/firestation/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Open opens the SQLite database at dsn and migrates it. The directory
// of a file path is created when missing.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	// A single writer keeps SQLite free of "database is locked" errors
	// when the poller and the REPL persist at the same time.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
