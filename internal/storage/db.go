package storage

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/routecost/internal/location"
)

// Supported values for Open's driver argument.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns a Store for the given driver with its schema applied.
// dsn is a file path for sqlite and a connection URL for postgres.
func Open(ctx context.Context, driver, dsn string) (location.Store, error) {
	switch driver {
	case DriverSQLite, "":
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		pool, err := Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		s := NewPostgresStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// MigrationPool is the minimal interface required to run migrations.
// *pgxpool.Pool satisfies this interface.
type MigrationPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Connect opens a pgxpool connection and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating pgxpool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// migrationFiles lists the .sql files at the root of fsys in lexicographic order.
func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// RunMigrations executes every .sql file in fsys in lexicographic order.
// Each file runs in its own transaction.
func RunMigrations(ctx context.Context, pool MigrationPool, fsys fs.FS) error {
	files, err := migrationFiles(fsys)
	if err != nil {
		return err
	}

	for _, f := range files {
		sql, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", f, err)
		}

		if err := runInTx(ctx, pool, string(sql)); err != nil {
			return fmt.Errorf("executing migration %s: %w", f, err)
		}
	}

	return nil
}

// runInTx runs the given SQL in a transaction, rolling back on failure.
func runInTx(ctx context.Context, pool MigrationPool, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("executing SQL: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
