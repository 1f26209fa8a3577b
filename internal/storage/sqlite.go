package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/neexbeast/routecost/internal/location"
	"github.com/neexbeast/routecost/internal/storage/migrations"
)

// DefaultSQLitePath is the database file used when none is configured.
const DefaultSQLitePath = "locations.db"

// SQLiteStore keeps location pairs in a local SQLite file.
type SQLiteStore struct {
	db   *sqlx.DB
	path string
}

var _ location.Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// EnsureSchema applies the embedded sqlite migrations. Each file runs in its own transaction.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	sub, err := fs.Sub(migrations.SQLite, "sqlite")
	if err != nil {
		return fmt.Errorf("opening sqlite migrations: %w", err)
	}

	files, err := migrationFiles(sub)
	if err != nil {
		return err
	}

	for _, f := range files {
		sql, err := fs.ReadFile(sub, f)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", f, err)
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction for %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, string(sql)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", f, err)
		}
	}

	return nil
}

// InsertIfAbsent inserts row unless its address pair already exists.
// It reports whether a new record was created.
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, row location.Row) (bool, error) {
	const q = `
		INSERT INTO location_pairs (departure_name, departure_address, arrival_name, arrival_address)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (departure_address, arrival_address) DO NOTHING
	`

	res, err := s.db.ExecContext(ctx, q, row.DepartureName, row.DepartureAddress, row.ArrivalName, row.ArrivalAddress)
	if err != nil {
		return false, fmt.Errorf("inserting location pair %q -> %q: %w", row.DepartureAddress, row.ArrivalAddress, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}

	return n == 1, nil
}

const selectPairs = `
	SELECT id, departure_name, departure_address, arrival_name, arrival_address,
	       distance, duration, fuel_cost
	FROM location_pairs
`

// ListAll returns every stored pair in insertion order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]location.Pair, error) {
	pairs := []location.Pair{}
	if err := s.db.SelectContext(ctx, &pairs, selectPairs+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("listing location pairs: %w", err)
	}
	return pairs, nil
}

// ListUnenriched returns pairs missing at least one metric.
func (s *SQLiteStore) ListUnenriched(ctx context.Context) ([]location.Pair, error) {
	const where = ` WHERE distance IS NULL OR duration IS NULL OR fuel_cost IS NULL ORDER BY id`

	pairs := []location.Pair{}
	if err := s.db.SelectContext(ctx, &pairs, selectPairs+where); err != nil {
		return nil, fmt.Errorf("listing unenriched location pairs: %w", err)
	}
	return pairs, nil
}

// UpdateMetrics sets all three metrics of one pair in a single statement.
// An unknown id is a no-op.
func (s *SQLiteStore) UpdateMetrics(ctx context.Context, id int64, m location.Metrics) error {
	const q = `UPDATE location_pairs SET distance = ?, duration = ?, fuel_cost = ? WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, q, m.Distance, m.Duration, m.FuelCost, id); err != nil {
		return fmt.Errorf("updating metrics for pair %d: %w", id, err)
	}

	return nil
}

// ClearAll deletes every pair.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM location_pairs`); err != nil {
		return fmt.Errorf("clearing location pairs: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
