package storage

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/routecost/internal/location"
	"github.com/neexbeast/routecost/internal/storage/migrations"
)

// Querier abstracts the subset of pgxpool.Pool used by PostgresStore.
// This allows injection of a mock in tests.
type Querier interface {
	MigrationPool
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresStore keeps location pairs in PostgreSQL.
type PostgresStore struct {
	q    Querier
	pool *pgxpool.Pool
}

var _ location.Store = (*PostgresStore)(nil)

// NewPostgresStore constructs a PostgresStore backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{q: pool, pool: pool}
}

// NewPostgresStoreWithQuerier constructs a PostgresStore with a custom Querier (for tests).
func NewPostgresStoreWithQuerier(q Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

// EnsureSchema applies the embedded postgres migrations.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	sub, err := fs.Sub(migrations.Postgres, "postgres")
	if err != nil {
		return fmt.Errorf("opening postgres migrations: %w", err)
	}
	return RunMigrations(ctx, s.q, sub)
}

// InsertIfAbsent inserts row unless its address pair already exists.
// It reports whether a new record was created.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, row location.Row) (bool, error) {
	const q = `
		INSERT INTO location_pairs (departure_name, departure_address, arrival_name, arrival_address)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (departure_address, arrival_address) DO NOTHING
	`

	tag, err := s.q.Exec(ctx, q, row.DepartureName, row.DepartureAddress, row.ArrivalName, row.ArrivalAddress)
	if err != nil {
		return false, fmt.Errorf("inserting location pair %q -> %q: %w", row.DepartureAddress, row.ArrivalAddress, err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListAll returns every stored pair in insertion order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]location.Pair, error) {
	const q = `
		SELECT id, departure_name, departure_address, arrival_name, arrival_address,
		       distance, duration, fuel_cost
		FROM location_pairs
		ORDER BY id
	`
	return s.list(ctx, q)
}

// ListUnenriched returns pairs missing at least one metric.
func (s *PostgresStore) ListUnenriched(ctx context.Context) ([]location.Pair, error) {
	const q = `
		SELECT id, departure_name, departure_address, arrival_name, arrival_address,
		       distance, duration, fuel_cost
		FROM location_pairs
		WHERE distance IS NULL OR duration IS NULL OR fuel_cost IS NULL
		ORDER BY id
	`
	return s.list(ctx, q)
}

func (s *PostgresStore) list(ctx context.Context, q string) ([]location.Pair, error) {
	rows, err := s.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying location pairs: %w", err)
	}
	defer rows.Close()

	results := []location.Pair{}
	for rows.Next() {
		var p location.Pair
		if err := rows.Scan(
			&p.ID,
			&p.DepartureName,
			&p.DepartureAddress,
			&p.ArrivalName,
			&p.ArrivalAddress,
			&p.Distance,
			&p.Duration,
			&p.FuelCost,
		); err != nil {
			return nil, fmt.Errorf("scanning location pair row: %w", err)
		}
		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating location pair rows: %w", err)
	}

	return results, nil
}

// UpdateMetrics sets all three metrics of one pair in a single statement.
// An unknown id is a no-op.
func (s *PostgresStore) UpdateMetrics(ctx context.Context, id int64, m location.Metrics) error {
	const q = `
		UPDATE location_pairs
		SET distance = $1, duration = $2, fuel_cost = $3
		WHERE id = $4
	`

	if _, err := s.q.Exec(ctx, q, m.Distance, m.Duration, m.FuelCost, id); err != nil {
		return fmt.Errorf("updating metrics for pair %d: %w", id, err)
	}

	return nil
}

// ClearAll deletes every pair.
func (s *PostgresStore) ClearAll(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM location_pairs`); err != nil {
		return fmt.Errorf("clearing location pairs: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.q.Ping(ctx)
}

// Close releases the pool, if the store owns one.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
