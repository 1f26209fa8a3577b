package enrich_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/routecost/internal/enrich"
	"github.com/neexbeast/routecost/internal/location"
	"github.com/neexbeast/routecost/internal/storage"
)

// ---- stubs ----

type stubGeocoder struct {
	mu     sync.Mutex
	coords map[string]location.Coordinate
	fixed  *location.Coordinate
	calls  []string
	onCall func()
}

func (g *stubGeocoder) Geocode(_ context.Context, address string) (location.Coordinate, error) {
	g.mu.Lock()
	g.calls = append(g.calls, address)
	g.mu.Unlock()
	if g.onCall != nil {
		g.onCall()
	}
	if g.fixed != nil {
		return *g.fixed, nil
	}
	if c, ok := g.coords[address]; ok {
		return c, nil
	}
	return location.Coordinate{}, fmt.Errorf("geocode %q: %w", address, location.ErrNotFound)
}

type stubRouter struct {
	route location.Route
	err   error
	calls int
}

func (r *stubRouter) Route(_ context.Context, _, _ location.Coordinate) (location.Route, error) {
	r.calls++
	return r.route, r.err
}

// ---- helpers ----

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var seoul = location.Coordinate{Lat: 37.5665, Lon: 126.9780}

var fixedRoute = location.Route{Distance: 1000, Duration: 60000, TollFare: 700, TaxiFare: 9000, FuelPrice: 5000}

func newStore(t *testing.T, rows ...location.Row) *storage.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "locations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for _, r := range rows {
		_, err := s.InsertIfAbsent(ctx, r)
		require.NoError(t, err)
	}
	return s
}

func pair(dep, arr string) location.Row {
	return location.Row{DepartureName: dep, DepartureAddress: dep + " addr", ArrivalName: arr, ArrivalAddress: arr + " addr"}
}

func assertAllOrNothing(t *testing.T, pairs []location.Pair) {
	t.Helper()
	for _, p := range pairs {
		set := 0
		for _, m := range []*int64{p.Distance, p.Duration, p.FuelCost} {
			if m != nil {
				set++
			}
		}
		assert.Contains(t, []int{0, 3}, set, "pair %d has %d of 3 metrics", p.ID, set)
	}
}

// ---- Run ----

func TestRun_EnrichesWithStubbedProviders(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, pair("A", "B"))
	router := &stubRouter{route: fixedRoute}

	d := enrich.NewDriver(store, &stubGeocoder{fixed: &seoul}, router, discard)
	report, err := d.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Enriched)
	assert.Empty(t, report.Failures)
	assert.NotEqual(t, uuid.Nil, report.RunID)

	pairs, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.True(t, pairs[0].Enriched())
	assert.Equal(t, int64(1000), *pairs[0].Distance)
	assert.Equal(t, int64(60000), *pairs[0].Duration)
	assert.Equal(t, int64(5000), *pairs[0].FuelCost)
}

func TestRun_GeocodeNotFoundLeavesRowsNull(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, pair("A", "B"), pair("C", "D"))
	router := &stubRouter{route: fixedRoute}

	d := enrich.NewDriver(store, &stubGeocoder{}, router, discard)
	report, err := d.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Zero(t, report.Enriched)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, enrich.StageGeocodeDeparture, report.Failures[0].Stage)
	assert.Contains(t, report.Failures[0].Reason, "not found")
	assert.Zero(t, router.calls)

	pairs, err := store.ListAll(ctx)
	require.NoError(t, err)
	for _, p := range pairs {
		assert.Nil(t, p.Distance)
		assert.Nil(t, p.Duration)
		assert.Nil(t, p.FuelCost)
	}
}

func TestRun_ArrivalFailureIsReportedAndNotWritten(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, pair("A", "B"))
	geo := &stubGeocoder{coords: map[string]location.Coordinate{"A addr": seoul}}

	d := enrich.NewDriver(store, geo, &stubRouter{route: fixedRoute}, discard)
	report, err := d.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, enrich.StageGeocodeArrival, report.Failures[0].Stage)
	assert.Equal(t, []string{"A addr", "B addr"}, geo.calls)

	pending, err := store.ListUnenriched(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRun_RouteNotFoundSkipsRow(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, pair("A", "B"))
	router := &stubRouter{err: fmt.Errorf("route: %w", location.ErrNotFound)}

	d := enrich.NewDriver(store, &stubGeocoder{fixed: &seoul}, router, discard)
	report, err := d.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, enrich.StageRoute, report.Failures[0].Stage)

	pairs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assertAllOrNothing(t, pairs)
	assert.False(t, pairs[0].Enriched())
}

func TestRun_PartialRunThenRetry(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, pair("A", "B"), pair("C", "D"), pair("E", "F"))

	// C cannot be geocoded on the first pass.
	geo := &stubGeocoder{coords: map[string]location.Coordinate{
		"A addr": seoul, "B addr": seoul, "D addr": seoul, "E addr": seoul, "F addr": seoul,
	}}
	d := enrich.NewDriver(store, geo, &stubRouter{route: fixedRoute}, discard)

	report, err := d.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Enriched)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assertAllOrNothing(t, all)

	pending, err := store.ListUnenriched(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "C", pending[0].DepartureName)
	assert.Equal(t, all[1].ID, pending[0].ID)

	// Second pass only revisits the pending row.
	geo.coords["C addr"] = seoul
	geo.calls = nil
	report, err = d.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Enriched)
	assert.Equal(t, []string{"C addr", "D addr"}, geo.calls)

	pending, err = store.ListUnenriched(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRun_NothingPending(t *testing.T) {
	d := enrich.NewDriver(newStore(t), &stubGeocoder{fixed: &seoul}, &stubRouter{route: fixedRoute}, discard)

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.NotNil(t, report.Failures)
}

// cancellingStore cancels the run right after the first successful write.
type cancellingStore struct {
	*storage.SQLiteStore
	cancel context.CancelFunc
}

func (s *cancellingStore) UpdateMetrics(ctx context.Context, id int64, m location.Metrics) error {
	err := s.SQLiteStore.UpdateMetrics(ctx, id, m)
	s.cancel()
	return err
}

func TestRun_CancelledBetweenRows(t *testing.T) {
	store := newStore(t, pair("A", "B"), pair("C", "D"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := enrich.NewDriver(&cancellingStore{SQLiteStore: store, cancel: cancel}, &stubGeocoder{fixed: &seoul}, &stubRouter{route: fixedRoute}, discard)

	report, err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Scanned)

	pending, err := store.ListUnenriched(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "C", pending[0].DepartureName)
}

func TestRun_SecondConcurrentRunIsRejected(t *testing.T) {
	store := newStore(t, pair("A", "B"))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	geo := &stubGeocoder{fixed: &seoul, onCall: func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}}
	d := enrich.NewDriver(store, geo, &stubRouter{route: fixedRoute}, discard)

	done := make(chan error, 1)
	go func() {
		_, err := d.Run(context.Background())
		done <- err
	}()

	<-entered
	_, err := d.Run(context.Background())
	assert.ErrorIs(t, err, location.ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)

	// The lock is released once the first run finishes.
	_, err = d.Run(context.Background())
	assert.NoError(t, err)
}

type failingStore struct {
	pairs     []location.Pair
	listErr   error
	updateErr error
}

func (s *failingStore) ListAll(_ context.Context) ([]location.Pair, error) { return s.pairs, s.listErr }
func (s *failingStore) ListUnenriched(_ context.Context) ([]location.Pair, error) {
	return s.pairs, s.listErr
}
func (s *failingStore) UpdateMetrics(_ context.Context, _ int64, _ location.Metrics) error {
	return s.updateErr
}

func TestRun_ListError(t *testing.T) {
	d := enrich.NewDriver(&failingStore{listErr: fmt.Errorf("db gone")}, &stubGeocoder{}, &stubRouter{}, discard)

	_, err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing unenriched pairs")
}

func TestRun_StoreErrorAbortsRun(t *testing.T) {
	store := &failingStore{
		pairs:     []location.Pair{{ID: 1, DepartureAddress: "a", ArrivalAddress: "b"}, {ID: 2}},
		updateErr: fmt.Errorf("disk full"),
	}
	d := enrich.NewDriver(store, &stubGeocoder{fixed: &seoul}, &stubRouter{route: fixedRoute}, discard)

	report, err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storing metrics for pair 1")
	assert.Equal(t, 1, report.Scanned)
}
