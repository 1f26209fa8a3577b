package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/neexbeast/routecost/internal/location"
	"github.com/neexbeast/routecost/internal/metrics"
)

// Failure stages.
const (
	StageGeocodeDeparture = "geocode-departure"
	StageGeocodeArrival   = "geocode-arrival"
	StageRoute            = "route"
	StageStore            = "store"
)

// Geocoder resolves an address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (location.Coordinate, error)
}

// Router computes a driving summary between two coordinates.
type Router interface {
	Route(ctx context.Context, from, to location.Coordinate) (location.Route, error)
}

// Store is the slice of location.Store the driver reads and writes.
type Store interface {
	ListAll(ctx context.Context) ([]location.Pair, error)
	ListUnenriched(ctx context.Context) ([]location.Pair, error)
	UpdateMetrics(ctx context.Context, id int64, m location.Metrics) error
}

// Failure records why one row was left unenriched.
type Failure struct {
	ID     int64  `json:"id"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// Report summarizes one enrichment run.
type Report struct {
	RunID    uuid.UUID `json:"run_id"`
	Scanned  int       `json:"scanned"`
	Enriched int       `json:"enriched"`
	Failures []Failure `json:"failures"`
}

// Driver fills in distance, duration and fuel cost for unenriched pairs.
type Driver struct {
	store    Store
	geocoder Geocoder
	router   Router
	log      *slog.Logger

	running sync.Mutex
}

// NewDriver constructs a Driver.
func NewDriver(store Store, geocoder Geocoder, router Router, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{store: store, geocoder: geocoder, router: router, log: log}
}

// Run enriches every unenriched pair once, in id order.
// A row whose geocode or route lookup fails is skipped and reported; nothing is written for it.
// Only one run may be active at a time; a concurrent call returns location.ErrRunInProgress.
// Cancellation is checked between rows, and the partial report is returned with ctx.Err().
func (d *Driver) Run(ctx context.Context) (Report, error) {
	if !d.running.TryLock() {
		return Report{}, location.ErrRunInProgress
	}
	defer d.running.Unlock()

	report := Report{RunID: uuid.New(), Failures: []Failure{}}
	log := d.log.With("run_id", report.RunID)

	pairs, err := d.store.ListUnenriched(ctx)
	if err != nil {
		return report, fmt.Errorf("listing unenriched pairs: %w", err)
	}
	log.Info("enrichment started", "pending", len(pairs))

	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			log.Warn("enrichment cancelled", "scanned", report.Scanned, "err", err)
			return report, err
		}
		report.Scanned++

		stage, err := d.enrichOne(ctx, p)
		if err != nil {
			if stage == StageStore {
				return report, err
			}
			log.Warn("row skipped", "id", p.ID, "stage", stage, "err", err)
			report.Failures = append(report.Failures, Failure{ID: p.ID, Stage: stage, Reason: err.Error()})
			metrics.EnrichmentRow(metrics.OutcomeSkipped)
			continue
		}
		report.Enriched++
		metrics.EnrichmentRow(metrics.OutcomeEnriched)
	}

	log.Info("enrichment finished",
		"scanned", report.Scanned,
		"enriched", report.Enriched,
		"skipped", len(report.Failures),
	)
	return report, nil
}

// enrichOne geocodes both ends, routes between them and persists the result.
// On failure it returns the stage that failed.
func (d *Driver) enrichOne(ctx context.Context, p location.Pair) (string, error) {
	from, err := d.geocoder.Geocode(ctx, p.DepartureAddress)
	if err != nil {
		return StageGeocodeDeparture, err
	}
	to, err := d.geocoder.Geocode(ctx, p.ArrivalAddress)
	if err != nil {
		return StageGeocodeArrival, err
	}

	route, err := d.router.Route(ctx, from, to)
	if err != nil {
		return StageRoute, err
	}

	if err := d.store.UpdateMetrics(ctx, p.ID, route.Metrics()); err != nil {
		return StageStore, fmt.Errorf("storing metrics for pair %d: %w", p.ID, err)
	}
	return "", nil
}
