package location

import (
	"context"
	"errors"
	"strconv"
)

// ErrNotFound is returned when a provider produced no usable geocode or route.
// Every failure class (transport, status, decoding, empty result) wraps it.
var ErrNotFound = errors.New("not found")

// ErrRunInProgress is returned when an enrichment run is already active.
var ErrRunInProgress = errors.New("enrichment run already in progress")

// Row is one positional spreadsheet row:
// [0] departure name, [1] departure address, [2] arrival name, [3] arrival address.
type Row struct {
	DepartureName    string `json:"departure_name"`
	DepartureAddress string `json:"departure_address"`
	ArrivalName      string `json:"arrival_name"`
	ArrivalAddress   string `json:"arrival_address"`
}

// Pair is a stored departure/arrival location pair.
// The metric fields are nil until enrichment succeeds.
type Pair struct {
	ID               int64  `json:"id" db:"id"`
	DepartureName    string `json:"departure_name" db:"departure_name"`
	DepartureAddress string `json:"departure_address" db:"departure_address"`
	ArrivalName      string `json:"arrival_name" db:"arrival_name"`
	ArrivalAddress   string `json:"arrival_address" db:"arrival_address"`
	Distance         *int64 `json:"distance" db:"distance"`
	Duration         *int64 `json:"duration" db:"duration"`
	FuelCost         *int64 `json:"fuel_cost" db:"fuel_cost"`
}

// Enriched reports whether all three metrics are set.
func (p Pair) Enriched() bool {
	return p.Distance != nil && p.Duration != nil && p.FuelCost != nil
}

// Metrics are the persisted enrichment results.
// Distance is in meters, Duration in milliseconds, FuelCost in provider currency units.
type Metrics struct {
	Distance int64 `json:"distance"`
	Duration int64 `json:"duration"`
	FuelCost int64 `json:"fuel_cost"`
}

// Coordinate is a transient geocoding result.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LngLat renders the coordinate as "lng,lat", the order the directions API expects.
func (c Coordinate) LngLat() string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// Route is the driving summary between two coordinates.
type Route struct {
	Distance  int64 `json:"distance"`
	Duration  int64 `json:"duration"`
	TollFare  int64 `json:"toll_fare"`
	TaxiFare  int64 `json:"taxi_fare"`
	FuelPrice int64 `json:"fuel_price"`
}

// Metrics keeps the fields that are persisted. Toll and taxi fares are dropped.
func (r Route) Metrics() Metrics {
	return Metrics{Distance: r.Distance, Duration: r.Duration, FuelCost: r.FuelPrice}
}

// Store persists location pairs. It assumes a single writer.
type Store interface {
	EnsureSchema(ctx context.Context) error
	InsertIfAbsent(ctx context.Context, row Row) (bool, error)
	ListAll(ctx context.Context) ([]Pair, error)
	ListUnenriched(ctx context.Context) ([]Pair, error)
	UpdateMetrics(ctx context.Context, id int64, m Metrics) error
	ClearAll(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
