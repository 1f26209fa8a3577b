package api

import (
	"context"

	"github.com/neexbeast/routecost/internal/enrich"
	"github.com/neexbeast/routecost/internal/location"
)

// LocationStore defines the storage operations needed by handlers.
type LocationStore interface {
	InsertIfAbsent(ctx context.Context, row location.Row) (bool, error)
	ListAll(ctx context.Context) ([]location.Pair, error)
	ListUnenriched(ctx context.Context) ([]location.Pair, error)
	ClearAll(ctx context.Context) error
}

// Enricher defines the enrichment operations needed by handlers.
type Enricher interface {
	Run(ctx context.Context) (enrich.Report, error)
	Markers(ctx context.Context) ([]enrich.Marker, error)
}

// Pinger is a dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
