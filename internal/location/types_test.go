package location_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neexbeast/routecost/internal/location"
)

func ptr(v int64) *int64 { return &v }

func TestPair_Enriched(t *testing.T) {
	assert.False(t, location.Pair{}.Enriched())
	assert.False(t, location.Pair{Distance: ptr(1), Duration: ptr(2)}.Enriched(), "partial metrics are not enriched")
	assert.True(t, location.Pair{Distance: ptr(1), Duration: ptr(2), FuelCost: ptr(3)}.Enriched())
}

func TestCoordinate_LngLat(t *testing.T) {
	c := location.Coordinate{Lat: 37.5665, Lon: 126.978}
	assert.Equal(t, "126.978,37.5665", c.LngLat())
}

func TestRoute_Metrics_DropsFares(t *testing.T) {
	r := location.Route{Distance: 1000, Duration: 60000, TollFare: 900, TaxiFare: 12000, FuelPrice: 5000}
	assert.Equal(t, location.Metrics{Distance: 1000, Duration: 60000, FuelCost: 5000}, r.Metrics())
}
