package enrich

import (
	"context"
	"fmt"

	"github.com/mmcloughlin/geohash"
)

// DefaultCenter is where a map view starts when there are no markers (Seoul City Hall).
var DefaultCenter = Marker{Name: "Seoul", Lat: 37.5665, Lon: 126.9780, Geohash: geohash.EncodeWithPrecision(37.5665, 126.9780, geohashPrecision)}

// geohashPrecision of 7 is roughly a 150m cell.
const geohashPrecision = 7

// Marker is an arrival location placed on a map.
type Marker struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Geohash string  `json:"geohash"`
}

// Markers geocodes the arrival address of every stored pair.
// Pairs whose address cannot be geocoded are left out.
func (d *Driver) Markers(ctx context.Context) ([]Marker, error) {
	pairs, err := d.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pairs: %w", err)
	}

	markers := make([]Marker, 0, len(pairs))
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return markers, err
		}

		c, err := d.geocoder.Geocode(ctx, p.ArrivalAddress)
		if err != nil {
			d.log.Warn("marker skipped", "id", p.ID, "err", err)
			continue
		}
		markers = append(markers, Marker{
			ID:      p.ID,
			Name:    p.ArrivalName,
			Address: p.ArrivalAddress,
			Lat:     c.Lat,
			Lon:     c.Lon,
			Geohash: geohash.EncodeWithPrecision(c.Lat, c.Lon, geohashPrecision),
		})
	}

	return markers, nil
}
