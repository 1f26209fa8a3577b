package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/neexbeast/routecost/internal/config"
	"github.com/neexbeast/routecost/internal/enrich"
	"github.com/neexbeast/routecost/internal/location"
)

type stubGeocoder struct{ fail map[string]bool }

func (g stubGeocoder) Geocode(_ context.Context, address string) (location.Coordinate, error) {
	if g.fail[address] {
		return location.Coordinate{}, fmt.Errorf("geocode %q: %w", address, location.ErrNotFound)
	}
	return location.Coordinate{Lat: 37.5665, Lon: 126.9780}, nil
}

type stubRouter struct{}

func (stubRouter) Route(_ context.Context, _, _ location.Coordinate) (location.Route, error) {
	return location.Route{Distance: 1000, Duration: 60000, FuelPrice: 5000}, nil
}

// setupCLI points the CLI at a fresh SQLite file and stubbed providers.
func setupCLI(t *testing.T, geo stubGeocoder) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "locations.db"))
	t.Setenv("REDIS_URL", "")

	oldProviders := providers
	providers = func(_ context.Context, _ config.Config, _ *slog.Logger) (enrich.Geocoder, enrich.Router, func(), error) {
		return geo, stubRouter{}, func() {}, nil
	}
	t.Cleanup(func() { providers = oldProviders })
	return dir
}

// execute runs routectl with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ingestSkipHeader, ingestSheet, listUnenriched, clearYes = false, "", false, false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}, args...))
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeWorkbook(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(dir, "locations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "routectl", rootCmd.Use)
	names := []string{}
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"ingest", "enrich", "list", "clear", "markers"})
}

func TestIngestEnrichList(t *testing.T) {
	dir := setupCLI(t, stubGeocoder{fail: map[string]bool{"Addr3": true}})
	path := writeWorkbook(t, dir, [][]any{
		{"출발지", "출발지 주소", "도착지", "도착지 주소"},
		{"A", "Addr1", "B", "Addr2"},
		{"A", "Addr1", "B", "Addr2"},
		{"C", "Addr3", "D", "Addr4"},
	})

	out, err := execute(t, "ingest", "--skip-header", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 2, duplicates 1.")

	out, err = execute(t, "enrich")
	require.NoError(t, err)
	assert.Contains(t, out, "scanned 2, enriched 1, skipped 1.")
	assert.Contains(t, out, "geocode-departure")

	out, err = execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "DISTANCE (m)")
	assert.Contains(t, out, "1000")
	assert.Contains(t, out, "60000")
	assert.Contains(t, out, "5000")

	out, err = execute(t, "list", "--unenriched")
	require.NoError(t, err)
	assert.Contains(t, out, "Addr3")
	assert.NotContains(t, out, "Addr1")
}

func TestIngest_MissingFile(t *testing.T) {
	dir := setupCLI(t, stubGeocoder{})

	_, err := execute(t, "ingest", filepath.Join(dir, "nope.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening workbook")
}

func TestIngest_ReportsShortRows(t *testing.T) {
	dir := setupCLI(t, stubGeocoder{})
	path := writeWorkbook(t, dir, [][]any{{"A", "Addr1", "B"}})

	out, err := execute(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 0, duplicates 0.")
	assert.Contains(t, out, "row 1 skipped: missing arrival address")
}

func TestClear_RequiresYes(t *testing.T) {
	dir := setupCLI(t, stubGeocoder{})
	path := writeWorkbook(t, dir, [][]any{{"A", "Addr1", "B", "Addr2"}})
	_, err := execute(t, "ingest", path)
	require.NoError(t, err)

	_, err = execute(t, "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out, err := execute(t, "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All location pairs deleted.")

	out, err = execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No location pairs.")
}

func TestMarkers(t *testing.T) {
	dir := setupCLI(t, stubGeocoder{})
	path := writeWorkbook(t, dir, [][]any{{"A", "Addr1", "B", "Addr2"}})
	_, err := execute(t, "ingest", path)
	require.NoError(t, err)

	out, err := execute(t, "markers")
	require.NoError(t, err)
	assert.Contains(t, out, "GEOHASH")
	assert.Contains(t, out, "wydm9qy")
	assert.Contains(t, out, "37.566500")
}

func TestMetric(t *testing.T) {
	v := int64(42)
	assert.Equal(t, "42", metric(&v))
	assert.Equal(t, "-", metric(nil))
}
