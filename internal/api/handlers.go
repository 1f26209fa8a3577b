package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/neexbeast/routecost/internal/enrich"
	"github.com/neexbeast/routecost/internal/ingest"
	"github.com/neexbeast/routecost/internal/location"
)

// maxUploadBytes caps the size of an uploaded workbook.
const maxUploadBytes = 32 << 20

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	store    LocationStore
	enricher Enricher
	log      *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(store LocationStore, enricher Enricher, log *slog.Logger) *Handlers {
	return &Handlers{
		store:    store,
		enricher: enricher,
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type uploadResponse struct {
	ingest.Result
	RowErrors []ingest.RowError `json:"row_errors"`
}

// Upload handles POST /api/v1/uploads.
// Expects a multipart "file" field holding an xlsx workbook.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ingest.Options{Sheet: q.Get("sheet")}
	if v := q.Get("skip_header"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "skip_header must be true or false")
			return
		}
		opts.SkipHeader = skip
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	sheet, err := ingest.ReadXLSX(file, opts)
	if err != nil {
		h.log.Warn("upload rejected", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := ingest.Ingest(r.Context(), h.store, sheet.Rows)
	if err != nil {
		h.log.Error("ingest failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store rows")
		return
	}

	rowErrors := sheet.Errors
	if rowErrors == nil {
		rowErrors = []ingest.RowError{}
	}
	h.log.Info("upload ingested",
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"row_errors", len(rowErrors),
	)
	writeJSON(w, http.StatusOK, uploadResponse{Result: res, RowErrors: rowErrors})
}

// ListLocations handles GET /api/v1/locations.
// ?unenriched=true limits the result to pairs still missing metrics.
func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	list := h.store.ListAll
	if v := r.URL.Query().Get("unenriched"); v != "" {
		unenriched, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unenriched must be true or false")
			return
		}
		if unenriched {
			list = h.store.ListUnenriched
		}
	}

	pairs, err := list(r.Context())
	if err != nil {
		h.log.Error("list locations failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, pairs)
}

// ClearLocations handles DELETE /api/v1/locations.
func (h *Handlers) ClearLocations(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAll(r.Context()); err != nil {
		h.log.Error("clear locations failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.log.Info("locations cleared")
	w.WriteHeader(http.StatusNoContent)
}

// RunEnrichment handles POST /api/v1/enrichments.
// The run is synchronous; the response is the run report.
func (h *Handlers) RunEnrichment(w http.ResponseWriter, r *http.Request) {
	report, err := h.enricher.Run(r.Context())
	switch {
	case errors.Is(err, location.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.log.Error("enrichment run failed", "run_id", report.RunID, "err", err)
		writeError(w, http.StatusInternalServerError, "enrichment run failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type markersResponse struct {
	Center  enrich.Marker   `json:"center"`
	Markers []enrich.Marker `json:"markers"`
}

// Markers handles GET /api/v1/markers.
// The map centers on the first marker, or on Seoul when there is none.
func (h *Handlers) Markers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.enricher.Markers(r.Context())
	if err != nil {
		h.log.Error("markers failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	center := enrich.DefaultCenter
	if len(markers) > 0 {
		center = markers[0]
	}
	writeJSON(w, http.StatusOK, markersResponse{Center: center, Markers: markers})
}

// HealthHandlerFunc returns an http.HandlerFunc that checks store and cache connectivity.
// A nil cache is reported as "disabled" and does not degrade the status.
func HealthHandlerFunc(db Pinger, cache Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		cacheStatus := "disabled"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if cache != nil {
			cacheStatus = "ok"
			if err := cache.Ping(ctx); err != nil {
				log.Error("health check: cache ping failed", "err", err)
				cacheStatus = "error"
				status = http.StatusServiceUnavailable
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"cache":  cacheStatus,
		})
	}
}
