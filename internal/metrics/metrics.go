package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeEnriched = "enriched"
	OutcomeSkipped  = "skipped"
)

var registry = prometheus.NewRegistry()

var (
	providerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routecost",
		Name:      "provider_requests_total",
		Help:      "Mapping provider requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	enrichmentRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routecost",
		Name:      "enrichment_rows_total",
		Help:      "Rows visited by enrichment runs by outcome.",
	}, []string{"outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		providerRequests,
		enrichmentRows,
	)
}

// ProviderRequest counts one call to a provider endpoint.
func ProviderRequest(endpoint, outcome string) {
	providerRequests.WithLabelValues(endpoint, outcome).Inc()
}

// EnrichmentRow counts one row visited by the enrichment driver.
func EnrichmentRow(outcome string) {
	enrichmentRows.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
