// Package metrics exposes the Prometheus registry used by the price cache.
// Metrics are defined in their respective packages (cache, upstream, pricing,
// edge, consumer) and registered through promauto on the default registerer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry all metrics register with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - price_cache_hits_total{tier} (Counter): Cache hits
//   - price_cache_misses_total{tier} (Counter): Cache misses, absent or expired
//   - price_cache_evictions_total{tier} (Counter): Expired entries removed
//   - price_cache_entries{tier} (Gauge): Entries held by an in-memory store
//   - price_cache_errors_total{tier,operation} (Counter): Store operation errors
//
// Provider Metrics (pkg/upstream):
//   - price_upstream_requests_total{status} (Counter): Provider requests by HTTP status
//   - price_upstream_request_duration_seconds (Histogram): Provider request duration
//   - price_upstream_errors_total{class} (Counter): Failures by class
//     (client, server, rate_limit, network, malformed, payload)
//
// Orchestration Metrics (pkg/pricing):
//   - price_fetches_total{tier,outcome} (Counter): Fetches by outcome
//   - price_fetch_coalesced_total{tier} (Counter): Lookups served by a shared fetch
//
// Edge Metrics (pkg/edge):
//   - price_http_requests_total{route,status} (Counter): Edge HTTP responses
//
// Consumer Metrics (pkg/consumer):
//   - price_relay_error_records_total{reason} (Counter): Error records shown to users
//
// Example Prometheus Queries:
//
//   # Edge cache hit rate
//   sum(rate(price_cache_hits_total{tier="edge"}[5m])) /
//   (sum(rate(price_cache_hits_total{tier="edge"}[5m])) + sum(rate(price_cache_misses_total{tier="edge"}[5m])))
//
//   # Provider error rate
//   rate(price_upstream_errors_total[5m])
//
//   # P95 provider latency
//   histogram_quantile(0.95, rate(price_upstream_request_duration_seconds_bucket[5m]))
