// Package metrics provides Prometheus instrumentation for the API.
//
//	reelshelf_http_requests_total            counter by method/path/status
//	reelshelf_http_request_duration_seconds  histogram by method/path
//	reelshelf_http_requests_in_flight        gauge
//	reelshelf_auth_events_total              counter by event/result
//	reelshelf_collection_events_total        counter by collection/action/result
//	reelshelf_tmdb_requests_total            counter by endpoint/status
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelshelf_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelshelf_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelshelf_http_requests_in_flight",
		Help: "Number of HTTP requests currently being processed.",
	})

	// AuthEvents counts authentication outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelshelf_auth_events_total",
		Help: "Auth events by type and result.",
	}, []string{"event", "result"})

	// CollectionEvents counts favorites/watchlist mutations.
	CollectionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelshelf_collection_events_total",
		Help: "Collection mutations by collection, action and result.",
	}, []string{"collection", "action", "result"})

	// TMDBRequests counts upstream metadata requests.
	TMDBRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelshelf_tmdb_requests_total",
		Help: "Metadata provider requests by endpoint and status.",
	}, []string{"endpoint", "status"})
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count, latency and in-flight requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Route pattern keeps label cardinality bounded.
		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
