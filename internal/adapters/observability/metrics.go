package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stayalloc", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stayalloc", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stayalloc", Name: "dependency_requests_total", Help: "Calls to backing stores."},
		[]string{"dependency", "op", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stayalloc", Name: "dependency_request_duration_seconds",
			Help:    "Backing-store call duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dependency", "op"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stayalloc", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	Allocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stayalloc", Name: "allocations_total", Help: "Allocation outcomes."},
		[]string{"outcome"}, // outcome: allocated|relaxed|unavailable|overbooking|error
	)
	HoldEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stayalloc", Name: "hold_events_total", Help: "Hold lifecycle events."},
		[]string{"event"}, // event: create|release|confirm|conflict|expire
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents, Allocations, HoldEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(dependency, op, status string, dur time.Duration) {
	ExternalRequests.WithLabelValues(dependency, op, status).Inc()
	ExternalLatency.WithLabelValues(dependency, op).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveAllocation(outcome string) {
	Allocations.WithLabelValues(outcome).Inc()
}

func ObserveHold(event string) {
	HoldEvents.WithLabelValues(event).Inc()
}
