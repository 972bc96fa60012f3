// Package metrics defines the Prometheus collectors of gowhere.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan stages reported in DocumentsScanned.
const (
	StagePrefilter = "prefilter"
	StagePredicate = "predicate"
	StageEvaluate  = "evaluate"
)

var (
	// CompilesTotal counts compilations by status (ok, error).
	CompilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gowhere_compiles_total",
			Help: "Total number of expression compilations",
		},
		[]string{"status"},
	)
	// EvaluationsTotal counts evaluations by status (match, nomatch, error).
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gowhere_evaluations_total",
			Help: "Total number of document evaluations",
		},
		[]string{"status"},
	)
	// PredicatesPushed counts predicates translated to store filters.
	PredicatesPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gowhere_predicates_pushed_total",
			Help: "Total number of predicates extracted from expressions",
		},
		[]string{"op", "target"},
	)
	// DocumentsScanned counts documents examined per scan stage.
	DocumentsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gowhere_documents_scanned_total",
			Help: "Total number of documents examined by scan stage",
		},
		[]string{"stage"},
	)
	// ScanDuration is the latency of a complete filter or query.
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gowhere_scan_duration_seconds",
			Help:    "Filter and query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	// CacheEvictions counts compiled expressions dropped from LRU caches.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gowhere_cache_evictions_total",
			Help: "Total number of compiled expressions evicted from caches",
		},
	)
)

// Status returns the label for an outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// MatchStatus returns the evaluation label for an outcome.
func MatchStatus(matched bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case matched:
		return "match"
	default:
		return "nomatch"
	}
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
