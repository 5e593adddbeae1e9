// Package metrics holds the Prometheus collectors for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReceiptsProcessed counts receipts by import status.
	// Labels: status (imported, duplicate, empty, failed)
	ReceiptsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pantry",
			Subsystem: "importer",
			Name:      "receipts_total",
			Help:      "Total number of receipts processed by import status",
		},
		[]string{"status"},
	)

	ItemsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pantry",
			Subsystem: "importer",
			Name:      "items_inserted_total",
			Help:      "Total number of purchase lines written to the ledger",
		},
	)

	// Classifications counts classification outcomes.
	// Labels: stage (keyword, cache, external, fallback, default)
	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pantry",
			Subsystem: "classifier",
			Name:      "classifications_total",
			Help:      "Total number of product classifications by resolving stage",
		},
		[]string{"stage"},
	)

	// ExternalLookups counts calls to the external product lookup.
	// Labels: result (success, error)
	ExternalLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pantry",
			Subsystem: "classifier",
			Name:      "external_lookups_total",
			Help:      "Total number of external product lookups",
		},
		[]string{"result"},
	)

	ExternalLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pantry",
			Subsystem: "classifier",
			Name:      "external_lookup_duration_seconds",
			Help:      "Duration of external product lookups in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	LotsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pantry",
			Subsystem: "inventory",
			Name:      "units_consumed_total",
			Help:      "Total number of units marked as consumed",
		},
	)

	LotsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pantry",
			Subsystem: "inventory",
			Name:      "lots_expired_total",
			Help:      "Total number of inventory lots moved to expired",
		},
	)
)
