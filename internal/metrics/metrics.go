// Package metrics exposes Prometheus collectors for the scrape pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttemptsTotal   *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	retriesTotal         prometheus.Counter
	qualityRejectedTotal prometheus.Counter
	descriptionsSaved    prometheus.Counter
	checkpointWrites     prometheus.Counter
	recordsProcessed     *prometheus.CounterVec

	once sync.Once
)

// Init registers the Prometheus collectors. It is safe to call multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elwjobs_fetch_attempts_total",
				Help: "Fetch attempts, labeled by strategy (static|browser) and outcome.",
			},
			[]string{"strategy", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "elwjobs_fetch_duration_seconds",
				Help:    "Wall time of individual fetches, labeled by strategy.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		)

		retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "elwjobs_retries_total",
			Help: "Backoff retries issued by the retry controller.",
		})

		qualityRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "elwjobs_quality_rejected_total",
			Help: "Extractions rejected as generic or boilerplate content.",
		})

		descriptionsSaved = promauto.NewCounter(prometheus.CounterOpts{
			Name: "elwjobs_descriptions_saved_total",
			Help: "Full job descriptions written to disk.",
		})

		checkpointWrites = promauto.NewCounter(prometheus.CounterOpts{
			Name: "elwjobs_checkpoint_writes_total",
			Help: "Durable checkpoint writes.",
		})

		recordsProcessed = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elwjobs_records_processed_total",
				Help: "Dataset records processed, labeled by result (succeeded|failed|skipped).",
			},
			[]string{"result"},
		)
	})
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(strategy, outcome string, duration time.Duration) {
	if fetchAttemptsTotal == nil {
		return
	}
	fetchAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(strategy).Observe(duration.Seconds())
}

// IncRetry counts a backoff retry.
func IncRetry() {
	if retriesTotal != nil {
		retriesTotal.Inc()
	}
}

// IncQualityRejected counts a classifier rejection.
func IncQualityRejected() {
	if qualityRejectedTotal != nil {
		qualityRejectedTotal.Inc()
	}
}

// IncDescriptionSaved counts a saved description file.
func IncDescriptionSaved() {
	if descriptionsSaved != nil {
		descriptionsSaved.Inc()
	}
}

// IncCheckpointWrite counts a checkpoint write.
func IncCheckpointWrite() {
	if checkpointWrites != nil {
		checkpointWrites.Inc()
	}
}

// ObserveRecord counts one processed dataset record.
func ObserveRecord(result string) {
	if recordsProcessed != nil {
		recordsProcessed.WithLabelValues(result).Inc()
	}
}
