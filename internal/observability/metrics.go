package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ReflectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phpdoc_reflect_file_seconds",
		Help:    "Time spent scanning and reflecting a single source file.",
		Buckets: prometheus.DefBuckets,
	})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phpdoc_run_seconds",
		Help:    "Time spent on the phases of a reflection run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	FilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpdoc_files_total",
		Help: "Files handled by the reflection pipeline, by outcome.",
	}, []string{"outcome"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpdoc_diagnostics_total",
		Help: "Diagnostics recorded while reflecting, by severity.",
	}, []string{"severity"})

	WatchEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpdoc_watch_events_total",
		Help: "File system events received by the project watcher.",
	})

	IndexedElements = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phpdoc_index_elements",
		Help: "Number of elements in the most recently built symbol index.",
	})
)

// File outcomes used with FilesTotal
const (
	OutcomeReflected = "reflected"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)
