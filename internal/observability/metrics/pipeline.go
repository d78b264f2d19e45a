// Package metrics provides custom Prometheus metrics for the homewatch-go application.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains all Prometheus metrics related to the detection pipeline.
type PipelineMetrics struct {
	RunsTotal         *prometheus.CounterVec
	InferenceDuration prometheus.Histogram
	EntitiesDetected  prometheus.Counter

	// Persistence failures are swallowed from the caller's perspective,
	// so this counter is the primary external signal for them.
	PersistenceFailures prometheus.Counter
	ImageStoreFailures  prometheus.Counter

	registry *prometheus.Registry
}

// NewPipelineMetrics creates a new instance of PipelineMetrics.
// It requires a Prometheus registry to register the metrics.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homewatch_pipeline_runs_total",
			Help: "Total number of detection pipeline runs partitioned by outcome.",
		},
		[]string{"outcome"},
	)
	m.InferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "homewatch_inference_duration_seconds",
			Help:    "Time taken by a single model inference call.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
	m.EntitiesDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "homewatch_entities_detected_total",
			Help: "Total number of entities retained by the detector adapter.",
		},
	)
	m.PersistenceFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "homewatch_persistence_failures_total",
			Help: "Total number of pipeline runs whose transactional write was rolled back.",
		},
	)
	m.ImageStoreFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "homewatch_image_store_failures_total",
			Help: "Total number of annotated frames that could not be written to storage.",
		},
	)
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RunsTotal.Describe(ch)
	ch <- m.InferenceDuration.Desc()
	ch <- m.EntitiesDetected.Desc()
	ch <- m.PersistenceFailures.Desc()
	ch <- m.ImageStoreFailures.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RunsTotal.Collect(ch)
	ch <- m.InferenceDuration
	ch <- m.EntitiesDetected
	ch <- m.PersistenceFailures
	ch <- m.ImageStoreFailures
}
