package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics contains Prometheus metrics for notification delivery.
type NotificationMetrics struct {
	DispatchedTotal *prometheus.CounterVec
	DroppedTotal    prometheus.Counter
	SubscriberGauge prometheus.Gauge
	PushErrorsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewNotificationMetrics creates a new instance of NotificationMetrics.
func NewNotificationMetrics(registry *prometheus.Registry) (*NotificationMetrics, error) {
	m := &NotificationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register notification metrics: %w", err)
	}
	return m, nil
}

func (m *NotificationMetrics) initMetrics() {
	m.DispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homewatch_notifications_dispatched_total",
			Help: "Total number of notifications dispatched, partitioned by danger level.",
		},
		[]string{"type"},
	)
	m.DroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "homewatch_notifications_dropped_total",
			Help: "Total number of notifications dropped because a subscriber channel was full.",
		},
	)
	m.SubscriberGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "homewatch_notification_subscribers",
			Help: "Current number of active notification subscribers.",
		},
	)
	m.PushErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "homewatch_notification_push_errors_total",
			Help: "Total number of failed push provider deliveries.",
		},
	)
}

// Describe implements the prometheus.Collector interface.
func (m *NotificationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.DispatchedTotal.Describe(ch)
	ch <- m.DroppedTotal.Desc()
	ch <- m.SubscriberGauge.Desc()
	ch <- m.PushErrorsTotal.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *NotificationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.DispatchedTotal.Collect(ch)
	ch <- m.DroppedTotal
	ch <- m.SubscriberGauge
	ch <- m.PushErrorsTotal
}
