package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics содержит метрики проходов синхронизации заказов.
type SyncMetrics struct {
	passesStarted  prometheus.Counter
	passesFinished prometheus.Counter
	passesFailed   prometheus.Counter

	passDuration prometheus.Histogram

	pagesFetched   prometheus.Counter
	ordersInserted prometheus.Counter
}

// NewSyncMetrics создаёт метрики синхронизации на default registerer.
func NewSyncMetrics() *SyncMetrics {
	return newSyncMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSyncMetricsWithRegisterer(registerer prometheus.Registerer) *SyncMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SyncMetrics{
		passesStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordersync_sync_passes_started_total",
			Help: "Total number of sync passes started",
		}),
		passesFinished: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordersync_sync_passes_finished_total",
			Help: "Total number of sync passes finished successfully",
		}),
		passesFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordersync_sync_passes_failed_total",
			Help: "Total number of sync passes failed",
		}),
		passDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ordersync_sync_pass_duration_seconds",
			Help:    "Duration of sync passes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		pagesFetched: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordersync_sync_pages_fetched_total",
			Help: "Total number of upstream pages fetched during sync passes",
		}),
		ordersInserted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordersync_sync_orders_inserted_total",
			Help: "Total number of orders inserted into the local store",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPassStarted увеличивает счётчик запущенных проходов.
func (m *SyncMetrics) RecordPassStarted() {
	m.passesStarted.Inc()
}

// RecordPassFinished фиксирует успешный проход и его длительность.
func (m *SyncMetrics) RecordPassFinished(duration time.Duration) {
	m.passesFinished.Inc()
	m.passDuration.Observe(duration.Seconds())
}

// RecordPassFailed увеличивает счётчик неудачных проходов.
func (m *SyncMetrics) RecordPassFailed() {
	m.passesFailed.Inc()
}

// RecordPageFetched увеличивает счётчик загруженных страниц выдачи.
func (m *SyncMetrics) RecordPageFetched() {
	m.pagesFetched.Inc()
}

// RecordOrdersInserted увеличивает счётчик вставленных заказов.
func (m *SyncMetrics) RecordOrdersInserted(count int) {
	m.ordersInserted.Add(float64(count))
}
