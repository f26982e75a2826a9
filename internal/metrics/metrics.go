package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus instruments for the pipeline.
type Metrics struct {
	TicksApplied     prometheus.Counter
	TicksNoop        prometheus.Counter
	TicksDropped     prometheus.Counter
	StreamReconnects prometheus.Counter

	FetchErrors *prometheus.CounterVec // labels: provider, op

	RecomputeDur   prometheus.Histogram
	RSIComputed    prometheus.Counter
	RSIUnavailable prometheus.Counter

	AssetsTracked prometheus.Gauge
}

// New builds and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsipulse_ticks_applied_total",
			Help: "Trade ticks that changed a stored price",
		}),
		TicksNoop: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsipulse_ticks_noop_total",
			Help: "Trade ticks carrying an unchanged price",
		}),
		TicksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsipulse_ticks_dropped_total",
			Help: "Trade ticks for symbols outside the tracked universe",
		}),
		StreamReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsipulse_stream_reconnects_total",
			Help: "Live stream reconnection attempts",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsipulse_fetch_errors_total",
			Help: "Transient external fetch faults by provider and operation",
		}, []string{"provider", "op"}),
		RecomputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rsipulse_recompute_duration_seconds",
			Help:    "Wall time of one full indicator recompute cycle",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		RSIComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsipulse_rsi_computed_total",
			Help: "RSI readings produced with sufficient history",
		}),
		RSIUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsipulse_rsi_unavailable_total",
			Help: "RSI slots left unavailable (missing pair or short history)",
		}),
		AssetsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rsipulse_assets_tracked",
			Help: "Size of the current tracked universe",
		}),
	}

	reg.MustRegister(
		m.TicksApplied, m.TicksNoop, m.TicksDropped, m.StreamReconnects,
		m.FetchErrors, m.RecomputeDur, m.RSIComputed, m.RSIUnavailable,
		m.AssetsTracked,
	)
	return m
}

// NewUnregistered builds metrics bound to a throwaway registry, for tests.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
