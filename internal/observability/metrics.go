package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec // labels: outcome={completed,persist_failed}
	CycleDuration      prometheus.Histogram
	DistrictsCollected prometheus.Counter
	RowsMerged         prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	WindFallbacks    prometheus.Counter

	// Fire metrics, set once per cycle.
	FiresDetected        prometheus.Gauge
	ProvincialFireLoadMW prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smog_ingest",
			Name:      "cycles_total",
			Help:      "Completed collection cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "smog_ingest",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full collect-normalize-persist cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		DistrictsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smog_ingest",
			Name:      "districts_collected_total",
			Help:      "Total district readings assembled across all cycles.",
		}),
		RowsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smog_ingest",
			Name:      "rows_merged_total",
			Help:      "Rows actually inserted by the staging merge (duplicates excluded).",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smog_ingest",
			Name:      "pipeline_running",
			Help:      "1 when a collection cycle is in progress, 0 otherwise.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smog_ingest",
			Name:      "provider_requests_total",
			Help:      "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smog_ingest",
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"provider"}),
		WindFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smog_ingest",
			Name:      "wind_fallbacks_total",
			Help:      "Times the secondary wind provider was consulted after primary failure.",
		}),
		FiresDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smog_ingest",
			Name:      "fires_detected",
			Help:      "Confident fire detections in the macro box for the latest cycle.",
		}),
		ProvincialFireLoadMW: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smog_ingest",
			Name:      "provincial_fire_load_mw",
			Help:      "Summed fire radiative power across the province for the latest cycle.",
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.DistrictsCollected,
		m.RowsMerged,
		m.PipelineRunning,
		m.ProviderRequests,
		m.ProviderDuration,
		m.WindFallbacks,
		m.FiresDetected,
		m.ProvincialFireLoadMW,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CyclesTotal:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "smog_ingest", Name: "cycles_total"}, []string{"outcome"}),
		CycleDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "smog_ingest", Name: "cycle_duration_seconds"}),
		DistrictsCollected:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "smog_ingest", Name: "districts_collected_total"}),
		RowsMerged:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "smog_ingest", Name: "rows_merged_total"}),
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "smog_ingest", Name: "pipeline_running"}),
		ProviderRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "smog_ingest", Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "smog_ingest", Name: "provider_request_duration_seconds"}, []string{"provider"}),
		WindFallbacks:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "smog_ingest", Name: "wind_fallbacks_total"}),
		FiresDetected:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "smog_ingest", Name: "fires_detected"}),
		ProvincialFireLoadMW: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "smog_ingest", Name: "provincial_fire_load_mw"}),
	}
}
