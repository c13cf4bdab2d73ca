package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	LoadResultOK          = "ok"
	LoadResultIOError     = "io_error"
	LoadResultFormatError = "format_error"
)

// LoadMetrics counts asset loads. Each instance owns its registry so several
// managers (or tests) never collide on registration.
type LoadMetrics struct {
	Registry *prometheus.Registry

	Loads        *prometheus.CounterVec
	LoadDuration *prometheus.HistogramVec
	Reloads      prometheus.Counter
}

func NewLoadMetrics(namespace string) *LoadMetrics {
	registry := prometheus.NewRegistry()

	loads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_loads_total",
			Help:      "Total number of asset loads by extension and result",
		},
		[]string{"extension", "result"},
	)

	loadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asset_load_duration_seconds",
			Help:      "Time spent reading and parsing an asset",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"extension"},
	)

	reloads := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_reloads_total",
			Help:      "Total number of hot reloads triggered by file changes",
		},
	)

	registry.MustRegister(loads, loadDuration, reloads)

	return &LoadMetrics{
		Registry:     registry,
		Loads:        loads,
		LoadDuration: loadDuration,
		Reloads:      reloads,
	}
}

func (m *LoadMetrics) ObserveLoad(extension, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(extension, result).Inc()
	m.LoadDuration.WithLabelValues(extension).Observe(elapsed.Seconds())
}

func (m *LoadMetrics) ObserveReload() {
	if m == nil {
		return
	}
	m.Reloads.Inc()
}
