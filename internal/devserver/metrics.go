package devserver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dev server's Prometheus collectors on an isolated
// registry, so every server (and every test) starts from zero.
type Metrics struct {
	Registry *prometheus.Registry

	BuildsTotal          *prometheus.CounterVec
	BuildDurationSeconds prometheus.Histogram
	CompileRequestsTotal *prometheus.CounterVec
	LiveReloadClients    prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	m := &Metrics{
		Registry: reg,
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showroom_builds_total",
				Help: "Site builds by result.",
			},
			[]string{"result"},
		),
		BuildDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "showroom_build_duration_seconds",
				Help:    "Time taken to load and write the site.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		CompileRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showroom_compile_requests_total",
				Help: "Live editor compile requests by transport and result.",
			},
			[]string{"transport", "result"},
		),
		LiveReloadClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "showroom_livereload_clients",
				Help: "Pages currently connected for live reload.",
			},
		),
	}
	reg.MustRegister(m.BuildsTotal, m.BuildDurationSeconds, m.CompileRequestsTotal, m.LiveReloadClients)
	return m
}

func (m *Metrics) observeBuild(d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.BuildsTotal.WithLabelValues(result).Inc()
	m.BuildDurationSeconds.Observe(d.Seconds())
}
