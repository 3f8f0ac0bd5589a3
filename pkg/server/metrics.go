package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metric descriptors for a running server.
// Each server carries its own registry so tests can start several servers
// in one process.
type Metrics struct {
	registry *prometheus.Registry

	connections   prometheus.Gauge
	commandsTotal prometheus.Counter
	commandErrors prometheus.Counter
	savesTotal    prometheus.Counter
	objects       prometheus.GaugeFunc
}

// NewMetrics creates and registers the server metrics. objectCount is
// sampled on every scrape.
func NewMetrics(objectCount func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mushroom_connections",
			Help: "Number of currently open client connections.",
		}),
		commandsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mushroom_commands_total",
			Help: "Total input lines handled since server start.",
		}),
		commandErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mushroom_command_errors_total",
			Help: "Total commands that ended in an internal error.",
		}),
		savesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mushroom_saves_total",
			Help: "Total world snapshots written.",
		}),
		objects: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "mushroom_objects",
			Help: "Number of objects in the world database.",
		}, func() float64 { return float64(objectCount()) }),
	}

	m.registry.MustRegister(
		m.connections,
		m.commandsTotal,
		m.commandErrors,
		m.savesTotal,
		m.objects,
	)

	return m
}

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
