// Package metrics exposes gameplay and poll-loop counters to Prometheus.
// All methods are safe on a nil *Metrics so components can run without it.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tilefloor"

// Metrics holds the collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	RoundsStarted   prometheus.Counter
	RoundsCompleted prometheus.Counter
	WrongPresses    prometheus.Counter
	TilePresses     *prometheus.CounterVec
	Commands        *prometheus.CounterVec
	ReadErrors      prometheus.Counter

	Polling            prometheus.Gauge
	DegenerateChannels prometheus.Gauge

	CycleDuration prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Target sets shown",
		}),
		RoundsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_completed_total",
			Help:      "Target sets fully pressed",
		}),
		WrongPresses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wrong_presses_total",
			Help:      "Presses on tiles outside the target",
		}),
		TilePresses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_presses_total",
			Help:      "Committed press edges per tile",
		}, []string{"tile"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Lifecycle commands by outcome",
		}, []string{"command", "result"}),
		ReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Poll cycles with a sensor read failure",
		}),
		Polling: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "polling",
			Help:      "1 while the sensor poll loop is running",
		}),
		DegenerateChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "degenerate_channels",
			Help:      "Channels whose last calibration was degenerate",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one poll cycle",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.RoundsStarted,
		m.RoundsCompleted,
		m.WrongPresses,
		m.TilePresses,
		m.Commands,
		m.ReadErrors,
		m.Polling,
		m.DegenerateChannels,
		m.CycleDuration,
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RoundStarted() {
	if m == nil {
		return
	}
	m.RoundsStarted.Inc()
}

func (m *Metrics) RoundCompleted() {
	if m == nil {
		return
	}
	m.RoundsCompleted.Inc()
}

func (m *Metrics) WrongPress() {
	if m == nil {
		return
	}
	m.WrongPresses.Inc()
}

// TilePress counts a press edge on the tile with the given 1-based label.
func (m *Metrics) TilePress(label int) {
	if m == nil {
		return
	}
	m.TilePresses.WithLabelValues(strconv.Itoa(label)).Inc()
}

// Command records a command outcome. Unknown input uses command "unknown".
func (m *Metrics) Command(name string, ok bool) {
	if m == nil {
		return
	}
	if name == "" {
		name = "unknown"
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.Commands.WithLabelValues(name, result).Inc()
}

func (m *Metrics) ReadError() {
	if m == nil {
		return
	}
	m.ReadErrors.Inc()
}

func (m *Metrics) SetPolling(on bool) {
	if m == nil {
		return
	}
	if on {
		m.Polling.Set(1)
	} else {
		m.Polling.Set(0)
	}
}

func (m *Metrics) SetDegenerate(n int) {
	if m == nil {
		return
	}
	m.DegenerateChannels.Set(float64(n))
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(d.Seconds())
}
