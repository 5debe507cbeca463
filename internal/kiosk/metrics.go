package kiosk

import (
	"time"

	"github.com/myrjola/totem/internal/persistence"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the kiosk. A nil *Metrics records nothing.
type Metrics struct {
	submissions    *prometheus.CounterVec
	resets         *prometheus.CounterVec
	activeSessions prometheus.Gauge
	saveDuration   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "submissions_total",
			Help:      "Total number of persisted questionnaires by result",
		}, []string{"result"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "resets_total",
			Help:      "Total number of returns to the welcome screen by reason",
		}, []string{"reason"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kiosk",
			Name:      "active_sessions",
			Help:      "Number of kiosk sessions held in memory",
		}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kiosk",
			Name:      "save_duration_seconds",
			Help:      "Duration of persistence attempts in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.submissions, m.resets, m.activeSessions, m.saveDuration)
	return m
}

func (m *Metrics) observeSave(res persistence.Result, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !res.Success {
		result = "error"
	}
	m.submissions.WithLabelValues(result).Inc()
	m.saveDuration.Observe(d.Seconds())
}

func (m *Metrics) reset(reason ResetReason) {
	if m == nil {
		return
	}
	m.resets.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
