// Package metrics exposes resolver cycle results as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/oprouter/internal/model"
	"github.com/roach88/oprouter/internal/router"
)

const (
	namespace = "oprouter"
	subsystem = "router"
)

// Collector records resolver cycles. It implements router.Recorder.
type Collector struct {
	cyclesTotal      *prometheus.CounterVec
	assignmentsTotal *prometheus.CounterVec
	preemptionsTotal prometheus.Counter
	droppedTotal     prometheus.Counter
	pendingObjects   prometheus.Gauge
	failuresTotal    *prometheus.CounterVec
}

var _ router.Recorder = (*Collector)(nil)

// NewCollector creates a collector. Call Register before scraping.
func NewCollector() *Collector {
	return &Collector{
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cycles_total",
				Help:      "Total number of completed resolution cycles by mode",
			},
			[]string{"mode"},
		),

		assignmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "assignments_total",
				Help:      "Total number of committed operator assignments by mode",
			},
			[]string{"mode"},
		),

		preemptionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "preemptions_total",
				Help:      "Total number of preemptive assignments",
			},
		),

		droppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "conflicts_dropped_total",
				Help:      "Total number of operators dropped by tie-breaks",
			},
		),

		pendingObjects: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pending_objects",
				Help:      "Pending stations seen by the last completed cycle",
			},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "failures_total",
				Help:      "Total number of failed cycles by error code",
			},
			[]string{"code"},
		),
	}
}

// Register registers all resolver metrics with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		c.cyclesTotal,
		c.assignmentsTotal,
		c.preemptionsTotal,
		c.droppedTotal,
		c.pendingObjects,
		c.failuresTotal,
	}

	for _, metric := range metrics {
		if err := reg.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// CycleCompleted records a successful cycle.
func (c *Collector) CycleCompleted(o *router.Outcome) {
	mode := string(o.Mode)
	c.cyclesTotal.WithLabelValues(mode).Inc()
	c.assignmentsTotal.WithLabelValues(mode).Add(float64(len(o.Assignments)))
	c.preemptionsTotal.Add(float64(o.Preemptions()))
	c.droppedTotal.Add(float64(len(o.Dropped)))
	c.pendingObjects.Set(float64(len(o.PendingObjects)))
}

// CycleFailed records a failed cycle under its error code.
func (c *Collector) CycleFailed(_ string, err error) {
	code := string(model.CodeOf(err))
	if code == "" {
		code = "unknown"
	}
	c.failuresTotal.WithLabelValues(code).Inc()
}
