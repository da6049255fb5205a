// SPDX-License-Identifier: MPL-2.0

package download

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the orchestrator's collectors. They are always created so
// code paths stay identical; registration is optional.
type metrics struct {
	tasks    *prometheus.CounterVec
	bytes    prometheus.Counter
	retries  prometheus.Counter
	duration prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blocklaunch",
			Subsystem: "download",
			Name:      "tasks_total",
			Help:      "Download tasks by terminal status.",
		}, []string{"status"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blocklaunch",
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Bytes written by verified transfers.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blocklaunch",
			Subsystem: "download",
			Name:      "retries_total",
			Help:      "Transfer attempts after the first.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blocklaunch",
			Subsystem: "download",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of individual transfer attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

// register adds the collectors to reg. Collectors already registered by
// another orchestrator sharing reg are adopted instead.
func (m *metrics) register(reg prometheus.Registerer) error {
	var err error
	m.tasks, err = registerOrExisting(reg, m.tasks)
	if err != nil {
		return err
	}
	m.bytes, err = registerOrExisting(reg, m.bytes)
	if err != nil {
		return err
	}
	m.retries, err = registerOrExisting(reg, m.retries)
	if err != nil {
		return err
	}
	m.duration, err = registerOrExisting(reg, m.duration)
	return err
}

func registerOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observeOutcome(o Outcome) {
	m.tasks.WithLabelValues(o.Status.String()).Inc()
	if len(o.Attempts) > 1 {
		m.retries.Add(float64(len(o.Attempts) - 1))
	}
	for _, a := range o.Attempts {
		m.duration.Observe(a.Duration.Seconds())
		if a.Err == nil {
			m.bytes.Add(float64(a.Bytes))
		}
	}
}
