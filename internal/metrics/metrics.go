// Package metrics defines the prometheus collectors of the router and the
// quoting API.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reswap"

// Router collects per-operation outcomes of router calls.
type Router struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewRouter creates the router collectors and registers them with reg.
func NewRouter(reg prometheus.Registerer) (*Router, error) {
	m := &Router{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "operations_total",
				Help:      "Router operations by outcome.",
			},
			[]string{"op", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "operation_duration_seconds",
				Help:      "Time spent settling router operations.",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"op"},
		),
	}
	var err error
	if m.Operations, err = register(reg, m.Operations); err != nil {
		return nil, err
	}
	if m.Duration, err = register(reg, m.Duration); err != nil {
		return nil, err
	}
	return m, nil
}

// Observe records one operation. A nil *Router records nothing.
func (m *Router) Observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, status(err)).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// API collects request outcomes of the HTTP quoting API.
type API struct {
	Requests *prometheus.CounterVec
}

// NewAPI creates the API collectors and registers them with reg.
func NewAPI(reg prometheus.Registerer) (*API, error) {
	m := &API{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
	}
	var err error
	if m.Requests, err = register(reg, m.Requests); err != nil {
		return nil, err
	}
	return m, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
