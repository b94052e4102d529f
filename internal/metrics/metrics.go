// Package metrics exposes Prometheus collectors for lattice and Greek
// computations and the HTTP layer on top of them.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	crr "github.com/jwaldner/crr/crr_lib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crr"

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// Lattice evaluations by option type and exercise style
	PricerCalls    *prometheus.CounterVec
	PricerDuration *prometheus.HistogramVec
	// Six-evaluation Greek estimates
	GreeksDuration *prometheus.HistogramVec
	// Failures by kind: invalid_argument, division_by_zero, other
	Errors *prometheus.CounterVec

	// HTTP requests by route and status code
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// latticeBuckets cover N from a handful of steps up to the engine ceiling
var latticeBuckets = []float64{1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 0.01, 0.05, 0.1, 0.5, 1, 5}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PricerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricer_calls_total",
			Help:      "Total lattice pricer evaluations",
		}, []string{"option_type", "style"}),
		PricerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricer_duration_seconds",
			Help:      "Lattice pricer duration in seconds",
			Buckets:   latticeBuckets,
		}, []string{"style"}),
		GreeksDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "greeks_duration_seconds",
			Help:      "Greek estimation duration in seconds",
			Buckets:   latticeBuckets,
		}, []string{"option_type"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total failed pricer and estimator calls",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.PricerCalls,
		m.PricerDuration,
		m.GreeksDuration,
		m.Errors,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePrice implements crr.Observer
func (m *Metrics) ObservePrice(optionType, style string, d time.Duration, err error) {
	m.PricerCalls.WithLabelValues(optionType, style).Inc()
	m.PricerDuration.WithLabelValues(style).Observe(d.Seconds())
	if err != nil {
		m.Errors.WithLabelValues(ErrorKind(err)).Inc()
	}
}

// ObserveGreeks implements crr.Observer
func (m *Metrics) ObserveGreeks(optionType string, d time.Duration, err error) {
	m.GreeksDuration.WithLabelValues(optionType).Observe(d.Seconds())
	if err != nil {
		m.Errors.WithLabelValues(ErrorKind(err)).Inc()
	}
}

// RecordHTTPRequest counts one served request
func (m *Metrics) RecordHTTPRequest(route string, statusCode int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ErrorKind maps a pricer error to its metric label
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, crr.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, crr.ErrDivisionByZero):
		return "division_by_zero"
	default:
		return "other"
	}
}

var _ crr.Observer = (*Metrics)(nil)
