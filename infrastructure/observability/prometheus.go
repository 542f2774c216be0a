// Package observability exports coordinator metrics to Prometheus.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"edusync/application/lifecycle"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "edusync"

// PrometheusObserver implements lifecycle.Observer.
type PrometheusObserver struct {
	sideEffectDuration *prometheus.HistogramVec
	sideEffectFailures *prometheus.CounterVec
	transactions       *prometheus.CounterVec
}

// NewPrometheusObserver registers side-effect latency/failure and transaction
// outcome metrics on reg. Metrics already registered by an earlier observer
// are reused.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		sideEffectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "side_effect_duration_seconds",
			Help:      "Latency of blob cleanup and event publish calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Count of failed side effects that did not fail the operation.",
		}, []string{"kind"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Coordinator transactions by operation and outcome.",
		}, []string{"op", "outcome"}),
	}

	var err error
	if o.sideEffectDuration, err = register(reg, o.sideEffectDuration); err != nil {
		return nil, err
	}
	if o.sideEffectFailures, err = register(reg, o.sideEffectFailures); err != nil {
		return nil, err
	}
	if o.transactions, err = register(reg, o.transactions); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

func (o *PrometheusObserver) RecordSideEffect(kind lifecycle.SideEffectKind, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.sideEffectDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
	if err != nil {
		o.sideEffectFailures.WithLabelValues(string(kind)).Inc()
	}
}

func (o *PrometheusObserver) RecordTransaction(op string, err error) {
	if o == nil {
		return
	}
	outcome := "committed"
	if err != nil {
		outcome = "rolled_back"
	}
	o.transactions.WithLabelValues(op, outcome).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ lifecycle.Observer = (*PrometheusObserver)(nil)
