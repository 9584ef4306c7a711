// Package metrics exposes Prometheus collectors for planning calls and a Planner
// decorator that records them.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eugenenazirov/supply-planner/internal/procurement"
)

const (
	outcomeInvalidInput = "invalid_input"
	outcomeTooLarge     = "too_large"
)

// PlannerMetrics groups the collectors describing planner activity.
type PlannerMetrics struct {
	Plans    *prometheus.CounterVec
	Duration prometheus.Histogram
	Units    prometheus.Histogram
}

// NewPlannerMetrics registers and returns planner collectors. A nil registerer
// falls back to the default one. Collectors that are already registered are reused.
func NewPlannerMetrics(namespace string, reg prometheus.Registerer) *PlannerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PlannerMetrics{
		Plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Total number of planning calls by outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_ms",
			Help:      "Planning latency distribution in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		Units: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_purchase_units",
			Help:      "Number of purchase units fed to the solver per call.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	m.Plans = register(reg, m.Plans)
	m.Duration = register(reg, m.Duration)
	m.Units = register(reg, m.Units)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
	return c
}

type instrumentedPlanner struct {
	next    procurement.Planner
	metrics *PlannerMetrics
	logger  *zap.Logger
}

// Instrument wraps next so every call is counted, timed and logged at debug level.
func Instrument(next procurement.Planner, m *PlannerMetrics, logger *zap.Logger) procurement.Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumentedPlanner{next: next, metrics: m, logger: logger}
}

func (p *instrumentedPlanner) Plan(offers []procurement.Offer, quantity int) (procurement.Plan, error) {
	start := time.Now()
	plan, err := p.next.Plan(offers, quantity)
	elapsed := time.Since(start)

	outcome := string(plan.Outcome)
	switch {
	case errors.Is(err, procurement.ErrProblemTooLarge):
		outcome = outcomeTooLarge
	case err != nil:
		outcome = outcomeInvalidInput
	}
	if p.metrics != nil {
		p.metrics.Plans.WithLabelValues(outcome).Inc()
		p.metrics.Duration.Observe(float64(elapsed) / float64(time.Millisecond))
		if err == nil {
			p.metrics.Units.Observe(float64(plan.Units))
		}
	}

	p.logger.Debug("plan computed",
		zap.Int("quantity", quantity),
		zap.Int("offers", len(offers)),
		zap.Int("purchase_units", plan.Units),
		zap.String("outcome", outcome),
		zap.Float64("cost", plan.Cost),
		zap.Duration("duration", elapsed),
	)

	return plan, err
}
