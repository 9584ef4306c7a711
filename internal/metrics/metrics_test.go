package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/supply-planner/internal/procurement"
)

func TestInstrumentRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlannerMetrics("test", reg)
	planner := Instrument(procurement.New(), m, zaptest.NewLogger(t))

	offers := []procurement.Offer{{ID: 1, Count: 10, Price: 2, Pack: 5}}

	if _, err := planner.Plan(offers, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := planner.Plan(offers, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := planner.Plan(offers, 0); !errors.Is(err, procurement.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	cases := map[string]float64{
		string(procurement.OutcomePlanned):            1,
		string(procurement.OutcomeNoExactCombination): 1,
		outcomeInvalidInput:                           1,
	}
	for outcome, want := range cases {
		if got := testutil.ToFloat64(m.Plans.WithLabelValues(outcome)); got != want {
			t.Fatalf("expected %v plans with outcome %s, got %v", want, outcome, got)
		}
	}
	if got := testutil.CollectAndCount(m.Duration); got != 1 {
		t.Fatalf("expected duration histogram to be collected, got %d series", got)
	}
}

func TestNewPlannerMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPlannerMetrics("dup", reg)
	second := NewPlannerMetrics("dup", reg)

	if first.Plans != second.Plans {
		t.Fatalf("expected counter to be reused")
	}
}

func TestInstrumentToleratesNilMetrics(t *testing.T) {
	planner := Instrument(procurement.New(), nil, nil)
	if _, err := planner.Plan(nil, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInstrumentSeparatesOversizedProblems(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlannerMetrics("size", reg)
	planner := Instrument(procurement.New(procurement.WithMaxCells(5)), m, zaptest.NewLogger(t))

	offers := []procurement.Offer{{ID: 1, Count: 10, Price: 2, Pack: 5}}
	if _, err := planner.Plan(offers, 10); !errors.Is(err, procurement.ErrProblemTooLarge) {
		t.Fatalf("expected ErrProblemTooLarge, got %v", err)
	}

	if got := testutil.ToFloat64(m.Plans.WithLabelValues(outcomeTooLarge)); got != 1 {
		t.Fatalf("expected one too_large outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.Plans.WithLabelValues(outcomeInvalidInput)); got != 0 {
		t.Fatalf("expected no invalid_input outcome, got %v", got)
	}
}
