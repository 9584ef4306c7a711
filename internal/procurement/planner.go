package procurement

import "fmt"

// DefaultMaxCells bounds purchase units times quantities per call. It keeps the
// worst-case back-pointer memory around 32 MB.
const DefaultMaxCells = 1 << 28

// Option configures a Planner.
type Option func(*dpPlanner)

// WithPriceCeiling enables price-ceiling pruning: once a full plan is known, units
// priced above factor times that plan's average unit price are skipped. This
// trades optimality for speed and may miss the cheapest plan. A factor <= 0
// disables pruning, which is the default.
func WithPriceCeiling(factor float64) Option {
	return func(p *dpPlanner) {
		p.ceiling = factor
	}
}

// WithMaxCells overrides DefaultMaxCells. A limit <= 0 removes the bound.
func WithMaxCells(limit int) Option {
	return func(p *dpPlanner) {
		p.maxCells = limit
	}
}

type dpPlanner struct {
	ceiling  float64
	maxCells int
}

// New creates a Planner based on a bounded knapsack over binary-decomposed offers.
func New(opts ...Option) Planner {
	p := &dpPlanner{maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *dpPlanner) Plan(offers []Offer, quantity int) (Plan, error) {
	if quantity <= 0 {
		return Plan{}, ErrInvalidQuantity
	}
	if totalStock(offers) < quantity {
		return Plan{Outcome: OutcomeInsufficientStock}, nil
	}

	units := purchaseUnits(filterOffers(offers), quantity)
	if cells := len(units) * (quantity + 1); p.maxCells > 0 && cells > p.maxCells {
		return Plan{Units: len(units)}, fmt.Errorf("%w: %d purchase units for %d items need %d cells, limit %d",
			ErrProblemTooLarge, len(units), quantity, cells, p.maxCells)
	}
	t := solve(units, quantity, p.ceiling)
	if !t.feasible() {
		return Plan{Outcome: OutcomeNoExactCombination, Units: len(units)}, nil
	}

	return Plan{
		Allocations: reconstruct(t),
		Quantity:    quantity,
		Cost:        t.cost(),
		Outcome:     OutcomePlanned,
		Units:       len(units),
	}, nil
}
