package procurement

// Offer is one supplier's terms for the item: Count units in stock, sold only in
// multiples of Pack, at Price per unit.
type Offer struct {
	ID    int     `json:"id" yaml:"id"`
	Count int     `json:"count" yaml:"count"`
	Price float64 `json:"price" yaml:"price"`
	Pack  int     `json:"pack" yaml:"pack"`
}

// PurchaseUnit is an indivisible block of units taken from a single offer.
// Quantity is always a multiple of the offer's pack size.
type PurchaseUnit struct {
	SupplierID int
	Quantity   int
	Cost       float64
	UnitPrice  float64
}

// Allocation is the quantity bought from one supplier within a plan.
type Allocation struct {
	SupplierID int     `json:"supplierId"`
	Quantity   int     `json:"quantity"`
	Cost       float64 `json:"cost"`
}

// Outcome describes how a planning call ended.
type Outcome string

const (
	// OutcomePlanned means an exact, minimum-cost plan was found.
	OutcomePlanned Outcome = "planned"
	// OutcomeInsufficientStock means the combined stock of all offers is below the
	// requested quantity, so no plan was attempted.
	OutcomeInsufficientStock Outcome = "insufficient_stock"
	// OutcomeNoExactCombination means stock sufficed but no combination of whole
	// packs adds up to the requested quantity.
	OutcomeNoExactCombination Outcome = "no_exact_combination"
)

// Plan is the result of a planning call. An empty plan (no allocations) signals
// that no feasible exact-sum plan exists; Outcome tells why.
type Plan struct {
	Allocations []Allocation
	Quantity    int
	Cost        float64
	Outcome     Outcome
	// Units is the number of purchase units the solver considered.
	Units int
}

// Empty reports whether the plan contains no allocations.
func (p Plan) Empty() bool {
	return len(p.Allocations) == 0
}

// Planner describes the behaviour required from a procurement planner.
type Planner interface {
	Plan(offers []Offer, quantity int) (Plan, error)
}
