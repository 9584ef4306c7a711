package procurement

import "math"

// backPointers records, for one purchase unit, every quantity whose best cost was
// improved by taking that unit. One bit per quantity, covering only the range
// [base, base+64*len(bits)).
type backPointers struct {
	base int
	bits []uint64
}

// newBackPointers covers quantities from low to high inclusive.
func newBackPointers(low, high int) *backPointers {
	return &backPointers{
		base: low,
		bits: make([]uint64, (high-low)/64+1),
	}
}

func (b *backPointers) set(q int) {
	off := q - b.base
	b.bits[off/64] |= 1 << (uint(off) % 64)
}

func (b *backPointers) has(q int) bool {
	if b == nil || q < b.base {
		return false
	}
	off := q - b.base
	if off/64 >= len(b.bits) {
		return false
	}
	return b.bits[off/64]&(1<<(uint(off)%64)) != 0
}

// words is the number of 64-bit words held by the layer.
func (b *backPointers) words() int {
	if b == nil {
		return 0
	}
	return len(b.bits)
}

// table is the DP state of a single planning call.
type table struct {
	quantity int
	units    []PurchaseUnit
	minCost  []float64
	// layers[i] holds the back-pointers written while unit i was processed; nil
	// when the unit was skipped or improved nothing.
	layers []*backPointers
}

// solve runs the 0/1 knapsack over units, minimising cost for every exact
// quantity from 0 to quantity. When ceiling is positive, units priced above
// ceiling times the average unit price of the best full plan found so far are
// skipped.
func solve(units []PurchaseUnit, quantity int, ceiling float64) *table {
	t := &table{
		quantity: quantity,
		units:    units,
		minCost:  make([]float64, quantity+1),
		layers:   make([]*backPointers, len(units)),
	}
	for q := 1; q <= quantity; q++ {
		t.minCost[q] = math.Inf(1)
	}

	for i, u := range units {
		if ceiling > 0 && t.feasible() {
			limit := t.minCost[quantity] / float64(quantity) * ceiling
			if u.UnitPrice > limit {
				continue
			}
		}

		var layer *backPointers
		// Descending so a unit is never combined with itself within one pass. The
		// first improvement is therefore the highest q the layer has to cover.
		for q := quantity; q >= u.Quantity; q-- {
			prev := t.minCost[q-u.Quantity]
			if math.IsInf(prev, 1) {
				continue
			}
			if candidate := prev + u.Cost; candidate < t.minCost[q] {
				t.minCost[q] = candidate
				if layer == nil {
					layer = newBackPointers(u.Quantity, q)
				}
				layer.set(q)
			}
		}
		t.layers[i] = layer
	}

	return t
}

func (t *table) feasible() bool {
	return !math.IsInf(t.minCost[t.quantity], 1)
}

func (t *table) cost() float64 {
	return t.minCost[t.quantity]
}

// source returns the quantity that preceded q when unit i was taken to reach it.
func (t *table) source(i, q int) (int, bool) {
	if !t.layers[i].has(q) {
		return 0, false
	}
	return q - t.units[i].Quantity, true
}
