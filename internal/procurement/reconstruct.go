package procurement

// reconstruct walks the back-pointers from the full quantity down to zero and sums
// the units taken per supplier. Suppliers appear in the order they are first met.
func reconstruct(t *table) []Allocation {
	var allocations []Allocation
	index := make(map[int]int)

	q := t.quantity
	for i := len(t.units) - 1; i >= 0 && q > 0; i-- {
		prev, ok := t.source(i, q)
		if !ok {
			continue
		}
		u := t.units[i]
		pos, seen := index[u.SupplierID]
		if !seen {
			pos = len(allocations)
			index[u.SupplierID] = pos
			allocations = append(allocations, Allocation{SupplierID: u.SupplierID})
		}
		allocations[pos].Quantity += u.Quantity
		allocations[pos].Cost += u.Cost
		q = prev
	}

	return allocations
}
