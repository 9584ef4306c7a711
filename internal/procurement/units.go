package procurement

// purchaseUnits splits every offer's batch budget into power-of-two blocks plus a
// remainder, so that any batch count from 0 to count/pack is a subset sum of the
// emitted blocks. Blocks larger than quantity can never be part of an exact plan
// and are skipped.
func purchaseUnits(offers []Offer, quantity int) []PurchaseUnit {
	var units []PurchaseUnit
	for _, o := range offers {
		remaining := o.Count / o.Pack
		for batch := 1; remaining > 0; batch *= 2 {
			take := min(batch, remaining)
			remaining -= take

			size := take * o.Pack
			if size > quantity {
				continue
			}
			units = append(units, PurchaseUnit{
				SupplierID: o.ID,
				Quantity:   size,
				Cost:       float64(size) * o.Price,
				UnitPrice:  o.Price,
			})
		}
	}
	return units
}
