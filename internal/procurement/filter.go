package procurement

import "sort"

// validOffer reports whether at least one full pack can be bought from o.
func validOffer(o Offer) bool {
	return o.Count > 0 && o.Price > 0 && o.Pack > 0 && o.Count/o.Pack >= 1
}

// filterOffers drops invalid offers and returns the rest ordered by ascending price.
// The input slice is not modified.
func filterOffers(offers []Offer) []Offer {
	valid := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if validOffer(o) {
			valid = append(valid, o)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Price < valid[j].Price
	})
	return valid
}

func totalStock(offers []Offer) int {
	total := 0
	for _, o := range offers {
		total += o.Count
	}
	return total
}
