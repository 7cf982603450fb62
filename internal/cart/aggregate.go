package cart

import "storefront-service/internal/pricing"

// IDSet is a set of line-item ids.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// LineTotal is the discounted unit price times the quantity.
func LineTotal(item LineItem) pricing.Money {
	unit := pricing.DiscountedPrice(item.Product.Price, item.Product.Discount)
	return unit * pricing.Money(item.Quantity)
}

// ComputeSelectedTotals sums the items whose id is in selected. Empty inputs give a
// zero result.
func ComputeSelectedTotals(items []LineItem, selected IDSet) SelectedTotals {
	var totals SelectedTotals
	if len(items) == 0 || len(selected) == 0 {
		return totals
	}
	for _, item := range items {
		if !selected.Has(item.ID) {
			continue
		}
		totals.SelectedTotalPrice += LineTotal(item)
		totals.SelectedTotalItems += item.Quantity
		totals.SelectedCount++
	}
	return totals
}

// ComputeCartTotals sums every item regardless of selection; it feeds the cart badge.
func ComputeCartTotals(items []LineItem) Totals {
	var totals Totals
	for _, item := range items {
		totals.TotalItems += item.Quantity
		totals.TotalPrice += LineTotal(item)
	}
	return totals
}
