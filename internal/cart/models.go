package cart

import (
	"sync/atomic"
	"time"

	"storefront-service/internal/pricing"
)

type Product struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Price    pricing.Money `json:"price"`
	Discount int           `json:"discount"`
	Images   []string      `json:"images"`
	Brand    string        `json:"brand"`
	Category string        `json:"category"`
}

// LineItem is one product-and-quantity entry of a cart. Quantity is at least 1.
type LineItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (li LineItem) PriceInfo() pricing.PriceInfo {
	return pricing.FormatProductPrice(li.Product.Price, li.Product.Discount)
}

type Totals struct {
	TotalItems int           `json:"total_items"`
	TotalPrice pricing.Money `json:"total_price"`
}

type SelectedTotals struct {
	SelectedTotalPrice pricing.Money `json:"selected_total_price"`
	SelectedTotalItems int           `json:"selected_total_items"`
	SelectedCount      int           `json:"selected_count"`
}

// View is a snapshot of the remote cart. Every fetch from the backend yields a new
// Version, which is what selections are keyed against. Views are shared through the
// query cache and must not be modified.
type View struct {
	Items     []LineItem `json:"items"`
	Totals    Totals     `json:"totals"`
	Version   uint64     `json:"version"`
	FetchedAt time.Time  `json:"fetched_at"`
}

var viewVersion atomic.Uint64

func newView(items []LineItem) *View {
	if items == nil {
		items = []LineItem{}
	}
	return &View{
		Items:     items,
		Totals:    ComputeCartTotals(items),
		Version:   viewVersion.Add(1),
		FetchedAt: time.Now().UTC(),
	}
}

// EmptyView is what an anonymous visitor sees. Its version is 0.
func EmptyView() *View {
	return &View{Items: []LineItem{}}
}

func (v *View) Find(id string) (LineItem, bool) {
	for _, item := range v.Items {
		if item.ID == id {
			return item, true
		}
	}
	return LineItem{}, false
}
