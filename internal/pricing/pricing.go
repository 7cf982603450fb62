// Package pricing computes sale prices for the storefront. Amounts are whole đồng
// (VND has no minor unit) and discounts are flat percentages.
package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in whole currency units.
type Money int64

const CurrencySymbol = "₫"

var printer = message.NewPrinter(language.Vietnamese)

// ClampDiscount keeps a discount percentage inside [0, 100].
func ClampDiscount(pct int) int {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

func clampPrice(price Money) Money {
	if price < 0 {
		return 0
	}
	return price
}

// percentOf returns round(price * pct / 100), half away from zero.
func percentOf(price Money, pct int) Money {
	amount := decimal.NewFromInt(int64(price)).
		Mul(decimal.NewFromInt(int64(pct))).
		Shift(-2).
		Round(0)
	return Money(amount.IntPart())
}

// DiscountedPrice returns the price after applying pct. A non-positive pct leaves the
// price unchanged.
func DiscountedPrice(price Money, pct int) Money {
	price = clampPrice(price)
	pct = ClampDiscount(pct)
	if pct <= 0 {
		return price
	}
	return percentOf(price, 100-pct)
}

// DiscountAmount returns how much pct takes off price.
func DiscountAmount(price Money, pct int) Money {
	price = clampPrice(price)
	pct = ClampDiscount(pct)
	if pct <= 0 {
		return 0
	}
	return percentOf(price, pct)
}

// Format renders m the way the storefront shows prices, e.g. "160.000 ₫".
func Format(m Money) string {
	return printer.Sprintf("%d %s", int64(m), CurrencySymbol)
}

type FormattedPrice struct {
	Original   string `json:"original"`
	Discounted string `json:"discounted"`
	Discount   string `json:"discount"`
}

type PriceInfo struct {
	OriginalPrice   Money          `json:"original_price"`
	DiscountedPrice Money          `json:"discounted_price"`
	DiscountAmount  Money          `json:"discount_amount"`
	DiscountPct     int            `json:"discount_pct"`
	IsOnSale        bool           `json:"is_on_sale"`
	Formatted       FormattedPrice `json:"formatted"`
}

// FormatProductPrice bundles everything a product card needs to display its price.
func FormatProductPrice(price Money, pct int) PriceInfo {
	price = clampPrice(price)
	pct = ClampDiscount(pct)
	discounted := DiscountedPrice(price, pct)
	amount := DiscountAmount(price, pct)
	return PriceInfo{
		OriginalPrice:   price,
		DiscountedPrice: discounted,
		DiscountAmount:  amount,
		DiscountPct:     pct,
		IsOnSale:        pct > 0,
		Formatted: FormattedPrice{
			Original:   Format(price),
			Discounted: Format(discounted),
			Discount:   Format(amount),
		},
	}
}
