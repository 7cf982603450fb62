package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		name  string
		price Money
		pct   int
		want  Money
	}{
		{"no discount", 200000, 0, 200000},
		{"twenty percent", 200000, 20, 160000},
		{"negative pct ignored", 200000, -5, 200000},
		{"pct above hundred clamped", 200000, 150, 0},
		{"full discount", 99000, 100, 0},
		{"rounds half up", 5, 50, 3},
		{"rounds down", 1001, 10, 901},
		{"negative price", -10, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiscountedPrice(tt.price, tt.pct))
		})
	}
}

func TestDiscountAmount(t *testing.T) {
	assert.Equal(t, Money(40000), DiscountAmount(200000, 20))
	assert.Equal(t, Money(0), DiscountAmount(200000, 0))
	assert.Equal(t, Money(0), DiscountAmount(200000, -3))
	assert.Equal(t, Money(3), DiscountAmount(5, 50))
}

func TestDiscountNeverExceedsPrice(t *testing.T) {
	prices := []Money{0, 1, 7, 999, 15500, 200000, 1234567}
	for _, price := range prices {
		for pct := 0; pct <= 100; pct++ {
			discounted := DiscountedPrice(price, pct)
			amount := DiscountAmount(price, pct)
			if discounted > price {
				t.Fatalf("DiscountedPrice(%d, %d) = %d exceeds price", price, pct, discounted)
			}
			diff := discounted + amount - price
			if diff < -1 || diff > 1 {
				t.Fatalf("price %d pct %d: discounted %d + amount %d off by %d", price, pct, discounted, amount, diff)
			}
		}
		assert.Equal(t, price, DiscountedPrice(price, 0))
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "160.000 ₫", Format(160000))
	assert.Equal(t, "0 ₫", Format(0))
}

func TestFormatProductPrice(t *testing.T) {
	info := FormatProductPrice(200000, 20)

	assert.Equal(t, Money(200000), info.OriginalPrice)
	assert.Equal(t, Money(160000), info.DiscountedPrice)
	assert.Equal(t, Money(40000), info.DiscountAmount)
	assert.Equal(t, 20, info.DiscountPct)
	assert.True(t, info.IsOnSale)
	assert.Equal(t, "200.000 ₫", info.Formatted.Original)
	assert.Equal(t, "160.000 ₫", info.Formatted.Discounted)
	assert.Equal(t, "40.000 ₫", info.Formatted.Discount)

	plain := FormatProductPrice(50000, 0)
	assert.False(t, plain.IsOnSale)
	assert.Equal(t, plain.OriginalPrice, plain.DiscountedPrice)
}
