package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		discount string
		want     string
	}{
		{"no discount", "100", "0", "100"},
		{"ten percent", "100", "10", "90"},
		{"fifty percent", "799.90", "50", "399.95"},
		{"full discount", "250", "100", "0"},
		{"negative clamped to zero", "100", "-20", "100"},
		{"over hundred clamped", "100", "150", "0"},
		{"fractional discount", "200", "12.5", "175"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectivePrice(d(tt.base), d(tt.discount))
			assert.True(t, d(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestEffectivePrice_ZeroDiscountReturnsBaseUnchanged(t *testing.T) {
	base := d("123.45")
	got := EffectivePrice(base, decimal.Zero)
	assert.Equal(t, base.String(), got.String())
}

func TestEffectivePrice_MonotonicInDiscount(t *testing.T) {
	base := d("499")
	prev := EffectivePrice(base, decimal.Zero)
	for pct := 5; pct <= 100; pct += 5 {
		cur := EffectivePrice(base, decimal.NewFromInt(int64(pct)))
		assert.True(t, cur.LessThanOrEqual(prev),
			"price at %d%% (%s) should not exceed price at %d%% (%s)", pct, cur, pct-5, prev)
		prev = cur
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "EGP 0.00"},
		{"60", "EGP 60.00"},
		{"1499", "EGP 1,499.00"},
		{"1234567.5", "EGP 1,234,567.50"},
		{"999.999", "EGP 1,000.00"},
		{"-45.5", "EGP -45.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(d(tt.amount)))
	}
}
