// Package pricing holds the single pricing formula for the whole system.
// Every surface that displays or charges a price goes through EffectivePrice;
// there is no second place where discounts are computed.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EffectivePrice returns the post-discount unit price for a base price and a
// discount percentage. The discount is clamped into [0, 100]; out-of-range
// input is silently clamped, not rejected. A clamped discount of zero returns
// the base price unchanged.
func EffectivePrice(base, discountPct decimal.Decimal) decimal.Decimal {
	d := clampPercentage(discountPct)
	if d.IsZero() {
		return base
	}
	return base.Mul(hundred.Sub(d)).Div(hundred)
}

func clampPercentage(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}

// FormatPrice renders an amount as a display string in the store currency,
// e.g. "EGP 1,234.50". Presentation only; never feed the result back into
// arithmetic.
func FormatPrice(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString("EGP ")
	if amount.IsNegative() {
		b.WriteByte('-')
	}

	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}
