package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary() ProductSummary {
	return ProductSummary{
		ID:                 "p1",
		Name:               "Boxy Hoodie",
		Price:              decimal.RequireFromString("100"),
		DiscountPercentage: decimal.RequireFromString("10"),
		ImageURL:           "hoodie.jpg",
		Colors:             []string{"Black", "Sand"},
	}
}

func TestPicker_ConfirmWithoutSize(t *testing.T) {
	store := NewStore(newMemStorage(), nil)
	p := NewPicker(store, testSummary(), -1, 1)

	err := p.Confirm()

	require.ErrorIs(t, err, ErrSizeRequired)
	assert.True(t, p.Open(), "picker must stay open after a failed confirm")
	assert.Empty(t, store.Items())
}

func TestPicker_ConfirmAddsDiscountedLine(t *testing.T) {
	store := NewStore(newMemStorage(), nil)
	p := NewPicker(store, testSummary(), 1, 2)

	require.NoError(t, p.SelectSize(SizeL))
	require.NoError(t, p.Confirm())

	items := store.Items()
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "p1-Sand-L", it.LineID)
	assert.Equal(t, "p1", it.ProductID)
	assert.Equal(t, "Sand", it.Color)
	assert.Equal(t, SizeL, it.Size)
	assert.Equal(t, 2, it.Quantity)
	assert.True(t, decimal.RequireFromString("90").Equal(it.UnitPrice))
	require.NotNil(t, it.OriginalPrice)
	assert.True(t, decimal.RequireFromString("100").Equal(*it.OriginalPrice))

	assert.False(t, p.Open(), "picker closes after a successful confirm")
}

func TestPicker_NoDiscountOmitsOriginalPrice(t *testing.T) {
	store := NewStore(newMemStorage(), nil)
	summary := testSummary()
	summary.DiscountPercentage = decimal.Zero
	p := NewPicker(store, summary, -1, 1)

	require.NoError(t, p.SelectSize(SizeM))
	require.NoError(t, p.Confirm())

	items := store.Items()
	require.Len(t, items, 1)
	assert.Nil(t, items[0].OriginalPrice)
	assert.Equal(t, "", items[0].Color)
}

func TestPicker_SelectUnknownSize(t *testing.T) {
	p := NewPicker(NewStore(newMemStorage(), nil), testSummary(), -1, 1)

	err := p.SelectSize("XS")

	require.ErrorIs(t, err, ErrUnknownSize)
}

func TestPicker_ConfirmAfterClose(t *testing.T) {
	p := NewPicker(NewStore(newMemStorage(), nil), testSummary(), -1, 1)
	require.NoError(t, p.SelectSize(SizeM))
	p.Close()

	require.ErrorIs(t, p.Confirm(), ErrPickerClosed)
}

// confirmAgainNotifier calls Confirm on the same picker from inside the cart's
// add notification, i.e. while the first confirm is still submitting.
type confirmAgainNotifier struct {
	picker *Picker
	err    error
}

func (n *confirmAgainNotifier) Notify(string, string) {
	n.err = n.picker.Confirm()
}

func TestPicker_SecondConfirmRejectedWhileSubmitting(t *testing.T) {
	n := &confirmAgainNotifier{}
	store := NewStore(newMemStorage(), n)
	p := NewPicker(store, testSummary(), -1, 1)
	n.picker = p

	require.NoError(t, p.SelectSize(SizeM))
	require.NoError(t, p.Confirm())

	require.ErrorIs(t, n.err, ErrConfirmInFlight)
	assert.Len(t, store.Items(), 1, "the rejected confirm must not add a second line")
}

func TestPicker_CloseResetsSize(t *testing.T) {
	store := NewStore(newMemStorage(), nil)
	p := NewPicker(store, testSummary(), -1, 1)
	require.NoError(t, p.SelectSize(SizeM))
	p.Close()

	// Reopening semantics are a new picker; the old one must not submit.
	require.ErrorIs(t, p.Confirm(), ErrPickerClosed)
	assert.Empty(t, store.Items())
}

func TestSizes_FixedEnumeration(t *testing.T) {
	assert.Equal(t, []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL}, Sizes())
	for _, s := range Sizes() {
		assert.True(t, ValidSize(s))
	}
	assert.False(t, ValidSize("XS"))
}
