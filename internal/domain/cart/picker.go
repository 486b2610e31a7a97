package cart

import (
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/breccia/storefront/internal/domain/pricing"
)

var (
	// ErrSizeRequired is returned when Confirm is called before a size was chosen.
	ErrSizeRequired = errors.New("size required")
	// ErrUnknownSize is returned for a size outside the fixed enumeration.
	ErrUnknownSize = errors.New("unknown size")
	// ErrPickerClosed is returned when the picker is no longer open.
	ErrPickerClosed = errors.New("picker closed")
	// ErrConfirmInFlight is returned when a confirm is already being submitted.
	ErrConfirmInFlight = errors.New("confirm already in flight")
)

// ProductSummary is the slice of catalog data the size picker needs.
type ProductSummary struct {
	ID                 string
	Name               string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	ImageURL           string
	Colors             []string
}

// Picker is the short-lived size/variant selection step. An item cannot enter
// the cart without passing through it: closed → open → size chosen →
// submitting → closed. On any failure the picker stays open for retry.
type Picker struct {
	mu         sync.Mutex
	cart       *Store
	product    ProductSummary
	colorIndex int
	quantity   int
	size       Size
	open       bool
	submitting bool
}

// NewPicker opens a picker for the given product. colorIndex selects from
// product.Colors; pass a negative index when the product has no color
// variants or none was chosen.
func NewPicker(cart *Store, product ProductSummary, colorIndex, quantity int) *Picker {
	return &Picker{
		cart:       cart,
		product:    product,
		colorIndex: colorIndex,
		quantity:   quantity,
		open:       true,
	}
}

// SelectSize records the shopper's size choice.
func (p *Picker) SelectSize(s Size) error {
	if !ValidSize(s) {
		return errors.Wrapf(ErrUnknownSize, "%q", s)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return ErrPickerClosed
	}
	p.size = s
	return nil
}

// Open reports whether the picker is still accepting input.
func (p *Picker) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Close dismisses the picker and resets the size selection.
func (p *Picker) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.size = ""
	p.open = false
}

// Confirm builds the line item from the current selection and adds it to the
// cart. It fails with ErrSizeRequired when no size was chosen, leaving the
// picker open. Only one confirm may be in flight at a time. On success the
// selection is reset and the picker closes.
func (p *Picker) Confirm() error {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return ErrPickerClosed
	}
	if p.submitting {
		p.mu.Unlock()
		return ErrConfirmInFlight
	}
	if p.size == "" {
		p.mu.Unlock()
		return ErrSizeRequired
	}
	p.submitting = true
	size := p.size
	p.mu.Unlock()

	unit := pricing.EffectivePrice(p.product.Price, p.product.DiscountPercentage)
	var original *decimal.Decimal
	if unit.LessThan(p.product.Price) {
		base := p.product.Price
		original = &base
	}

	color := ""
	if p.colorIndex >= 0 && p.colorIndex < len(p.product.Colors) {
		color = p.product.Colors[p.colorIndex]
	}

	p.cart.Add(LineItem{
		LineID:        LineID(p.product.ID, color, size),
		ProductID:     p.product.ID,
		Name:          p.product.Name,
		Image:         p.product.ImageURL,
		UnitPrice:     unit,
		OriginalPrice: original,
		Quantity:      p.quantity,
		Size:          size,
		Color:         color,
	})

	p.mu.Lock()
	p.submitting = false
	p.size = ""
	p.open = false
	p.mu.Unlock()
	return nil
}
