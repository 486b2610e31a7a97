// Package cart implements the client-held shopping cart: an ordered list of
// line items keyed by (product, color, size), persisted to durable key-value
// storage after every mutation.
package cart

import (
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"
)

// StorageKey is the fixed namespace under which the cart snapshot is stored.
const StorageKey = "breccia-cart"

// Size is a garment size. The set of sizes is fixed; stock-per-size filtering
// happens in the catalog before an item reaches the cart.
type Size string

const (
	SizeS    Size = "S"
	SizeM    Size = "M"
	SizeL    Size = "L"
	SizeXL   Size = "XL"
	SizeXXL  Size = "XXL"
	SizeXXXL Size = "XXXL"
)

// Sizes returns the fixed size enumeration in display order.
func Sizes() []Size {
	return []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL}
}

// ValidSize reports whether s is one of the fixed sizes.
func ValidSize(s Size) bool {
	switch s {
	case SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL:
		return true
	}
	return false
}

// LineItem is one distinct (product, color, size) entry in the cart.
// UnitPrice is the price the shopper was shown at add time; it is advisory
// only and re-derived server-side at submission.
type LineItem struct {
	LineID        string           `json:"id"`
	ProductID     string           `json:"productId,omitempty"`
	Name          string           `json:"name"`
	Image         string           `json:"image"`
	UnitPrice     decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Quantity      int              `json:"quantity"`
	Size          Size             `json:"size,omitempty"`
	Color         string           `json:"color,omitempty"`
}

// LineID derives the deterministic line identity for a variant, so adding the
// same variant twice merges quantity instead of duplicating a row.
func LineID(productID, color string, size Size) string {
	if color == "" {
		color = "default"
	}
	return productID + "-" + color + "-" + string(size)
}

// Storage is the durable client-side key-value store the cart persists to.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Notifier receives user-visible messages describing cart changes.
type Notifier interface {
	Notify(title, message string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

// Store owns the in-progress order. Every mutation persists the full snapshot
// and recomputes derived totals on demand; subtotal and item count are never
// cached. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	items    []LineItem
	storage  Storage
	notifier Notifier
}

// NewStore creates a cart, restoring items from storage when a snapshot is
// present. Corrupt or missing snapshots yield an empty cart; startup never
// fails on bad storage. A nil notifier is allowed.
func NewStore(storage Storage, notifier Notifier) *Store {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	s := &Store{storage: storage, notifier: notifier}
	if raw, ok := storage.Get(StorageKey); ok {
		var items []LineItem
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			s.items = items
		}
	}
	return s
}

// Add inserts item into the cart, merging quantity into an existing line with
// the same LineID. A quantity below 1 is coerced to 1.
func (s *Store) Add(item LineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].LineID == item.LineID {
			s.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}
	s.persistLocked()
	s.mu.Unlock()

	if merged {
		s.notifier.Notify("Updated cart", "Quantity updated for "+item.Name)
	} else {
		s.notifier.Notify("Added to cart", item.Name+" has been added to your cart")
	}
}

// Remove deletes the line with the given id. Removing an absent line is a
// no-op, not an error.
func (s *Store) Remove(lineID string) {
	s.mu.Lock()
	removed := false
	for i := range s.items {
		if s.items[i].LineID == lineID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if removed {
		s.notifier.Notify("Removed from cart", "Item has been removed from your cart")
	}
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or below
// removes the line entirely; a line with non-positive quantity never exists.
// Quantity-only updates are silent; an absent line or an unchanged quantity
// leaves the snapshot untouched.
func (s *Store) UpdateQuantity(lineID string, quantity int) {
	if quantity <= 0 {
		s.Remove(lineID)
		return
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].LineID == lineID {
			if s.items[i].Quantity != quantity {
				s.items[i].Quantity = quantity
				s.persistLocked()
			}
			break
		}
	}
	s.mu.Unlock()
}

// Clear empties the cart unconditionally, e.g. after a confirmed order.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.persistLocked()
	s.mu.Unlock()
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Subtotal is the sum of unit price times quantity over current lines,
// recomputed on every call.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, it := range s.items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// ItemCount is the total quantity across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Savings is the total discount across lines that carry an original price,
// used only for display.
func (s *Store) Savings() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, it := range s.items {
		if it.OriginalPrice != nil && it.OriginalPrice.GreaterThan(it.UnitPrice) {
			diff := it.OriginalPrice.Sub(it.UnitPrice)
			sum = sum.Add(diff.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	return sum
}

// persistLocked writes the full snapshot to storage. Caller holds s.mu.
// The durable copy is written synchronously, so it is never more than one
// mutation behind memory.
func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.items)
	if err != nil {
		return
	}
	s.storage.Set(StorageKey, string(raw))
}
