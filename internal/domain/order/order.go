package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of a persisted order. Transitions are
// admin-driven and deliberately unrestricted: any status may be set from any
// other. The UI sequences them; the service only checks enum membership.
type Status string

const (
	StatusRequested   Status = "requested"
	StatusReadyToShip Status = "ready_to_ship"
	StatusShipped     Status = "shipped"
	StatusDelivered   Status = "delivered"
)

// Valid reports whether s is one of the known fulfillment states.
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusReadyToShip, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// ShippingDetails is the shipping snapshot captured at submission time.
// PostalCode is optional; the rest are required.
type ShippingDetails struct {
	Name       string
	Address    string
	City       string
	PostalCode string
	Phone      string
}

// Order is a persisted customer order. Total is always server-computed: the
// sum of item unit prices times quantities plus the shipping cost derived
// from that same subtotal.
type Order struct {
	ID          string
	OrderNumber int64
	UserEmail   *string
	Total       decimal.Decimal
	Status      Status
	Shipping    ShippingDetails
	CreatedAt   time.Time
	Items       []Item
}

// Item is one order line, snapshotted at order time so later catalog edits or
// deletions do not affect it. Created atomically with its order and never
// mutated afterwards.
type Item struct {
	OrderID     string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	ImageURL    *string
}

// Repository defines persistence operations for orders and their items.
// InsertOrder assigns the display order number server-side and returns it.
type Repository interface {
	InsertOrder(ctx context.Context, o *Order) (orderNumber int64, err error)
	InsertItems(ctx context.Context, items []Item) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	DeleteItems(ctx context.Context, orderID string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]Order, error)
}

// Notifier dispatches an order-confirmation message. Implementations must
// tolerate arbitrary template parameters; all values are coerced to strings
// before leaving the process.
type Notifier interface {
	Send(ctx context.Context, params map[string]any) error
}
