package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrEmptyItems is returned when a submission carries no items.
var ErrEmptyItems = errors.New("items required")

// ErrNotFound is returned when an order id does not match any stored order.
var ErrNotFound = errors.New("order not found")

// ValidationError indicates malformed or incomplete caller input. It is
// detected before any write and surfaced to the shopper as-is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// UnlinkedItemError indicates a cart line whose product reference is missing
// or not a well-formed catalog identifier. These are stale entries from
// before proper product linking; the shopper must re-add the item.
type UnlinkedItemError struct {
	ProductID string
}

func (e *UnlinkedItemError) Error() string {
	return fmt.Sprintf("item %q is missing a valid product reference; remove it and re-add it from the product page", e.ProductID)
}

// ProductNotFoundError indicates a requested product id did not resolve in
// the catalog at submission time. The whole submission is rejected.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Stage identifies which step of a multi-row write failed, so operators can
// reconcile partial state instead of guessing.
type Stage string

const (
	StageInsertOrder  Stage = "insert order"
	StageInsertItems  Stage = "insert order items"
	StageUpdateStatus Stage = "update status"
	StageDeleteItems  Stage = "delete order items"
	StageDeleteOrder  Stage = "delete order"
)

// PersistenceError wraps an order-store write failure with the stage that
// failed.
type PersistenceError struct {
	Stage Stage
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
