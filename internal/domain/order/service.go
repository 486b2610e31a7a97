package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/breccia/storefront/internal/domain/pricing"
	"github.com/breccia/storefront/internal/domain/product"
)

// Shipping rule: flat fee below the free-shipping threshold, free at or above
// it. Both compare against the server-recomputed subtotal.
var (
	freeShippingThreshold = decimal.NewFromInt(1499)
	standardShippingCost  = decimal.NewFromInt(60)
)

// ShippingCost returns the shipping fee for a given order subtotal.
func ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		return decimal.Zero
	}
	return standardShippingCost
}

// SubmitItem is one requested line: a product reference and a quantity.
// Prices are deliberately absent; the service derives them from the catalog.
type SubmitItem struct {
	ProductID string
	Quantity  int
}

// SubmitRequest is the input for the trusted submission path.
type SubmitRequest struct {
	ContactEmail string
	Items        []SubmitItem
	Shipping     ShippingDetails
}

// RecordItem is one caller-priced line for the Record path.
type RecordItem struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	ImageURL    *string
}

// RecordRequest is the input for the lower-trust Record path: the caller has
// already computed prices and the total.
type RecordRequest struct {
	ContactEmail string
	Items        []RecordItem
	Total        decimal.Decimal
	Status       Status
	Shipping     ShippingDetails
}

// Receipt identifies a successfully created order.
type Receipt struct {
	OrderID     string
	OrderNumber int64
	Total       decimal.Decimal
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, map[string]any) error { return nil }

// Service owns order pricing, submission, and the admin status lifecycle.
// It is the trust boundary: charged prices are always re-derived from current
// catalog data, never taken from the client.
type Service struct {
	products product.Repository
	orders   Repository
	notifier Notifier
	lg       *zap.Logger
	now      func() time.Time
}

// NewService creates the order service. A nil notifier disables confirmation
// dispatch; a nil logger falls back to a no-op logger.
func NewService(products product.Repository, orders Repository, notifier Notifier, lg *zap.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{
		products: products,
		orders:   orders,
		notifier: notifier,
		lg:       lg,
		now:      time.Now,
	}
}

// Submit validates the request, re-derives every unit price from the current
// catalog, applies the shipping rule, and persists the order with its items
// as one logical unit. Client-asserted prices never reach this path.
//
// If the item insert fails after the order row was written, the orphaned
// order row is deleted (compensating delete) and the failure is reported
// with the stage that broke; the caller never observes a silent success with
// missing rows.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		// Stale cart lines predating product linking carry empty or display-only
		// ids. Reject them before any catalog lookup.
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return nil, &UnlinkedItemError{ProductID: item.ProductID}
		}
	}
	if err := validateShipping(req.Shipping, req.ContactEmail); err != nil {
		return nil, err
	}

	// Batch-fetch every distinct product referenced.
	seen := make(map[string]struct{}, len(req.Items))
	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Recompute unit prices from current catalog values. The price the client
	// saw at add-to-cart time is advisory only and is discarded here.
	items := make([]Item, len(req.Items))
	subtotal := decimal.Zero
	for i, reqItem := range req.Items {
		p, ok := byID[reqItem.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: reqItem.ProductID}
		}

		unit := pricing.EffectivePrice(p.Price, p.DiscountPercentage)
		var imageURL *string
		if p.ImageURL != "" {
			u := p.ImageURL
			imageURL = &u
		}
		items[i] = Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   unit,
			Quantity:    reqItem.Quantity,
			ImageURL:    imageURL,
		}
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(reqItem.Quantity))))
	}

	total := subtotal.Add(ShippingCost(subtotal))

	var email *string
	if req.ContactEmail != "" {
		e := req.ContactEmail
		email = &e
	}

	o := &Order{
		ID:        uuid.New().String(),
		UserEmail: email,
		Total:     total,
		Status:    StatusRequested,
		Shipping:  req.Shipping,
		CreatedAt: s.now(),
	}

	orderNumber, err := s.orders.InsertOrder(ctx, o)
	if err != nil {
		return nil, &PersistenceError{Stage: StageInsertOrder, Err: err}
	}
	o.OrderNumber = orderNumber

	for i := range items {
		items[i].OrderID = o.ID
	}
	if err := s.orders.InsertItems(ctx, items); err != nil {
		// Compensating delete so no item-less order row is left behind. If the
		// compensation itself fails, operators reconcile from the logged order id.
		if delErr := s.orders.Delete(ctx, o.ID); delErr != nil {
			s.lg.Error("orphaned order row left after item insert failure",
				zap.String("order_id", o.ID),
				zap.Error(delErr),
			)
		}
		return nil, &PersistenceError{Stage: StageInsertItems, Err: err}
	}
	o.Items = items

	receipt := &Receipt{OrderID: o.ID, OrderNumber: orderNumber, Total: total}
	s.dispatchConfirmation(ctx, o, receipt)
	return receipt, nil
}

// Record persists an order whose prices were computed by the caller, e.g. an
// admin keying in a phone order. Unlike Submit it trusts the supplied unit
// prices, names, and total; never expose it to shopper-controlled input.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*Receipt, error) {
	status := req.Status
	if status == "" {
		status = StatusRequested
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}

	var email *string
	if req.ContactEmail != "" {
		e := req.ContactEmail
		email = &e
	}

	o := &Order{
		ID:        uuid.New().String(),
		UserEmail: email,
		Total:     req.Total,
		Status:    status,
		Shipping:  req.Shipping,
		CreatedAt: s.now(),
	}

	orderNumber, err := s.orders.InsertOrder(ctx, o)
	if err != nil {
		return nil, &PersistenceError{Stage: StageInsertOrder, Err: err}
	}
	o.OrderNumber = orderNumber

	if len(req.Items) > 0 {
		items := make([]Item, len(req.Items))
		for i, it := range req.Items {
			items[i] = Item{
				OrderID:     o.ID,
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				UnitPrice:   it.UnitPrice,
				Quantity:    it.Quantity,
				ImageURL:    it.ImageURL,
			}
		}
		if err := s.orders.InsertItems(ctx, items); err != nil {
			if delErr := s.orders.Delete(ctx, o.ID); delErr != nil {
				s.lg.Error("orphaned order row left after item insert failure",
					zap.String("order_id", o.ID),
					zap.Error(delErr),
				)
			}
			return nil, &PersistenceError{Stage: StageInsertItems, Err: err}
		}
		o.Items = items
	}

	return &Receipt{OrderID: o.ID, OrderNumber: orderNumber, Total: req.Total}, nil
}

// UpdateStatus sets an order's fulfillment status. Any status is reachable
// from any other; only enum membership is checked.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return &PersistenceError{Stage: StageUpdateStatus, Err: err}
	}
	return nil
}

// Delete removes an order and its items, items first for referential
// integrity. Each stage fails distinctly so a partial deletion (items gone,
// order row still present) is observable.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.orders.DeleteItems(ctx, id); err != nil {
		return &PersistenceError{Stage: StageDeleteItems, Err: err}
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return &PersistenceError{Stage: StageDeleteOrder, Err: err}
	}
	return nil
}

// List returns recent orders with their items for the admin dashboard.
// An item-less order in status requested may simply still be being written.
func (s *Service) List(ctx context.Context, limit int) ([]Order, error) {
	out, err := s.orders.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return out, nil
}

// dispatchConfirmation fires the confirmation message without tying its
// outcome to the submission result: the receipt has already been committed,
// so dispatch runs on a detached context and failures are only logged.
func (s *Service) dispatchConfirmation(ctx context.Context, o *Order, receipt *Receipt) {
	displayNumber := shortReference(o.ID)
	if receipt.OrderNumber > 0 {
		displayNumber = decimal.NewFromInt(receipt.OrderNumber).String()
	}

	var lines []string
	for _, it := range o.Items {
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		lines = append(lines, "• "+it.ProductName+" x "+
			decimal.NewFromInt(int64(it.Quantity)).String()+" – "+pricing.FormatPrice(lineTotal))
	}

	email := ""
	if o.UserEmail != nil {
		email = *o.UserEmail
	}

	params := map[string]any{
		"to_email":             email,
		"customer_name":        customerName(o.Shipping.Name),
		"order_id":             o.ID,
		"order_number":         displayNumber,
		"order_total":          receipt.Total.StringFixed(2),
		"order_items_markdown": strings.Join(lines, "\n"),
		"year":                 s.now().Year(),
	}

	dispatchCtx := context.WithoutCancel(ctx)
	go func() {
		sendCtx, cancel := context.WithTimeout(dispatchCtx, 15*time.Second)
		defer cancel()
		if err := s.notifier.Send(sendCtx, params); err != nil {
			s.lg.Warn("order confirmation dispatch failed",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
		}
	}()
}

func customerName(name string) string {
	if name == "" {
		return "Customer"
	}
	return name
}

// shortReference is the human-facing fallback when no sequential order number
// exists: the first 8 characters of the id, uppercased.
func shortReference(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
