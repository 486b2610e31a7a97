package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/breccia/storefront/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, user_email, total, status, shipping_name, shipping_address, shipping_city, shipping_postal_code, shipping_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING order_number`

	insertOrderItemSQL = `INSERT INTO order_items
		(order_id, product_id, product_name, unit_price, quantity, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	deleteOrderItemsSQL = `DELETE FROM order_items WHERE order_id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, order_number, user_email, total, status,
		shipping_name, shipping_address, shipping_city, shipping_postal_code, shipping_phone, created_at
		FROM orders ORDER BY created_at DESC LIMIT $1`

	listOrderItemsSQL = `SELECT order_id, product_id, product_name, unit_price, quantity, image_url
		FROM order_items WHERE order_id = ANY($1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// InsertOrder persists the order row and returns the sequential display
// number the database assigned.
func (r *OrderRepository) InsertOrder(ctx context.Context, o *order.Order) (int64, error) {
	var orderNumber int64
	err := r.pool.QueryRow(ctx, insertOrderSQL,
		o.ID, o.UserEmail, o.Total, string(o.Status),
		nullable(o.Shipping.Name), nullable(o.Shipping.Address), nullable(o.Shipping.City),
		nullable(o.Shipping.PostalCode), nullable(o.Shipping.Phone),
		o.CreatedAt,
	).Scan(&orderNumber)
	if err != nil {
		return 0, fmt.Errorf("inserting order %q: %w", o.ID, err)
	}
	return orderNumber, nil
}

// InsertItems persists all item rows for an order in a single batch.
func (r *OrderRepository) InsertItems(ctx context.Context, items []order.Item) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(insertOrderItemSQL,
			it.OrderID, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, it.ImageURL,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i := range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting order item %d for order %q: %w", i, items[i].OrderID, err)
		}
	}
	return nil
}

// UpdateStatus sets the status column for an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating status of order %q: %w", id, order.ErrNotFound)
	}
	return nil
}

// DeleteItems removes all item rows belonging to an order.
func (r *OrderRepository) DeleteItems(ctx context.Context, orderID string) error {
	if _, err := r.pool.Exec(ctx, deleteOrderItemsSQL, orderID); err != nil {
		return fmt.Errorf("deleting items of order %q: %w", orderID, err)
	}
	return nil
}

// Delete removes an order row. Items must have been deleted first.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteOrderSQL, id); err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	return nil
}

// List returns the most recent orders with their items attached. An order
// whose items have not been written yet simply comes back item-less.
func (r *OrderRepository) List(ctx context.Context, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}

	for _, it := range items {
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                                  order.Order
		status                             string
		name, address, city, postal, phone *string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserEmail, &o.Total, &status,
		&name, &address, &city, &postal, &phone, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	o.Shipping = order.ShippingDetails{
		Name:       deref(name),
		Address:    deref(address),
		City:       deref(city),
		PostalCode: deref(postal),
		Phone:      deref(phone),
	}
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.OrderID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.ImageURL)
	return it, err
}

// nullable maps an empty string to NULL for optional text columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
