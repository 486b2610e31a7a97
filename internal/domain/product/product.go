package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is the base
// price; the charged price is derived from it and DiscountPercentage by the
// pricing package.
type Product struct {
	ID                 string
	Name               string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	ImageURL           string
	Category           string
	Colors             []string
	InStock            bool
}

// Category groups products for browsing.
type Category struct {
	Slug     string
	Name     string
	ImageURL string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// CategoryRepository defines read operations for product categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
}
