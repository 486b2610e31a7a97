// Package httpapi exposes the storefront over HTTP: public catalog and order
// submission endpoints plus an API-key protected admin surface for the order
// lifecycle. Handlers decode with jx and delegate all business logic to the
// domain services.
package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/breccia/storefront/internal/domain/auth"
	"github.com/breccia/storefront/internal/domain/order"
	"github.com/breccia/storefront/internal/domain/product"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	// APIKeyPepper is mixed into API key hashes. Changing it invalidates
	// every issued key.
	APIKeyPepper string
}

// Handler carries the HTTP surface. All state is injected; handlers hold no
// mutable state of their own and are safe for concurrent use.
type Handler struct {
	products     product.Repository
	categories   product.CategoryRepository
	orders       *order.Service
	apikeys      auth.Repository
	imageBaseURL string
	pepper       []byte
	lg           *zap.Logger
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products product.Repository,
	categories product.CategoryRepository,
	orders *order.Service,
	apikeys auth.Repository,
	lg *zap.Logger,
) *Handler {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Handler{
		products:     products,
		categories:   categories,
		orders:       orders,
		apikeys:      apikeys,
		imageBaseURL: cfg.ImageBaseURL,
		pepper:       []byte(cfg.APIKeyPepper),
		lg:           lg,
	}
}

// Routes returns the route table. Admin routes are wrapped with API key
// authentication; everything else is public.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("POST /api/orders", h.submitOrder)

	mux.HandleFunc("GET /api/admin/orders", h.requireAPIKey(ScopeOrders, h.listOrders))
	mux.HandleFunc("POST /api/admin/orders", h.requireAPIKey(ScopeOrders, h.recordOrder))
	mux.HandleFunc("PATCH /api/admin/orders/{id}/status", h.requireAPIKey(ScopeOrders, h.updateOrderStatus))
	mux.HandleFunc("DELETE /api/admin/orders/{id}", h.requireAPIKey(ScopeOrders, h.deleteOrder))

	return mux
}
