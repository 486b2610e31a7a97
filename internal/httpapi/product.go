package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/breccia/storefront/internal/domain/pricing"
	"github.com/breccia/storefront/internal/domain/product"
)

// listProducts returns every product in the catalog.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range products {
			h.encodeProduct(e, &products[i])
		}
		e.ArrEnd()
	})
}

// getProduct returns a single product by ID.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		zctx.From(r.Context()).Error("get product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, p)
	})
}

// listCategories returns the browsing categories.
func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list categories", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range categories {
			e.ObjStart()
			e.FieldStart("slug")
			e.Str(c.Slug)
			e.FieldStart("name")
			e.Str(c.Name)
			e.FieldStart("image")
			e.Str(h.imageURL(c.ImageURL))
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}

// encodeProduct writes one product object. The effective price is derived
// here so clients never have to reimplement the discount arithmetic.
func (h *Handler) encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	fieldDecimal(e, "price", p.Price)
	fieldDecimal(e, "discountPercentage", p.DiscountPercentage)
	fieldDecimal(e, "effectivePrice", pricing.EffectivePrice(p.Price, p.DiscountPercentage))
	e.FieldStart("image")
	e.Str(h.imageURL(p.ImageURL))
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("colors")
	e.ArrStart()
	for _, c := range p.Colors {
		e.Str(c)
	}
	e.ArrEnd()
	e.FieldStart("inStock")
	e.Bool(p.InStock)
	e.ObjEnd()
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" || strings.HasPrefix(path, "http") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
