package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/breccia/storefront/internal/domain/auth"
	"github.com/breccia/storefront/internal/domain/order"
	"github.com/breccia/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		for i := range m.products {
			if m.products[i].ID == id {
				out = append(out, m.products[i])
			}
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListCategories(_ context.Context) ([]product.Category, error) {
	return []product.Category{{Slug: "tees", Name: "Tees"}}, nil
}

type mockOrderRepo struct {
	orders    []order.Order
	statusErr error
}

func (m *mockOrderRepo) InsertOrder(_ context.Context, o *order.Order) (int64, error) {
	m.orders = append(m.orders, *o)
	return 1001 + int64(len(m.orders)) - 1, nil
}

func (m *mockOrderRepo) InsertItems(_ context.Context, _ []order.Item) error { return nil }

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ string, _ order.Status) error {
	return m.statusErr
}

func (m *mockOrderRepo) DeleteItems(_ context.Context, _ string) error { return nil }
func (m *mockOrderRepo) Delete(_ context.Context, _ string) error      { return nil }

func (m *mockOrderRepo) List(_ context.Context, _ int) ([]order.Order, error) {
	return m.orders, nil
}

type mockAPIKeyRepo struct {
	info *auth.APIKeyInfo
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	if m.info == nil || m.info.KeyHash != hash {
		return nil, fmt.Errorf("api key not found")
	}
	return m.info, nil
}

// --- Helpers ---

const (
	testProductID = "0b54ad4a-4b9c-4f25-a26c-42b1a92ff5f4"
	testPepper    = "test-pepper"
	testAdminKey  = "breccia-admin-key"
)

func newTestHandler(t *testing.T, products *mockProductRepo, orders *mockOrderRepo) *Handler {
	t.Helper()
	svc := order.NewService(products, orders, nil, zap.NewNop())
	apikeys := &mockAPIKeyRepo{info: &auth.APIKeyInfo{
		ID:      "key-1",
		KeyHash: HashAPIKey(testAdminKey, []byte(testPepper)),
		Name:    "ops",
		Scopes:  []string{ScopeOrders},
	}}
	return NewHandler(
		HandlerConfig{ImageBaseURL: "https://img.example.com", APIKeyPepper: testPepper},
		products, products, svc, apikeys, zap.NewNop(),
	)
}

func newCatalog() *mockProductRepo {
	return &mockProductRepo{products: []product.Product{{
		ID:                 testProductID,
		Name:               "Oversized Tee",
		Price:              decimal.RequireFromString("400"),
		DiscountPercentage: decimal.RequireFromString("10"),
		ImageURL:           "tee.jpg",
		Category:           "tees",
		Colors:             []string{"Black", "Sand"},
		InStock:            true,
	}}}
}

func doRequest(t *testing.T, h *Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func adminHeaders() map[string]string {
	return map[string]string{APIKeyHeader: testAdminKey}
}

var validShipping = `{"name":"Nour Hassan","address":"12 Tahrir Street, Apt 4","city":"Cairo","phone":"01012345678"}`

// --- Tests ---

func TestListProducts(t *testing.T) {
	h := newTestHandler(t, newCatalog(), &mockOrderRepo{})

	rec := doRequest(t, h, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []struct {
		ID             string          `json:"id"`
		Price          decimal.Decimal `json:"price"`
		EffectivePrice decimal.Decimal `json:"effectivePrice"`
		Image          string          `json:"image"`
		Colors         []string        `json:"colors"`
		InStock        bool            `json:"inStock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, testProductID, got[0].ID)
	assert.True(t, decimal.RequireFromString("400").Equal(got[0].Price))
	assert.True(t, decimal.RequireFromString("360").Equal(got[0].EffectivePrice))
	assert.Equal(t, "https://img.example.com/tee.jpg", got[0].Image)
	assert.Equal(t, []string{"Black", "Sand"}, got[0].Colors)
	assert.True(t, got[0].InStock)
}

func TestGetProduct(t *testing.T) {
	h := newTestHandler(t, newCatalog(), &mockOrderRepo{})

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/products/"+testProductID, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Oversized Tee")
	})

	t.Run("not found", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/products/0b54ad4a-0000-0000-0000-000000000000", "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "product not found")
	})
}

func TestListCategories(t *testing.T) {
	h := newTestHandler(t, newCatalog(), &mockOrderRepo{})

	rec := doRequest(t, h, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"tees"`)
}

func TestSubmitOrder(t *testing.T) {
	t.Run("prices come from the catalog", func(t *testing.T) {
		orders := &mockOrderRepo{}
		h := newTestHandler(t, newCatalog(), orders)

		// Whatever price the client might believe, only quantity and product
		// id are read: 2 x 360 + 60 shipping = 780.
		body := fmt.Sprintf(`{"email":"nour@example.com","items":[{"productId":%q,"quantity":2}],"shipping":%s}`,
			testProductID, validShipping)
		rec := doRequest(t, h, http.MethodPost, "/api/orders", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got struct {
			OrderID     string          `json:"orderId"`
			OrderNumber int64           `json:"orderNumber"`
			Total       decimal.Decimal `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got.OrderID)
		assert.Equal(t, int64(1001), got.OrderNumber)
		assert.True(t, decimal.RequireFromString("780").Equal(got.Total), got.Total.String())

		require.Len(t, orders.orders, 1)
		assert.Equal(t, "Nour Hassan", orders.orders[0].Shipping.Name)
	})

	t.Run("empty items", func(t *testing.T) {
		h := newTestHandler(t, newCatalog(), &mockOrderRepo{})
		body := fmt.Sprintf(`{"items":[],"shipping":%s}`, validShipping)
		rec := doRequest(t, h, http.MethodPost, "/api/orders", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "items required")
	})

	t.Run("invalid phone", func(t *testing.T) {
		h := newTestHandler(t, newCatalog(), &mockOrderRepo{})
		shipping := `{"name":"Nour Hassan","address":"12 Tahrir Street, Apt 4","city":"Cairo","phone":"12345"}`
		body := fmt.Sprintf(`{"items":[{"productId":%q,"quantity":1}],"shipping":%s}`, testProductID, shipping)
		rec := doRequest(t, h, http.MethodPost, "/api/orders", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "phone")
	})

	t.Run("unknown product", func(t *testing.T) {
		h := newTestHandler(t, newCatalog(), &mockOrderRepo{})
		body := fmt.Sprintf(`{"items":[{"productId":"1b54ad4a-4b9c-4f25-a26c-42b1a92ff5f4","quantity":1}],"shipping":%s}`,
			validShipping)
		rec := doRequest(t, h, http.MethodPost, "/api/orders", body, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "not found")
	})

	t.Run("malformed body", func(t *testing.T) {
		h := newTestHandler(t, newCatalog(), &mockOrderRepo{})
		rec := doRequest(t, h, http.MethodPost, "/api/orders", `{"items":`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "malformed")
	})
}

func TestAdminAuth(t *testing.T) {
	h := newTestHandler(t, newCatalog(), &mockOrderRepo{})

	t.Run("missing key", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/admin/orders", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/admin/orders", "",
			map[string]string{APIKeyHeader: "not-the-key"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid key", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/admin/orders", "", adminHeaders())
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing scope", func(t *testing.T) {
		svc := order.NewService(newCatalog(), &mockOrderRepo{}, nil, zap.NewNop())
		apikeys := &mockAPIKeyRepo{info: &auth.APIKeyInfo{
			ID:      "key-2",
			KeyHash: HashAPIKey(testAdminKey, []byte(testPepper)),
			Name:    "readonly",
			Scopes:  []string{"catalog"},
		}}
		scoped := NewHandler(
			HandlerConfig{APIKeyPepper: testPepper},
			newCatalog(), newCatalog(), svc, apikeys, zap.NewNop(),
		)
		rec := doRequest(t, scoped, http.MethodGet, "/api/admin/orders", "", adminHeaders())
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestListOrders(t *testing.T) {
	email := "nour@example.com"
	orders := &mockOrderRepo{orders: []order.Order{{
		ID:          "a54ad4a0-4b9c-4f25-a26c-42b1a92ff5f4",
		OrderNumber: 1001,
		UserEmail:   &email,
		Total:       decimal.RequireFromString("780"),
		Status:      order.StatusRequested,
		Shipping:    order.ShippingDetails{Name: "Nour Hassan", City: "Cairo"},
		Items: []order.Item{{
			ProductID:   testProductID,
			ProductName: "Oversized Tee",
			UnitPrice:   decimal.RequireFromString("360"),
			Quantity:    2,
		}},
	}}}
	h := newTestHandler(t, newCatalog(), orders)

	rec := doRequest(t, h, http.MethodGet, "/api/admin/orders", "", adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orderNumber":1001`)
	assert.Contains(t, rec.Body.String(), `"email":"nour@example.com"`)
	assert.Contains(t, rec.Body.String(), `"quantity":2`)

	t.Run("bad limit", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/admin/orders?limit=zero", "", adminHeaders())
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRecordOrder(t *testing.T) {
	orders := &mockOrderRepo{}
	h := newTestHandler(t, newCatalog(), orders)

	// Record trusts the caller's prices: the unit price and total here do not
	// match the catalog, and are stored anyway.
	body := fmt.Sprintf(`{"email":"nour@example.com","total":1000,"status":"shipped",
		"items":[{"productId":%q,"name":"Oversized Tee","unitPrice":500,"quantity":2,"image":null}],
		"shipping":%s}`, testProductID, validShipping)
	rec := doRequest(t, h, http.MethodPost, "/api/admin/orders", body, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, orders.orders, 1)
	assert.True(t, decimal.RequireFromString("1000").Equal(orders.orders[0].Total))
	assert.Equal(t, order.StatusShipped, orders.orders[0].Status)
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("updates", func(t *testing.T) {
		h := newTestHandler(t, newCatalog(), &mockOrderRepo{})
		rec := doRequest(t, h, http.MethodPatch, "/api/admin/orders/some-id/status",
			`{"status":"shipped"}`, adminHeaders())
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		h := newTestHandler(t, newCatalog(), &mockOrderRepo{})
		rec := doRequest(t, h, http.MethodPatch, "/api/admin/orders/some-id/status",
			`{"status":"teleported"}`, adminHeaders())
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown status")
	})

	t.Run("unknown order", func(t *testing.T) {
		h := newTestHandler(t, newCatalog(), &mockOrderRepo{
			statusErr: fmt.Errorf("updating status: %w", order.ErrNotFound),
		})
		rec := doRequest(t, h, http.MethodPatch, "/api/admin/orders/missing/status",
			`{"status":"shipped"}`, adminHeaders())
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteOrder(t *testing.T) {
	h := newTestHandler(t, newCatalog(), &mockOrderRepo{})
	rec := doRequest(t, h, http.MethodDelete, "/api/admin/orders/some-id", "", adminHeaders())
	require.Equal(t, http.StatusNoContent, rec.Code)
}
