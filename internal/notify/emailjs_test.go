package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		ServiceID:  "svc_1",
		TemplateID: "tpl_1",
		PublicKey:  "pk_1",
		BaseURL:    baseURL,
	}
}

func TestSend_CoercesParamsToStrings(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1.0/email/send", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	err := c.Send(context.Background(), map[string]any{
		"order_number": 2042,
		"order_total":  "310.00",
		"year":         2026,
		"missing":      nil,
	})

	require.NoError(t, err)
	assert.Equal(t, "svc_1", got.ServiceID)
	assert.Equal(t, "tpl_1", got.TemplateID)
	assert.Equal(t, "pk_1", got.UserID)
	assert.Equal(t, map[string]string{
		"order_number": "2042",
		"order_total":  "310.00",
		"year":         "2026",
		"missing":      "",
	}, got.TemplateParams)
}

func TestSend_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad template", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	err := c.Send(context.Background(), map[string]any{"a": "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSend_UnconfiguredIsNoOp(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}) // no credentials
	err := c.Send(context.Background(), map[string]any{"a": "b"})

	require.NoError(t, err)
	assert.False(t, called)
}
