package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadinessGate(t *testing.T) {
	svc := New()

	assert.False(t, svc.IsReady(), "not ready before SetReady")

	svc.SetReady(true)
	assert.True(t, svc.IsReady())

	svc.SetReady(false)
	assert.False(t, svc.IsReady())
}

func TestFailureThreshold(t *testing.T) {
	svc := New()
	failing := func(context.Context) error { return errors.New("down") }
	svc.AddReadinessCheck("db", time.Second, failing)
	svc.SetReady(true)

	p := svc.readiness[0]
	ctx := context.Background()

	// Below the threshold the probe stays healthy.
	p.run(ctx)
	p.run(ctx)
	assert.True(t, svc.IsReady())

	p.run(ctx)
	assert.False(t, svc.IsReady(), "three consecutive failures mark it unhealthy")

	// One success restores it.
	p.check = func(context.Context) error { return nil }
	p.run(ctx)
	assert.True(t, svc.IsReady())
}

func TestReadyEndpoint(t *testing.T) {
	svc := New()
	svc.SetReady(true)

	t.Run("ok", func(t *testing.T) {
		w := httptest.NewRecorder()
		svc.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("failing check", func(t *testing.T) {
		svc.AddReadinessCheck("db", time.Second, func(context.Context) error {
			return errors.New("connection refused")
		})
		p := svc.readiness[0]
		for range 3 {
			p.run(context.Background())
		}

		w := httptest.NewRecorder()
		svc.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Contains(t, resp.Checks["db"], "connection refused")
	})
}

func TestLiveEndpoint(t *testing.T) {
	svc := New()
	svc.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(100000))
	svc.liveness[0].run(context.Background())

	w := httptest.NewRecorder()
	svc.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
