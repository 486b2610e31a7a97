package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"slices"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// APIKeyHeader carries the admin API key on incoming requests.
const APIKeyHeader = "Api-Key"

// ScopeOrders grants access to the admin order endpoints.
const ScopeOrders = "orders"

// HashAPIKey derives the stored lookup hash for an API key. The pepper is a
// server-side secret, so a leaked database alone is not enough to forge keys.
func HashAPIKey(key string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// requireAPIKey authenticates the request by hashing the presented key,
// looking it up, and constant-time comparing the stored hash. The same 401
// is returned for every failure mode so callers cannot probe which part
// failed.
func (h *Handler) requireAPIKey(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		hexHash := HashAPIKey(key, h.pepper)
		info, err := h.apikeys.FindByHash(r.Context(), hexHash)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		// Constant-time comparison of the stored hash against what we
		// computed, in case the repository returns a stale or wrong row.
		computed, err := hex.DecodeString(hexHash)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !slices.Contains(info.Scopes, scope) {
			writeError(w, http.StatusForbidden, "insufficient scope")
			return
		}

		zctx.From(r.Context()).Debug("api key accepted",
			zap.String("key_name", info.Name), zap.String("scope", scope))
		next(w, r)
	}
}
