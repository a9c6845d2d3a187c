package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/CatalogImport/internal/config"
	"github.com/JonMunkholm/CatalogImport/internal/logging"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// keyring holds SHA-256 digests of the accepted API keys. Comparing fixed-size
// digests keeps the comparison time independent of key length.
type keyring [][sha256.Size]byte

func newKeyring(keys []string) keyring {
	ring := make(keyring, 0, len(keys))
	for _, k := range keys {
		ring = append(ring, sha256.Sum256([]byte(k)))
	}
	return ring
}

// accepts compares against every digest so timing does not reveal which
// key matched.
func (ring keyring) accepts(key string) bool {
	digest := sha256.Sum256([]byte(key))
	match := 0
	for i := range ring {
		match |= subtle.ConstantTimeCompare(digest[:], ring[i][:])
	}
	return match == 1
}

// APIKeyAuth rejects requests whose X-API-Key header is absent (401) or not
// one of cfg.APIKeys (403). With RequireAPIKey off it is a pass-through, and
// with it on but no keys configured every request is refused.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if !cfg.RequireAPIKey {
		return func(next http.Handler) http.Handler { return next }
	}
	ring := newKeyring(cfg.APIKeys)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)

			var status int
			var code, reason string
			switch {
			case key == "":
				status, code, reason = http.StatusUnauthorized, "AUTH_MISSING_KEY", "missing API key"
			case !ring.accepts(key):
				status, code, reason = http.StatusForbidden, "AUTH_INVALID_KEY", "invalid API key"
			default:
				next.ServeHTTP(w, r)
				return
			}

			logging.FromContext(r.Context()).Warn("request rejected",
				"reason", reason,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			writeJSONError(w, status, reason, code)
		})
	}
}
