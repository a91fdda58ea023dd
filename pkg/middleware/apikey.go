package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/datalinkhq/connector-engine/pkg/audit"
)

// APIKeyAuth returns middleware that requires the X-API-Key header to match
// key on every /api/ route. Health endpoints stay open for probes. An empty
// key disables the check, which is only acceptable for local development.
// Rejections are recorded with the auditor.
func APIKeyAuth(key string, auditor *audit.SecurityAuditor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		if auditor == nil {
			auditor = audit.NewSecurityAuditor(nil)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				auditor.AuthFailure(r.RemoteAddr, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "unauthorized",
					"message": "Invalid or missing API key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
