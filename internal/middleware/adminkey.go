package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
	"github.com/OttoOtter-hub/TyreTerra/pkg/response"
)

// NewAdminKey creates a middleware that guards operator endpoints with
// a shared key carried in the X-Admin-Key header. An empty configured
// key disables the endpoints entirely.
func NewAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				response.Error(w, apperr.AccessDenied("admin endpoints are disabled"))
				return
			}

			provided := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				response.Error(w, apperr.AccessDenied("invalid admin key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
