package www

import (
	"crypto/subtle"
	"net/http"
)

// requireKey guards mutating endpoints with the configured API key,
// presented in the X-Api-Key header.
func (h *Handlers) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := h.engine.AppConfig().Web.APIKey
		if want == "" {
			h.jsonError(w, "api key not configured", http.StatusForbidden)
			return
		}
		got := r.Header.Get("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			h.jsonError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
