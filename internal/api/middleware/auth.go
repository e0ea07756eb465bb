package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/shortsrelay/internal/domain"
)

// TokenParam is the route parameter carrying the webhook secret.
const TokenParam = "token"

// WebhookToken rejects requests whose {token} path segment does not match secret.
func WebhookToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := chi.URLParam(r, TokenParam)
			if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": domain.ErrUnauthorized.Error()})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
