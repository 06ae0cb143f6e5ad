package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets storefront origins send the cart session and idempotency headers
// and read the ones the API sets.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CartSessionHeader, IdempotencyHeader, requestIDHeader},
		ExposedHeaders:   []string{CartSessionHeader, requestIDHeader, ReplayedHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
