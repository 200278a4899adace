package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"https://*.shopwalk.dev",
}

// CORS returns middleware that applies the API's allowed origin policy.
// Agent traffic is server-to-server and unaffected; this covers the
// merchant dashboard and browser-based integration testing.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "UCP-Agent", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
