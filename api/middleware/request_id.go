package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID propagates an inbound request id or mints one, echoes it on the
// response, and binds it into the logging context. Inbound ids longer than a
// UUID string are replaced rather than trusted.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" || len(id) > 36 {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
