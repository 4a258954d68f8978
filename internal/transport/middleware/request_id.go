package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/crawlingsloth/blvq-backend/pkg/ctxutil"
)

// RequestIDHeader is the header a request ID is read from and echoed to.
const RequestIDHeader = "X-Request-Id"

// RequestID returns middleware that ensures every request carries a request
// ID: an incoming header value is reused, otherwise a fresh UUID is issued.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			ctx := ctxutil.WithRequestID(r.Context(), id)
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
