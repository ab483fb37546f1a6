package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cityfire/quotation-engine/internal/observability"
)

// RequestContext copies chi's request ID into the observability context so
// handler loggers can correlate log lines with the X-Request-Id header.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(observability.ContextWithRequestID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}
