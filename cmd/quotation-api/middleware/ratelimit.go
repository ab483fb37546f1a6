// Package middleware provides HTTP middleware for the quotation API.
package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/ratelimit"
)

// RateLimit guards oracle-backed routes with the admission limiter, keyed
// by client IP. Rejected calls get 429 with a Retry-After header and the
// remaining budget for all three windows, so a UI can render actionable
// throttling feedback.
func RateLimit(limiter *ratelimit.Limiter, logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := clientIdentifier(r)
			decision := limiter.Check(identifier)

			w.Header().Set("X-RateLimit-Remaining-Minute", strconv.Itoa(decision.Remaining.Minute))
			w.Header().Set("X-RateLimit-Remaining-Hour", strconv.Itoa(decision.Remaining.Hour))
			w.Header().Set("X-RateLimit-Remaining-Day", strconv.Itoa(decision.Remaining.Day))

			if !decision.Allowed {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				logger.Warn().
					Str("identifier", identifier).
					Str("scope", string(decision.Scope)).
					Int("retry_after", retryAfter).
					Msg("oracle call rejected by rate limiter")

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":               decision.Message,
					"scope":               string(decision.Scope),
					"retry_after_seconds": retryAfter,
					"remaining":           decision.Remaining,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIdentifier keys the limiter on the client IP. RealIP middleware has
// already rewritten RemoteAddr when forwarding headers are present.
func clientIdentifier(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return ratelimit.GlobalIdentifier
	}
	return host
}
