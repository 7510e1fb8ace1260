package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

type rateErr struct {
	Error string `json:"error"`
}

// RateLimitMiddleware applies one process-wide token bucket. A nil limiter
// disables limiting; paths in skip (e.g. /health, /metrics) are never limited.
func RateLimitMiddleware(l *rate.Limiter, skip ...string) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	skipSet := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipSet[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skipSet[r.URL.Path]; ok || l.Allow() {
				next.ServeHTTP(w, r)
				return
			}
			retry := 1.0
			if l.Limit() > 0 {
				retry = math.Max(1, math.Ceil(1.0/float64(l.Limit())))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(retry)))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rateErr{Error: http.StatusText(http.StatusTooManyRequests)})
		})
	}
}

func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
