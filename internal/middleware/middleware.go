package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/SafeTrack/ST-Backend/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var allowed = map[string]struct{}{
	"http://localhost:5173":            {},
	"http://localhost:5174":            {},
	"https://app.safetrack.school":     {},
	"https://app-dev.safetrack.school": {},
	"https://admin.safetrack.school":   {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it’s on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		w.Header().Set("Access-Control-Expose-Headers", "Retry-After, Cache-Control")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware tags each request with a UUID so device reports can be
// correlated across log lines.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)

		ctx := context.WithValue(r.Context(), utils.ContextRequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// KeyFunc extracts the bucket key for rate limiting. Device reports are keyed
// by device_id header when present, falling back to the remote address.
type KeyFunc func(r *http.Request) string

func RemoteAddrKey(r *http.Request) string {
	if dev := r.Header.Get("X-Device-Id"); dev != "" {
		return dev
	}
	return r.RemoteAddr
}

// RateLimitMiddleware applies a per-key token bucket. Phones report every few
// seconds at most; anything faster is a misbehaving client.
func RateLimitMiddleware(rps rate.Limit, burst int, key KeyFunc) func(http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(k string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok := limiters[k]
		if !ok {
			lim = rate.NewLimiter(rps, burst)
			limiters[k] = lim
		}
		return lim
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(key(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
