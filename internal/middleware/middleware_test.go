package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SafeTrack/ST-Backend/internal/middleware"
	"github.com/SafeTrack/ST-Backend/internal/utils"
	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestCORSMiddleware_AllowedOrigin verifies an allow-listed origin is echoed
// back with credentials enabled.
func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := middleware.CORSMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected origin echoed back, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials allowed for listed origin")
	}
}

// TestCORSMiddleware_UnknownOrigin verifies an unknown origin gets no CORS
// grant.
func TestCORSMiddleware_UnknownOrigin(t *testing.T) {
	handler := middleware.CORSMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS grant, got %q", got)
	}
}

// TestCORSMiddleware_Preflight verifies OPTIONS short-circuits with 204.
func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := middleware.CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the inner handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
}

// TestRequestIDMiddleware verifies a request id lands in both the response
// header and the request context.
func TestRequestIDMiddleware(t *testing.T) {
	var ctxID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID, _ = utils.GetRequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequestIDMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	headerID := rec.Header().Get("X-Request-Id")
	if headerID == "" {
		t.Fatal("expected X-Request-Id header to be set")
	}
	if ctxID != headerID {
		t.Errorf("context id %q does not match header id %q", ctxID, headerID)
	}
}

// TestRequestIDMiddleware_Passthrough verifies a client-supplied id is kept.
func TestRequestIDMiddleware_Passthrough(t *testing.T) {
	handler := middleware.RequestIDMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-Id", "device-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "device-supplied-id" {
		t.Errorf("expected passthrough of client id, got %q", got)
	}
}

// TestRateLimitMiddleware_Burst verifies requests beyond the burst get 429
// and independent keys do not share a bucket.
func TestRateLimitMiddleware_Burst(t *testing.T) {
	mw := middleware.RateLimitMiddleware(rate.Limit(0.001), 2, middleware.RemoteAddrKey)
	handler := mw(okHandler())

	send := func(device string) int {
		req := httptest.NewRequest(http.MethodPost, "/location", nil)
		req.Header.Set("X-Device-Id", device)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("DEV-A"); code != http.StatusOK {
		t.Fatalf("request 1: expected 200, got %d", code)
	}
	if code := send("DEV-A"); code != http.StatusOK {
		t.Fatalf("request 2: expected 200, got %d", code)
	}
	if code := send("DEV-A"); code != http.StatusTooManyRequests {
		t.Errorf("request 3: expected 429, got %d", code)
	}

	// A different device has its own bucket.
	if code := send("DEV-B"); code != http.StatusOK {
		t.Errorf("other device: expected 200, got %d", code)
	}
}
