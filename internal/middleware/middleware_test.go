package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventgo/eventgo/internal/apperror"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// --- RequestID ---

func TestRequestID_Generated(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := rec.Header().Get(echo.HeaderXRequestID)
	if len(id) != 36 {
		t.Errorf("expected a UUID, got %q", id)
	}
	if GetRequestID(c) != id {
		t.Errorf("context id %q does not match header %q", GetRequestID(c), id)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "upstream-42")
	c, rec := newContext(req)

	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "upstream-42" {
		t.Errorf("expected upstream id, got %q", got)
	}
}

// --- CORS ---

func TestCORS_AllowedOriginPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	c, rec := newContext(req)

	mw := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}})
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:5173" {
		t.Errorf("expected origin echoed, got %q", got)
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowMethods) == "" {
		t.Error("expected allowed methods on preflight")
	}
}

func TestCORS_UnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.test")
	c, rec := newContext(req)

	mw := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}})
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowOrigin) != "" {
		t.Error("expected no CORS headers for unknown origin")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected request to proceed, got %d", rec.Code)
	}
}

// --- RateLimit ---

func TestRateLimit_BlocksOverBudget(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, 2, time.Hour, nil)(okHandler)
	e := echo.New()

	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		err := h(e.NewContext(req, httptest.NewRecorder()))

		if i <= 2 && err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
		if i == 3 {
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429 on request 3, got %v", err)
			}
		}
	}

	// A different client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.1:5000"
	if err := h(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Errorf("expected other IP allowed, got %v", err)
	}
}

func TestRateLimit_SkippedPathsNotCounted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.NoContent(apperror.SafeCode(err))
	}
	e.Use(RateLimit(ctx, 1, time.Hour, SkipPaths("/health")))
	e.GET("/health", okHandler)
	e.GET("/items", okHandler)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first counted request allowed, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 on second counted request, got %d", rec.Code)
	}
}

// --- Recovery ---

func TestRecovery_ConvertsPanic(t *testing.T) {
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	err := Recovery()(func(c echo.Context) error {
		panic("boom")
	})(c)

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected internal AppError, got %v", err)
	}
	if appErr.Message == "boom" {
		t.Error("panic value must not leak to the client")
	}
}

// --- SecurityHeaders ---

func TestSecurityHeaders(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	if err := SecurityHeaders()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, h := range []string{"Content-Security-Policy", "X-Content-Type-Options", "X-Frame-Options"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("expected %s header", h)
		}
	}
}

// --- TrustedProxies ---

func TestIPExtractor(t *testing.T) {
	extract := buildIPExtractor([]string{"10.0.0.0/8", "not-a-cidr"})

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"untrusted peer ignores header", "203.0.113.5:1234", "1.2.3.4", "203.0.113.5"},
		{"trusted peer uses leftmost", "10.1.2.3:1234", "1.2.3.4, 10.1.2.3", "1.2.3.4"},
		{"trusted peer without header", "10.1.2.3:1234", "", "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set(echo.HeaderXForwardedFor, tt.xff)
			}
			if got := extract(req); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
