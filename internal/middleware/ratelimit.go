package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventgo/eventgo/internal/apperror"
)

// rateLimitEntry tracks request counts for a single IP within a time window.
type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// Skipper reports whether a request bypasses a middleware.
type Skipper func(c echo.Context) bool

// SkipPaths returns a Skipper matching the given route paths.
func SkipPaths(paths ...string) Skipper {
	return func(c echo.Context) bool {
		for _, p := range paths {
			if c.Path() == p {
				return true
			}
		}
		return false
	}
}

// RateLimit returns middleware that limits requests per client IP to
// maxRequests within each fixed window. Excess requests get a 429. Requests
// matched by skip (may be nil) are never counted. Expired entries are swept
// every window until ctx is done.
func RateLimit(ctx context.Context, maxRequests int, window time.Duration, skip Skipper) echo.MiddlewareFunc {
	var mu sync.Mutex
	entries := make(map[string]*rateLimitEntry)

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				mu.Lock()
				for ip, entry := range entries {
					if now.Sub(entry.windowStart) > window*2 {
						delete(entries, ip)
					}
				}
				mu.Unlock()
			}
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}
			ip := c.RealIP()
			now := time.Now()

			mu.Lock()
			entry, exists := entries[ip]
			if !exists || now.Sub(entry.windowStart) > window {
				entries[ip] = &rateLimitEntry{count: 1, windowStart: now}
				mu.Unlock()
				return next(c)
			}

			entry.count++
			over := entry.count > maxRequests
			mu.Unlock()

			if over {
				return apperror.NewRateLimited("Rate limit exceeded. Please try again later.")
			}
			return next(c)
		}
	}
}
