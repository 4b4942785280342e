package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests, e.g. the web client's dev server. ["*"] allows any origin.
	AllowedOrigins []string

	// AllowCredentials lets browsers send cookies and auth headers
	// cross-origin. The API itself does not use them.
	AllowCredentials bool
}

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")

	corsAllowHeaders = strings.Join([]string{
		echo.HeaderContentType,
		echo.HeaderAuthorization,
		echo.HeaderXRequestedWith,
		echo.HeaderXRequestID,
	}, ", ")
)

// CORS returns middleware that handles Cross-Origin Resource Sharing
// headers. The web client is served from a different origin than the API,
// so every /api call from a browser goes through here.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	// SECURITY: Wildcard origin with credentials would let any site make
	// credentialed requests. Credentials are dropped in that case.
	if allowAll && cfg.AllowCredentials {
		slog.Warn("CORS misconfiguration: wildcard origin with credentials, credentials disabled")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get(echo.HeaderOrigin)

			// No Origin header means same-origin request -- skip CORS.
			if origin == "" {
				return next(c)
			}

			// Origin not allowed: proceed without CORS headers and let the
			// browser block the response.
			if !allowAll && !originSet[origin] {
				return next(c)
			}

			res.Header().Set(echo.HeaderAccessControlAllowOrigin, origin)
			res.Header().Add(echo.HeaderVary, echo.HeaderOrigin)

			if cfg.AllowCredentials {
				res.Header().Set(echo.HeaderAccessControlAllowCredentials, "true")
			}

			if req.Method == http.MethodOptions {
				res.Header().Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
				res.Header().Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
				// Cache preflight response for 1 hour.
				res.Header().Set(echo.HeaderAccessControlMaxAge, "3600")
				return c.NoContent(http.StatusNoContent)
			}

			res.Header().Set(echo.HeaderAccessControlExposeHeaders, echo.HeaderXRequestID)

			return next(c)
		}
	}
}
