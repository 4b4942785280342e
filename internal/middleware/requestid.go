package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// requestIDKey is the echo context key holding the request ID.
const requestIDKey = "request_id"

// RequestID returns middleware that tags each request with an ID. An
// incoming X-Request-ID header is reused so IDs survive a proxy hop;
// otherwise a random UUID is generated. The ID is echoed in the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}

			c.Set(requestIDKey, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}
