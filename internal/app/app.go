// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, optional Redis client, cache,
// Echo instance) and wires the plugins onto the router.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eventgo/eventgo/internal/apperror"
	"github.com/eventgo/eventgo/internal/cache"
	"github.com/eventgo/eventgo/internal/config"
	"github.com/eventgo/eventgo/internal/middleware"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the connection pool shared by all plugins.
	DB *sqlx.DB

	// Redis backs the response cache. Nil when REDIS_URL is unset.
	Redis *redis.Client

	// Cache is the listing cache; a no-op when Redis is nil.
	Cache cache.Cache

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// stop ends background work started by middleware.
	stop context.CancelFunc
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling. rdb may be nil.
func New(cfg *config.Config, db *sqlx.DB, rdb *redis.Client) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Trust forwarding headers from the reverse proxy so c.RealIP() returns
	// the client address. Rate limiting and request logs depend on it.
	middleware.TrustedProxies(e, middleware.DefaultTrustedProxies)

	c := cache.NewNoop()
	if rdb != nil {
		c = cache.NewRedis(rdb, cfg.Redis.CacheTTL)
	}

	ctx, stop := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Cache:  c,
		Echo:   e,
		stop:   stop,
	}

	app.setupMiddleware(ctx)

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: the request ID is assigned first so every later layer can
// log it, and recovery sits inside the logger so panics are logged as 500s.
func (a *App) setupMiddleware(ctx context.Context) {
	a.Echo.Use(middleware.RequestID())
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(middleware.SecurityHeaders())

	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: a.Config.HTTP.AllowedOrigins,
	}))

	// Health probes often share one proxy IP and must not be throttled.
	a.Echo.Use(middleware.RateLimit(ctx, a.Config.HTTP.RateLimit, a.Config.HTTP.RateLimitWindow,
		middleware.SkipPaths("/health")))
}

// errorResponse is the JSON body of every failed request. The web client
// shows Error verbatim.
type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to their status and message, echo's router errors to their
// code, and anything else to a generic 500. Internal causes are logged,
// never returned.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	resp := errorResponse{
		Error: "An unexpected error occurred. Please try again.",
		Type:  apperror.TypeInternal,
	}
	code := http.StatusInternalServerError

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		resp = errorResponse{Error: appErr.Message, Type: appErr.Type}

		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", middleware.GetRequestID(c)),
			)
		}

	case errors.As(err, &echoErr):
		// Router errors such as unknown route or wrong method.
		code = echoErr.Code
		resp.Type = typeForStatus(code)
		if msg, ok := echoErr.Message.(string); ok {
			resp.Error = msg
		} else {
			resp.Error = http.StatusText(code)
		}

	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("request_id", middleware.GetRequestID(c)),
		)
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(code)
		return
	}
	c.JSON(code, resp)
}

// typeForStatus classifies a bare HTTP status for the error body.
func typeForStatus(code int) string {
	switch {
	case code == http.StatusNotFound:
		return apperror.TypeNotFound
	case code == http.StatusTooManyRequests:
		return apperror.TypeRateLimited
	case code >= 500:
		return apperror.TypeInternal
	default:
		return apperror.TypeBadRequest
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting EventGo server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// Shutdown drains in-flight requests and stops background workers.
func (a *App) Shutdown(ctx context.Context) error {
	a.stop()
	return a.Echo.Shutdown(ctx)
}
