package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventgo/eventgo/internal/associations"
	"github.com/eventgo/eventgo/internal/plugins/events"
	"github.com/eventgo/eventgo/internal/plugins/participants"
	"github.com/eventgo/eventgo/internal/plugins/tags"
	"github.com/eventgo/eventgo/internal/validation"
)

// healthProbeTimeout bounds each dependency check in /health.
const healthProbeTimeout = 2 * time.Second

// RegisterRoutes sets up all application routes. This is the single place
// where plugin routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	e.GET("/health", a.health)

	// --- Shared services ---
	v := validation.New()
	assoc := associations.NewManager(a.DB)
	tagRepo := tags.NewTagRepository(a.DB)
	participantRepo := participants.NewParticipantRepository(a.DB)

	tagSvc := tags.NewTagService(a.DB, tagRepo, assoc, a.Cache, v)
	participantSvc := participants.NewParticipantService(a.DB, participantRepo, assoc, a.Cache, v)
	eventSvc := events.NewEventService(a.DB, events.NewEventRepository(a.DB), tagRepo, participantRepo, assoc, a.Cache, v)

	// --- Plugin Routes ---
	api := e.Group("/api")
	events.RegisterRoutes(api, events.NewHandler(eventSvc))
	participants.RegisterRoutes(api, participants.NewHandler(participantSvc))
	tags.RegisterRoutes(api, tags.NewHandler(tagSvc))
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// health probes the database and, when configured, Redis. It returns 503
// if any probe fails so orchestrators can restart or drain the instance.
func (a *App) health(c echo.Context) error {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{},
	}
	code := http.StatusOK

	probe := func(name string, fn func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			slog.Warn("health probe failed", slog.String("check", name), slog.Any("error", err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			return
		}
		resp.Checks[name] = "ok"
	}

	probe("database", a.DB.PingContext)
	if a.Redis != nil {
		probe("cache", a.Cache.Ping)
	} else {
		resp.Checks["cache"] = "disabled"
	}

	return c.JSON(code, resp)
}
