package events

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the event endpoints on the API group. The by-tag
// route is a static prefix, so echo matches it before /events/:id.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/events", h.ListEvents)
	g.GET("/events/by-tag/:tagId", h.ListEventsByTag)
	g.GET("/events/:id", h.GetEvent)
	g.POST("/events", h.CreateEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
}
