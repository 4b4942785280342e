package participants

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the participant endpoints on the API group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/participants", h.ListParticipants)
	g.GET("/participants/:id", h.GetParticipant)
	g.POST("/participants", h.CreateParticipant)
	g.PUT("/participants/:id", h.UpdateParticipant)
	g.DELETE("/participants/:id", h.DeleteParticipant)
}
