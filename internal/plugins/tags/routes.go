package tags

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the tag endpoints on the API group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/tags", h.ListTags)
	g.GET("/tags/:id", h.GetTag)
	g.POST("/tags", h.CreateTag)
	g.PUT("/tags/:id", h.UpdateTag)
	g.DELETE("/tags/:id", h.DeleteTag)
}
