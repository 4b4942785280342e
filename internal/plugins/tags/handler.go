package tags

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eventgo/eventgo/internal/apperror"
)

// Handler handles HTTP requests for tag operations. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service TagService
}

// NewHandler creates a new tag handler backed by the given service.
func NewHandler(service TagService) *Handler {
	return &Handler{service: service}
}

// ListTags returns all tags as JSON (GET /api/tags).
func (h *Handler) ListTags(c echo.Context) error {
	tags, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}

	// Return empty array instead of null when no tags exist.
	if tags == nil {
		tags = []TagWithEvents{}
	}

	return c.JSON(http.StatusOK, tags)
}

// GetTag returns a single tag (GET /api/tags/:id).
func (h *Handler) GetTag(c echo.Context) error {
	id, err := tagID(c)
	if err != nil {
		return err
	}

	tag, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tag)
}

// CreateTag creates a new tag (POST /api/tags).
func (h *Handler) CreateTag(c echo.Context) error {
	var req TagInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	tag, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, tag)
}

// UpdateTag replaces an existing tag (PUT /api/tags/:id).
func (h *Handler) UpdateTag(c echo.Context) error {
	id, err := tagID(c)
	if err != nil {
		return err
	}

	var req TagInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	tag, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag (DELETE /api/tags/:id).
func (h *Handler) DeleteTag(c echo.Context) error {
	id, err := tagID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Tag deleted successfully"})
}

func tagID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apperror.NewBadRequest("invalid tag ID")
	}
	return id, nil
}
