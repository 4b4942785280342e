package events

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eventgo/eventgo/internal/apperror"
)

// Handler handles HTTP requests for events. Handlers are thin: bind
// request, call service, render response.
type Handler struct {
	service EventService
}

// NewHandler creates a new event handler backed by the given service.
func NewHandler(service EventService) *Handler {
	return &Handler{service: service}
}

// ListEvents returns every event with tags and participants (GET /api/events).
func (h *Handler) ListEvents(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), ListFilter{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(list))
}

// ListEventsByTag returns events carrying a tag (GET /api/events/by-tag/:tagId).
// An unknown tag yields an empty array, not 404.
func (h *Handler) ListEventsByTag(c echo.Context) error {
	tagID, err := strconv.Atoi(c.Param("tagId"))
	if err != nil {
		return apperror.NewBadRequest("invalid tag ID")
	}

	list, err := h.service.List(c.Request().Context(), ListFilter{TagID: &tagID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(list))
}

// GetEvent returns a single event (GET /api/events/:id).
func (h *Handler) GetEvent(c echo.Context) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}

	evt, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, evt)
}

// CreateEvent creates an event and links its tags and participants
// (POST /api/events).
func (h *Handler) CreateEvent(c echo.Context) error {
	var req EventInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	evt, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, evt)
}

// UpdateEvent replaces an event (PUT /api/events/:id).
func (h *Handler) UpdateEvent(c echo.Context) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}

	var req EventInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	evt, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, evt)
}

// DeleteEvent removes an event and its associations (DELETE /api/events/:id).
func (h *Handler) DeleteEvent(c echo.Context) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}

func eventID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apperror.NewBadRequest("invalid event ID")
	}
	return id, nil
}

func nonNil(list []Event) []Event {
	if list == nil {
		return []Event{}
	}
	return list
}
