package participants

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eventgo/eventgo/internal/apperror"
)

// Handler serves the participant endpoints.
type Handler struct {
	service ParticipantService
}

// NewHandler creates a new participant handler.
func NewHandler(service ParticipantService) *Handler {
	return &Handler{service: service}
}

// ListParticipants handles GET /api/participants.
func (h *Handler) ListParticipants(c echo.Context) error {
	ps, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if ps == nil {
		ps = []ParticipantWithEvents{}
	}
	return c.JSON(http.StatusOK, ps)
}

// GetParticipant handles GET /api/participants/:id.
func (h *Handler) GetParticipant(c echo.Context) error {
	id, err := participantID(c)
	if err != nil {
		return err
	}

	p, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// CreateParticipant handles POST /api/participants.
func (h *Handler) CreateParticipant(c echo.Context) error {
	var req ParticipantInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	p, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdateParticipant handles PUT /api/participants/:id.
func (h *Handler) UpdateParticipant(c echo.Context) error {
	id, err := participantID(c)
	if err != nil {
		return err
	}

	var req ParticipantInput
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	p, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteParticipant handles DELETE /api/participants/:id.
func (h *Handler) DeleteParticipant(c echo.Context) error {
	id, err := participantID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Participant deleted successfully"})
}

func participantID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apperror.NewBadRequest("invalid participant ID")
	}
	return id, nil
}
