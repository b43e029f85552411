package handler

import (
	"net/http"
	"time"

	"comedybar/internal/dto"
	"comedybar/internal/service"

	"github.com/gin-gonic/gin"
)

type EventsHandler struct{ svc service.EventService }

func NewEventsHandler(svc service.EventService) *EventsHandler { return &EventsHandler{svc: svc} }

// Create godoc
// @Summary Cadastra um evento (show)
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateEventRequest true "Evento"
// @Success 201 {object} dto.EventResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/events [post]
func (h *EventsHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary Evento por ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do evento"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/events/{id} [get]
func (h *EventsHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Lista eventos a partir de uma data
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param from query string false "AAAA-MM-DD"
// @Success 200 {array} dto.EventResponse
// @Router /v1/events [get]
func (h *EventsHandler) List(c *gin.Context) {
	var from *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(c, &service.ValidationError{Field: "from", Message: "data inválida, use AAAA-MM-DD"})
			return
		}
		from = &t
	}
	resp, err := h.svc.List(c.Request.Context(), from)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
