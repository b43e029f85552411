package handler

import (
	"net/http"

	"comedybar/internal/dto"
	"comedybar/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SessionsHandler struct {
	svc    service.SessionService
	rollup service.RollupService
}

func NewSessionsHandler(svc service.SessionService, rollup service.RollupService) *SessionsHandler {
	return &SessionsHandler{svc: svc, rollup: rollup}
}

// Open godoc
// @Summary Abre a sessão do bar para um evento
// @Description Cria a sessão e as comandas numeradas de 1 a N, todas livres.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Evento"
// @Success 201 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.ConflictError
// @Router /v1/sessions [post]
func (h *SessionsHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	eventID, _ := uuid.Parse(req.EventID)
	resp, err := h.svc.OpenSession(c.Request.Context(), eventID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Fecha a sessão do bar
// @Description Nunca bloqueia por comandas em aberto; open_tabs traz a contagem.
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da sessão"
// @Success 200 {object} dto.CloseSessionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/sessions/{id}/close [post]
func (h *SessionsHandler) Close(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CloseSession(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active godoc
// @Summary Sessão aberta atual
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Success 204 "Nenhuma sessão aberta"
// @Router /v1/sessions/active [get]
func (h *SessionsHandler) Active(c *gin.Context) {
	resp, err := h.svc.GetActiveSession(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Unclosed godoc
// @Summary Sessão de um evento anterior ainda aberta
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param exclude_event_id query string false "Evento a ignorar"
// @Success 200 {object} dto.SessionResponse
// @Success 204 "Nenhuma"
// @Router /v1/sessions/unclosed [get]
func (h *SessionsHandler) Unclosed(c *gin.Context) {
	var exclude *uuid.UUID
	if raw := c.Query("exclude_event_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(c, &service.ValidationError{Field: "exclude_event_id", Message: "inválido"})
			return
		}
		exclude = &id
	}
	resp, err := h.svc.GetUnclosedPreviousSession(c.Request.Context(), exclude)
	if err != nil {
		writeError(c, err)
		return
	}
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary Histórico de sessões
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página"
// @Param limit query int false "Itens por página"
// @Success 200 {object} dto.SessionListResponse
// @Router /v1/sessions [get]
func (h *SessionsHandler) History(c *gin.Context) {
	resp, err := h.svc.History(c.Request.Context(), intQuery(c, "page", 1), intQuery(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Tabs godoc
// @Summary Comandas da sessão, por número
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da sessão"
// @Success 200 {array} dto.TabResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/{id}/tabs [get]
func (h *SessionsHandler) Tabs(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListTabs(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary Resumo financeiro da sessão
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da sessão"
// @Success 200 {object} dto.SessionSummaryResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/{id}/summary [get]
func (h *SessionsHandler) Summary(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetSummary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Recalculate godoc
// @Summary Recalcula receita e custo da sessão a partir das comandas pagas
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da sessão"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/{id}/recalculate [post]
func (h *SessionsHandler) Recalculate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.rollup.RecalculateSessionTotals(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
