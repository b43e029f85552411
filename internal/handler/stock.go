package handler

import (
	"net/http"

	"comedybar/internal/apierror"
	"comedybar/internal/dto"
	"comedybar/internal/service"

	"github.com/gin-gonic/gin"
)

type StockHandler struct{ svc service.InventoryService }

func NewStockHandler(svc service.InventoryService) *StockHandler { return &StockHandler{svc: svc} }

// ListItems godoc
// @Summary Lista itens de estoque ativos
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param name query string false "Nome (parcial)"
// @Param category query string false "Categoria"
// @Param low_stock query bool false "Só estoque baixo"
// @Success 200 {object} dto.StockItemListResponse
// @Router /v1/stock/items [get]
func (h *StockHandler) ListItems(c *gin.Context) {
	var filter dto.StockItemFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return
	}
	resp, err := h.svc.ListItems(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetItem godoc
// @Summary Item de estoque por ID
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Success 200 {object} dto.StockItemResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/stock/items/{id} [get]
func (h *StockHandler) GetItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetItem(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Alerts godoc
// @Summary Itens com estoque no mínimo ou abaixo
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.StockItemResponse
// @Router /v1/stock/alerts [get]
func (h *StockHandler) Alerts(c *gin.Context) {
	resp, err := h.svc.LowStockAlerts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterMovement godoc
// @Summary Registra uma movimentação manual de estoque
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.StockMovementRequest true "Movimentação"
// @Success 201 {object} dto.StockTransactionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/stock/movements [post]
func (h *StockHandler) RegisterMovement(c *gin.Context) {
	var req dto.StockMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterMovement(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMovements godoc
// @Summary Histórico de movimentações de estoque
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param stock_item_id query string false "Item"
// @Param event_id query string false "Evento"
// @Param type query string false "compra | venda | ajuste | perda | transferencia"
// @Success 200 {object} dto.StockMovementListResponse
// @Router /v1/stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter dto.StockMovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
