package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"comedybar/internal/apierror"
	"comedybar/internal/dto"
	"comedybar/internal/repository"
	"comedybar/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyStore is the Redis-backed store used by CloseTab.
type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, jsonPayload string) error
	GetResult(ctx context.Context, key string) (string, bool, error)
	Release(ctx context.Context, key string) error
}

type TabsHandler struct {
	svc  service.TabService
	idem IdempotencyStore
}

// NewTabsHandler builds the handler; idem may be nil to disable
// Idempotency-Key support.
func NewTabsHandler(svc service.TabService, idem IdempotencyStore) *TabsHandler {
	return &TabsHandler{svc: svc, idem: idem}
}

// Detail godoc
// @Summary Comanda com seus itens
// @Tags tabs
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da comanda"
// @Success 200 {object} dto.TabDetailResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tabs/{id} [get]
func (h *TabsHandler) Detail(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetTabDetail(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Open godoc
// @Summary Abre a comanda
// @Tags tabs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da comanda"
// @Param body body dto.OpenTabRequest false "Nome do cliente"
// @Success 200 {object} dto.TabResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/tabs/{id}/open [post]
func (h *TabsHandler) Open(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.OpenTabRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.OpenTab(c.Request.Context(), id, req.CustomerName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateCustomerName godoc
// @Summary Altera o nome do cliente da comanda
// @Tags tabs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da comanda"
// @Param body body dto.UpdateCustomerNameRequest true "Nome (null limpa)"
// @Success 200 {object} dto.TabResponse
// @Router /v1/tabs/{id}/customer-name [put]
func (h *TabsHandler) UpdateCustomerName(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCustomerNameRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateTabCustomerName(c.Request.Context(), id, req.CustomerName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary Adiciona um item de estoque à comanda
// @Description Repetir o mesmo item soma a quantidade e mantém o preço da primeira inclusão.
// @Tags tabs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da comanda"
// @Param body body dto.AddItemRequest true "Item"
// @Success 200 {object} dto.TabResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/tabs/{id}/items [post]
func (h *TabsHandler) AddItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	stockID, _ := uuid.Parse(req.StockItemID)
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	resp, err := h.svc.AddItem(c.Request.Context(), id, stockID, qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItemQuantity godoc
// @Summary Altera a quantidade de um item da comanda
// @Description Quantidade zero ou negativa remove o item.
// @Tags tabs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item da comanda"
// @Param body body dto.UpdateItemQuantityRequest true "Quantidade"
// @Success 200 {object} dto.TabResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tab-items/{id} [patch]
func (h *TabsHandler) UpdateItemQuantity(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItemQuantity(c.Request.Context(), id, *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary Remove um item da comanda
// @Tags tabs
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item da comanda"
// @Success 200 {object} dto.TabResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tab-items/{id} [delete]
func (h *TabsHandler) RemoveItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApplyDiscount godoc
// @Summary Define o desconto (valor absoluto) da comanda
// @Tags tabs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da comanda"
// @Param body body dto.ApplyDiscountRequest true "Desconto"
// @Success 200 {object} dto.TabResponse
// @Router /v1/tabs/{id}/discount [put]
func (h *TabsHandler) ApplyDiscount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ApplyDiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyDiscount(c.Request.Context(), id, *req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Fecha (paga) a comanda
// @Description Baixa o estoque, registra as vendas e recalcula a sessão. Aceita Idempotency-Key.
// @Tags tabs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da comanda"
// @Param Idempotency-Key header string false "Chave de idempotência"
// @Param body body dto.CloseTabRequest true "Forma de pagamento"
// @Success 200 {object} dto.TabResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/tabs/{id}/close [post]
func (h *TabsHandler) Close(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CloseTabRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	var storageKey string
	if h.idem != nil && idemKey != "" {
		storageKey = repository.KeyIdemTabClose(id.String(), idemKey)

		if payload, found, _ := h.idem.GetResult(ctx, storageKey); found {
			replayStored(c, idemKey, payload)
			return
		}
		locked, err := h.idem.AcquireLock(ctx, storageKey, 60*time.Second)
		if err != nil {
			writeError(c, err)
			return
		}
		if !locked {
			if payload, found, _ := h.idem.GetResult(ctx, storageKey); found {
				replayStored(c, idemKey, payload)
				return
			}
			c.Header("Retry-After", "1")
			c.JSON(http.StatusConflict, apierror.New("requisição com esta Idempotency-Key em andamento"))
			return
		}
	}

	resp, err := h.svc.CloseTab(ctx, id, req.PaymentMethod)
	if err != nil {
		if storageKey != "" {
			_ = h.idem.Release(ctx, storageKey)
		}
		writeError(c, err)
		return
	}

	if storageKey != "" {
		b, _ := json.Marshal(resp)
		_ = h.idem.SaveResult(ctx, storageKey, string(b))
		c.Header("Idempotency-Key", idemKey)
	}
	c.JSON(http.StatusOK, resp)
}

func replayStored(c *gin.Context, idemKey, payload string) {
	c.Header("Idempotency-Key", idemKey)
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
}
