package service

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"comedybar/internal/dto"
	"comedybar/internal/model"
	"comedybar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryService owns stock on hand and its audit trail.
type InventoryService interface {
	// ReconcileTabTx turns a closing tab's lines into stock decrements and
	// one "venda" transaction per line, on the caller's transaction.
	ReconcileTabTx(tx *gorm.DB, eventID uuid.UUID, tabNumber int, items []model.TabItem) error
	RegisterMovement(ctx context.Context, req dto.StockMovementRequest) (*dto.StockTransactionResponse, error)
	GetItem(ctx context.Context, id uuid.UUID) (*dto.StockItemResponse, error)
	ListItems(ctx context.Context, filter dto.StockItemFilter) (*dto.StockItemListResponse, error)
	LowStockAlerts(ctx context.Context) ([]dto.StockItemResponse, error)
	ListMovements(ctx context.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error)
}

type inventoryService struct {
	items repository.StockItemRepository
	txs   repository.StockTransactionRepository
}

func NewInventoryService(items repository.StockItemRepository, txs repository.StockTransactionRepository) InventoryService {
	return &inventoryService{items: items, txs: txs}
}

// ── ReconcileTabTx ────────────────────────────────────────────────────────────
// Decrements are unconditional: overselling leaves negative stock, which the
// low-stock indicator then flags.

func (s *inventoryService) ReconcileTabTx(tx *gorm.DB, eventID uuid.UUID, tabNumber int, items []model.TabItem) error {
	note := fmt.Sprintf("Comanda #%d", tabNumber)
	// Stock rows are locked in id order so concurrent closes cannot deadlock.
	items = slices.Clone(items)
	slices.SortFunc(items, func(a, b model.TabItem) int {
		return bytes.Compare(a.StockItemID[:], b.StockItemID[:])
	})
	for _, it := range items {
		if err := s.items.AdjustQuantityTx(tx, it.StockItemID, -it.Quantity); err != nil {
			return notFound(err, "item de estoque", it.StockItemID)
		}

		ev := eventID
		mov := &model.StockTransaction{
			StockItemID: it.StockItemID,
			Type:        model.StockVenda,
			Quantity:    -it.Quantity,
			UnitCost:    it.UnitCost,
			TotalCost:   it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))),
			EventID:     &ev,
			Note:        note,
		}
		if err := s.txs.CreateTx(tx, mov); err != nil {
			return err
		}
	}
	return nil
}

// ── RegisterMovement ──────────────────────────────────────────────────────────
// compra always adds and perda always removes, whatever the sign sent;
// ajuste and transferencia keep the caller's sign.

func (s *inventoryService) RegisterMovement(ctx context.Context, req dto.StockMovementRequest) (*dto.StockTransactionResponse, error) {
	itemID, err := uuid.Parse(req.StockItemID)
	if err != nil {
		return nil, &ValidationError{Field: "stock_item_id", Message: "inválido"}
	}
	if req.Quantity == 0 {
		return nil, &ValidationError{Field: "quantity", Message: "não pode ser zero"}
	}

	var eventID *uuid.UUID
	if req.EventID != nil {
		id, err := uuid.Parse(*req.EventID)
		if err != nil {
			return nil, &ValidationError{Field: "event_id", Message: "inválido"}
		}
		eventID = &id
	}

	delta := req.Quantity
	switch req.Type {
	case model.StockCompra:
		delta = abs(req.Quantity)
	case model.StockPerda:
		delta = -abs(req.Quantity)
	case model.StockAjuste, model.StockTransferencia:
	default:
		return nil, &ValidationError{Field: "type", Message: "tipo de movimentação inválido"}
	}

	var mov model.StockTransaction
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		item, err := s.items.FindByIDForUpdateTx(tx, itemID)
		if err != nil {
			return notFound(err, "item de estoque", itemID)
		}
		unitCost := item.CostPrice
		if req.UnitCost != nil {
			unitCost = *req.UnitCost
		}
		if err := s.items.AdjustQuantityTx(tx, itemID, delta); err != nil {
			return notFound(err, "item de estoque", itemID)
		}
		mov = model.StockTransaction{
			StockItemID: itemID,
			Type:        req.Type,
			Quantity:    delta,
			UnitCost:    unitCost,
			TotalCost:   unitCost.Mul(decimal.NewFromInt(int64(abs(delta)))),
			EventID:     eventID,
			Note:        req.Note,
		}
		return s.txs.CreateTx(tx, &mov)
	})
	if err != nil {
		return nil, err
	}

	resp := stockTransactionToResponse(&mov)
	return &resp, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*dto.StockItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "item de estoque", id)
	}
	resp := stockItemToResponse(item)
	return &resp, nil
}

func (s *inventoryService) ListItems(ctx context.Context, filter dto.StockItemFilter) (*dto.StockItemListResponse, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	items, total, err := s.items.List(ctx, repository.StockItemFilter{
		Name:     filter.Name,
		Category: filter.Category,
		LowStock: filter.LowStock,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.StockItemResponse, len(items))
	for i := range items {
		data[i] = stockItemToResponse(&items[i])
	}
	return &dto.StockItemListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *inventoryService) LowStockAlerts(ctx context.Context) ([]dto.StockItemResponse, error) {
	items, _, err := s.items.List(ctx, repository.StockItemFilter{LowStock: true, Page: 1, Limit: 500})
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.StockItemResponse, len(items))
	for i := range items {
		alerts[i] = stockItemToResponse(&items[i])
	}
	return alerts, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	f := repository.StockTransactionFilter{Type: filter.Type, Page: page, Limit: limit}
	if filter.StockItemID != "" {
		id, err := uuid.Parse(filter.StockItemID)
		if err != nil {
			return nil, &ValidationError{Field: "stock_item_id", Message: "inválido"}
		}
		f.StockItemID = &id
	}
	if filter.EventID != "" {
		id, err := uuid.Parse(filter.EventID)
		if err != nil {
			return nil, &ValidationError{Field: "event_id", Message: "inválido"}
		}
		f.EventID = &id
	}

	movs, total, err := s.txs.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.StockTransactionResponse, len(movs))
	for i := range movs {
		data[i] = stockTransactionToResponse(&movs[i])
	}
	return &dto.StockMovementListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return page, limit
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
