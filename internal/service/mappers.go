package service

import (
	"time"

	"comedybar/internal/dto"
	"comedybar/internal/model"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func sessionToResponse(s *model.BarSession) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:           s.ID.String(),
		EventID:      s.EventID.String(),
		Status:       s.Status,
		TotalRevenue: s.TotalRevenue,
		TotalCost:    s.TotalCost,
		OpenedAt:     s.OpenedAt.Format(timeLayout),
		ClosedAt:     formatTime(s.ClosedAt),
	}
	if s.Event != nil {
		resp.EventName = s.Event.Name
	}
	return resp
}

func tabToResponse(t *model.Tab) dto.TabResponse {
	return dto.TabResponse{
		ID:            t.ID.String(),
		SessionID:     t.SessionID.String(),
		Number:        t.Number,
		CustomerName:  t.CustomerName,
		Status:        t.Status,
		Subtotal:      t.Subtotal,
		Discount:      t.Discount,
		Total:         t.Total,
		PaymentMethod: t.PaymentMethod,
		OpenedAt:      formatTime(t.OpenedAt),
		ClosedAt:      formatTime(t.ClosedAt),
	}
}

func tabToDetail(t *model.Tab) dto.TabDetailResponse {
	detail := dto.TabDetailResponse{
		TabResponse: tabToResponse(t),
		Items:       make([]dto.TabItemResponse, 0, len(t.Items)),
	}
	for _, it := range t.Items {
		name := ""
		if it.StockItem != nil {
			name = it.StockItem.Name
		}
		detail.Items = append(detail.Items, dto.TabItemResponse{
			ID:          it.ID.String(),
			StockItemID: it.StockItemID.String(),
			Name:        name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	return detail
}

func stockItemToResponse(s *model.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ID:              s.ID.String(),
		Name:            s.Name,
		Category:        s.Category,
		Unit:            s.Unit,
		CurrentQuantity: s.CurrentQuantity,
		MinimumQuantity: s.MinimumQuantity,
		CostPrice:       s.CostPrice,
		SalePrice:       s.SalePrice,
		Supplier:        s.Supplier,
		LowStock:        s.IsLowStock(),
	}
}

func stockTransactionToResponse(t *model.StockTransaction) dto.StockTransactionResponse {
	resp := dto.StockTransactionResponse{
		ID:          t.ID.String(),
		StockItemID: t.StockItemID.String(),
		Type:        t.Type,
		Quantity:    t.Quantity,
		UnitCost:    t.UnitCost,
		TotalCost:   t.TotalCost,
		Note:        t.Note,
		CreatedAt:   t.CreatedAt.Format(timeLayout),
	}
	if t.StockItem != nil {
		resp.StockItem = t.StockItem.Name
	}
	if t.EventID != nil {
		id := t.EventID.String()
		resp.EventID = &id
	}
	return resp
}

func eventToResponse(e *model.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:        e.ID.String(),
		Name:      e.Name,
		Date:      e.Date.Format("2006-01-02"),
		StartTime: e.StartTime,
	}
}
