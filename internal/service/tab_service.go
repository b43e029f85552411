package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"comedybar/internal/dto"
	"comedybar/internal/model"
	"comedybar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TabService is the tab (comanda) engine. Every mutation runs in one
// transaction holding the tab row lock and ends with a full recompute of
// the tab's subtotal and total from its line items.
type TabService interface {
	OpenTab(ctx context.Context, tabID uuid.UUID, customerName *string) (*dto.TabResponse, error)
	AddItem(ctx context.Context, tabID, stockItemID uuid.UUID, quantity int) (*dto.TabResponse, error)
	RemoveItem(ctx context.Context, lineID uuid.UUID) (*dto.TabResponse, error)
	// UpdateItemQuantity removes the line when quantity <= 0.
	UpdateItemQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*dto.TabResponse, error)
	ApplyDiscount(ctx context.Context, tabID uuid.UUID, amount decimal.Decimal) (*dto.TabResponse, error)
	UpdateTabCustomerName(ctx context.Context, tabID uuid.UUID, name *string) (*dto.TabResponse, error)
	GetTabDetail(ctx context.Context, tabID uuid.UUID) (*dto.TabDetailResponse, error)
	CloseTab(ctx context.Context, tabID uuid.UUID, paymentMethod string) (*dto.TabResponse, error)
}

type tabService struct {
	tabs      repository.TabRepository
	sessions  repository.SessionRepository
	stock     repository.StockItemRepository
	inventory InventoryService
	rollup    RollupService
	notifier  BarNotifier
}

// TabServiceDeps groups the collaborators of NewTabService. Notifier is optional.
type TabServiceDeps struct {
	Tabs      repository.TabRepository
	Sessions  repository.SessionRepository
	Stock     repository.StockItemRepository
	Inventory InventoryService
	Rollup    RollupService
	Notifier  BarNotifier
}

func NewTabService(deps TabServiceDeps) TabService {
	s := &tabService{
		tabs:      deps.Tabs,
		sessions:  deps.Sessions,
		stock:     deps.Stock,
		inventory: deps.Inventory,
		rollup:    deps.Rollup,
		notifier:  deps.Notifier,
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	return s
}

func (s *tabService) OpenTab(ctx context.Context, tabID uuid.UUID, customerName *string) (*dto.TabResponse, error) {
	return s.mutateTab(ctx, tabID, func(tx *gorm.DB, tab *model.Tab) error {
		now := time.Now()
		name := cleanName(customerName)
		if err := s.tabs.UpdateFieldsTx(tx, tab.ID, map[string]interface{}{
			"status":        model.TabOpen,
			"customer_name": name,
			"opened_at":     now,
		}); err != nil {
			return notFound(err, "comanda", tab.ID)
		}
		tab.Status = model.TabOpen
		tab.CustomerName = name
		tab.OpenedAt = &now
		return nil
	})
}

// ── AddItem ───────────────────────────────────────────────────────────────────
// The first add of a stock item snapshots its sale price and cost onto the
// line; later adds only grow the quantity and keep the first price.

func (s *tabService) AddItem(ctx context.Context, tabID, stockItemID uuid.UUID, quantity int) (*dto.TabResponse, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Message: "deve ser maior que zero"}
	}
	return s.mutateTab(ctx, tabID, func(tx *gorm.DB, tab *model.Tab) error {
		item, err := s.stock.FindByIDTx(tx, stockItemID)
		if err != nil {
			return notFound(err, "item de estoque", stockItemID)
		}
		if !item.Active {
			return &ValidationError{Field: "stock_item_id", Message: "item de estoque inativo"}
		}

		line, err := s.tabs.FindItemByStockTx(tx, tab.ID, stockItemID)
		switch {
		case err == nil:
			if err := s.tabs.IncrementItemTx(tx, line.ID, quantity); err != nil {
				return notFound(err, "item da comanda", line.ID)
			}
		case errors.Is(err, repository.ErrNotFound):
			line = &model.TabItem{
				TabID:       tab.ID,
				StockItemID: stockItemID,
				Quantity:    quantity,
				UnitPrice:   item.SalePrice,
				UnitCost:    item.CostPrice,
				Total:       item.SalePrice.Mul(decimal.NewFromInt(int64(quantity))),
			}
			if err := s.tabs.CreateItemTx(tx, line); err != nil {
				return err
			}
		default:
			return err
		}

		if tab.Status == model.TabAvailable {
			now := time.Now()
			if err := s.tabs.UpdateFieldsTx(tx, tab.ID, map[string]interface{}{
				"status":    model.TabOpen,
				"opened_at": now,
			}); err != nil {
				return notFound(err, "comanda", tab.ID)
			}
			tab.Status = model.TabOpen
			tab.OpenedAt = &now
		}
		return nil
	})
}

func (s *tabService) RemoveItem(ctx context.Context, lineID uuid.UUID) (*dto.TabResponse, error) {
	return s.mutateLine(ctx, lineID, func(tx *gorm.DB, _ *model.Tab, line *model.TabItem) error {
		return notFound(s.tabs.DeleteItemTx(tx, line.ID), "item da comanda", line.ID)
	})
}

func (s *tabService) UpdateItemQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*dto.TabResponse, error) {
	return s.mutateLine(ctx, lineID, func(tx *gorm.DB, _ *model.Tab, line *model.TabItem) error {
		var err error
		if quantity <= 0 {
			err = s.tabs.DeleteItemTx(tx, line.ID)
		} else {
			total := line.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
			err = s.tabs.SetItemQuantityTx(tx, line.ID, quantity, total)
		}
		return notFound(err, "item da comanda", line.ID)
	})
}

// ApplyDiscount sets an absolute discount, rounded to cents; one larger than
// the subtotal floors the total at zero.
func (s *tabService) ApplyDiscount(ctx context.Context, tabID uuid.UUID, amount decimal.Decimal) (*dto.TabResponse, error) {
	if amount.IsNegative() {
		return nil, &ValidationError{Field: "amount", Message: "não pode ser negativo"}
	}
	amount = amount.Round(2)
	return s.mutateTab(ctx, tabID, func(tx *gorm.DB, tab *model.Tab) error {
		if err := s.tabs.UpdateFieldsTx(tx, tab.ID, map[string]interface{}{"discount": amount}); err != nil {
			return notFound(err, "comanda", tab.ID)
		}
		tab.Discount = amount
		return nil
	})
}

func (s *tabService) UpdateTabCustomerName(ctx context.Context, tabID uuid.UUID, name *string) (*dto.TabResponse, error) {
	return s.mutateTab(ctx, tabID, func(tx *gorm.DB, tab *model.Tab) error {
		clean := cleanName(name)
		if err := s.tabs.UpdateFieldsTx(tx, tab.ID, map[string]interface{}{"customer_name": clean}); err != nil {
			return notFound(err, "comanda", tab.ID)
		}
		tab.CustomerName = clean
		return nil
	})
}

func (s *tabService) GetTabDetail(ctx context.Context, tabID uuid.UUID) (*dto.TabDetailResponse, error) {
	tab, err := s.tabs.FindDetail(ctx, tabID)
	if err != nil {
		return nil, notFound(err, "comanda", tabID)
	}
	detail := tabToDetail(tab)
	return &detail, nil
}

// ── CloseTab ──────────────────────────────────────────────────────────────────
// Reconciliation, the paid transition and the session rollup share one
// transaction. A paid tab is rejected before anything is written, so stock
// is decremented exactly once per tab. Tabs left in a closed session can
// still be settled.

func (s *tabService) CloseTab(ctx context.Context, tabID uuid.UUID, paymentMethod string) (*dto.TabResponse, error) {
	if !slices.Contains(model.PaymentMethods, paymentMethod) {
		return nil, &ValidationError{Field: "payment_method", Message: "forma de pagamento inválida"}
	}

	var (
		tab   *model.Tab
		units int
	)
	err := runTx(ctx, s.tabs.DB(), func(tx *gorm.DB) error {
		var err error
		tab, err = s.tabs.FindByIDForUpdateTx(tx, tabID)
		if err != nil {
			return notFound(err, "comanda", tabID)
		}
		if tab.Status == model.TabPaid {
			return ErrTabAlreadyPaid
		}
		// Lock order is tab, session, stock rows. The session lock serializes
		// closes so each rollup sees every tab paid before it.
		session, err := s.sessions.FindByIDForUpdateTx(tx, tab.SessionID)
		if err != nil {
			return notFound(err, "sessão", tab.SessionID)
		}

		items, err := s.tabs.ListItemsTx(tx, tab.ID)
		if err != nil {
			return err
		}
		if err := s.inventory.ReconcileTabTx(tx, session.EventID, tab.Number, items); err != nil {
			return err
		}
		for _, it := range items {
			units += it.Quantity
		}

		now := time.Now()
		fields := map[string]interface{}{
			"status":         model.TabPaid,
			"payment_method": paymentMethod,
			"closed_at":      now,
		}
		if tab.OpenedAt == nil {
			fields["opened_at"] = now
			tab.OpenedAt = &now
		}
		if err := s.tabs.UpdateFieldsTx(tx, tab.ID, fields); err != nil {
			return notFound(err, "comanda", tab.ID)
		}
		tab.Status = model.TabPaid
		tab.PaymentMethod = &paymentMethod
		tab.ClosedAt = &now

		return s.rollup.RecalculateSessionTotalsTx(tx, session.ID)
	})
	if err != nil {
		return nil, err
	}

	TabsClosedTotal.WithLabelValues(paymentMethod).Inc()
	StockUnitsSoldTotal.Add(float64(units))
	log.Info().
		Str("tab_id", tab.ID.String()).
		Int("number", tab.Number).
		Str("payment_method", paymentMethod).
		Str("total", tab.Total.StringFixed(2)).
		Msg("tab closed")
	s.notifier.BarChanged(ctx, BarChange{Kind: ChangeTabClosed, SessionID: tab.SessionID, TabID: &tab.ID})

	resp := tabToResponse(tab)
	return &resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// mutateTab locks the tab, rejects paid tabs and tabs of closed sessions,
// applies fn and recomputes the totals, all in one transaction.
func (s *tabService) mutateTab(ctx context.Context, tabID uuid.UUID, fn func(tx *gorm.DB, tab *model.Tab) error) (*dto.TabResponse, error) {
	var tab *model.Tab
	err := runTx(ctx, s.tabs.DB(), func(tx *gorm.DB) error {
		var err error
		tab, err = s.lockMutable(tx, tabID)
		if err != nil {
			return err
		}
		if err := fn(tx, tab); err != nil {
			return err
		}
		return s.recomputeTx(tx, tab)
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, tab), nil
}

// mutateLine is mutateTab for operations addressed by line item id.
func (s *tabService) mutateLine(ctx context.Context, lineID uuid.UUID, fn func(tx *gorm.DB, tab *model.Tab, line *model.TabItem) error) (*dto.TabResponse, error) {
	var tab *model.Tab
	err := runTx(ctx, s.tabs.DB(), func(tx *gorm.DB) error {
		line, err := s.tabs.FindItemByIDTx(tx, lineID)
		if err != nil {
			return notFound(err, "item da comanda", lineID)
		}
		tab, err = s.lockMutable(tx, line.TabID)
		if err != nil {
			return err
		}
		if err := fn(tx, tab, line); err != nil {
			return err
		}
		return s.recomputeTx(tx, tab)
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, tab), nil
}

func (s *tabService) lockMutable(tx *gorm.DB, tabID uuid.UUID) (*model.Tab, error) {
	tab, err := s.tabs.FindByIDForUpdateTx(tx, tabID)
	if err != nil {
		return nil, notFound(err, "comanda", tabID)
	}
	if tab.Status == model.TabPaid {
		return nil, ErrTabAlreadyPaid
	}
	session, err := s.sessions.FindByIDTx(tx, tab.SessionID)
	if err != nil {
		return nil, notFound(err, "sessão", tab.SessionID)
	}
	if session.Status == model.SessionClosed {
		return nil, ErrSessionClosed
	}
	return tab, nil
}

// recomputeTx rebuilds subtotal from the persisted lines and derives
// total = max(0, subtotal - discount).
func (s *tabService) recomputeTx(tx *gorm.DB, tab *model.Tab) error {
	items, err := s.tabs.ListItemsTx(tx, tab.ID)
	if err != nil {
		return err
	}
	subtotal, total := tabTotals(items, tab.Discount)
	if err := s.tabs.UpdateTotalsTx(tx, tab.ID, subtotal, total); err != nil {
		return notFound(err, "comanda", tab.ID)
	}
	tab.Subtotal = subtotal
	tab.Total = total
	return nil
}

func (s *tabService) afterMutation(ctx context.Context, tab *model.Tab) *dto.TabResponse {
	s.notifier.BarChanged(ctx, BarChange{Kind: ChangeTabUpdated, SessionID: tab.SessionID, TabID: &tab.ID})
	resp := tabToResponse(tab)
	return &resp
}

func tabTotals(items []model.TabItem, discount decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
	}
	total = subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return subtotal, total
}

// cleanName trims the customer name; blank names are stored as NULL.
func cleanName(name *string) *string {
	if name == nil {
		return nil
	}
	n := strings.TrimSpace(*name)
	if n == "" {
		return nil
	}
	return &n
}
