package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"comedybar/internal/model"
	"comedybar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory store ───────────────────────────────────────────────────────────
// All fakes share one store and return nil from DB(), so runTx calls the
// closure directly. Reads hand back copies the same way GORM would.

type memStore struct {
	events    map[uuid.UUID]*model.Event
	sessions  map[uuid.UUID]*model.BarSession
	tabs      map[uuid.UUID]*model.Tab
	lines     map[uuid.UUID]*model.TabItem
	stock     map[uuid.UUID]*model.StockItem
	movements []model.StockTransaction
	users     map[uuid.UUID]*model.Usuario

	// locks records every FOR UPDATE taken, as "session:<id>" or "stock:<id>".
	locks []string
	clock time.Time
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[uuid.UUID]*model.Event),
		sessions: make(map[uuid.UUID]*model.BarSession),
		tabs:     make(map[uuid.UUID]*model.Tab),
		lines:    make(map[uuid.UUID]*model.TabItem),
		stock:    make(map[uuid.UUID]*model.StockItem),
		users:    make(map[uuid.UUID]*model.Usuario),
		clock:    time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC),
	}
}

// tick hands out strictly increasing timestamps for created_at ordering.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) tabItems(tabID uuid.UUID) []model.TabItem {
	var items []model.TabItem
	for _, it := range m.lines {
		if it.TabID == tabID {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items
}

// ── Sessions ──────────────────────────────────────────────────────────────────

type fakeSessionRepo struct{ st *memStore }

func (r *fakeSessionRepo) CreateTx(_ *gorm.DB, s *model.BarSession) error {
	if s.Status == model.SessionOpen {
		for _, other := range r.st.sessions {
			if other.Status == model.SessionOpen {
				return repository.ErrConflict
			}
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	c := *s
	r.st.sessions[s.ID] = &c
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BarSession, error) {
	return r.FindByIDTx(nil, id)
}

func (r *fakeSessionRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.BarSession, error) {
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s
	c.Event = r.st.events[s.EventID]
	return &c, nil
}

func (r *fakeSessionRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.BarSession, error) {
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.st.locks = append(r.st.locks, "session:"+id.String())
	c := *s
	return &c, nil
}

func (r *fakeSessionRepo) FindLatestOpen(_ context.Context, excludeEventID *uuid.UUID) (*model.BarSession, error) {
	var latest *model.BarSession
	for _, s := range r.st.sessions {
		if s.Status != model.SessionOpen {
			continue
		}
		if excludeEventID != nil && s.EventID == *excludeEventID {
			continue
		}
		if latest == nil || s.OpenedAt.After(latest.OpenedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return r.FindByIDTx(nil, latest.ID)
}

func (r *fakeSessionRepo) Close(_ context.Context, id uuid.UUID, closedAt time.Time) error {
	s, ok := r.st.sessions[id]
	if !ok || s.Status != model.SessionOpen {
		return repository.ErrNotFound
	}
	s.Status = model.SessionClosed
	s.ClosedAt = &closedAt
	return nil
}

func (r *fakeSessionRepo) UpdateTotalsTx(_ *gorm.DB, id uuid.UUID, revenue, cost decimal.Decimal) error {
	s, ok := r.st.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.TotalRevenue = revenue
	s.TotalCost = cost
	return nil
}

func (r *fakeSessionRepo) List(_ context.Context, page, limit int) ([]model.BarSession, int64, error) {
	all := make([]model.BarSession, 0, len(r.st.sessions))
	for _, s := range r.st.sessions {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := min(start+limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *fakeSessionRepo) DB() *gorm.DB { return nil }

// ── Tabs ──────────────────────────────────────────────────────────────────────

type fakeTabRepo struct{ st *memStore }

func (r *fakeTabRepo) CreateBatchTx(_ *gorm.DB, tabs []model.Tab) error {
	for i := range tabs {
		if tabs[i].ID == uuid.Nil {
			tabs[i].ID = uuid.New()
		}
		c := tabs[i]
		r.st.tabs[c.ID] = &c
	}
	return nil
}

func (r *fakeTabRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tab, error) {
	return r.FindByIDForUpdateTx(nil, id)
}

func (r *fakeTabRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Tab, error) {
	t, ok := r.st.tabs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *t
	c.Items = nil
	return &c, nil
}

func (r *fakeTabRepo) FindDetail(_ context.Context, id uuid.UUID) (*model.Tab, error) {
	t, err := r.FindByIDForUpdateTx(nil, id)
	if err != nil {
		return nil, err
	}
	t.Items = r.st.tabItems(id)
	for i := range t.Items {
		if s, ok := r.st.stock[t.Items[i].StockItemID]; ok {
			c := *s
			t.Items[i].StockItem = &c
		}
	}
	return t, nil
}

func (r *fakeTabRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Tab, error) {
	var tabs []model.Tab
	for _, t := range r.st.tabs {
		if t.SessionID == sessionID {
			tabs = append(tabs, *t)
		}
	}
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].Number < tabs[j].Number })
	return tabs, nil
}

func (r *fakeTabRepo) ListPaidWithItemsTx(_ *gorm.DB, sessionID uuid.UUID) ([]model.Tab, error) {
	all, _ := r.ListBySession(context.Background(), sessionID)
	var paid []model.Tab
	for _, t := range all {
		if t.Status == model.TabPaid {
			t.Items = r.st.tabItems(t.ID)
			paid = append(paid, t)
		}
	}
	return paid, nil
}

func (r *fakeTabRepo) UpdateFieldsTx(_ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	t, ok := r.st.tabs[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			t.Status = v.(string)
		case "customer_name":
			t.CustomerName = v.(*string)
		case "opened_at":
			ts := v.(time.Time)
			t.OpenedAt = &ts
		case "closed_at":
			ts := v.(time.Time)
			t.ClosedAt = &ts
		case "payment_method":
			pm := v.(string)
			t.PaymentMethod = &pm
		case "discount":
			t.Discount = v.(decimal.Decimal)
		case "subtotal":
			t.Subtotal = v.(decimal.Decimal)
		case "total":
			t.Total = v.(decimal.Decimal)
		default:
			panic("fakeTabRepo: unexpected field " + k)
		}
	}
	return nil
}

func (r *fakeTabRepo) UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, subtotal, total decimal.Decimal) error {
	return r.UpdateFieldsTx(tx, id, map[string]interface{}{"subtotal": subtotal, "total": total})
}

func (r *fakeTabRepo) FindItemByIDTx(_ *gorm.DB, id uuid.UUID) (*model.TabItem, error) {
	it, ok := r.st.lines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *it
	return &c, nil
}

func (r *fakeTabRepo) FindItemByStockTx(_ *gorm.DB, tabID, stockItemID uuid.UUID) (*model.TabItem, error) {
	for _, it := range r.st.lines {
		if it.TabID == tabID && it.StockItemID == stockItemID {
			c := *it
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTabRepo) CreateItemTx(_ *gorm.DB, it *model.TabItem) error {
	for _, other := range r.st.lines {
		if other.TabID == it.TabID && other.StockItemID == it.StockItemID {
			return repository.ErrConflict
		}
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	it.CreatedAt = r.st.tick()
	c := *it
	r.st.lines[it.ID] = &c
	return nil
}

func (r *fakeTabRepo) IncrementItemTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	it, ok := r.st.lines[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.Quantity += delta
	it.Total = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
	return nil
}

func (r *fakeTabRepo) SetItemQuantityTx(_ *gorm.DB, id uuid.UUID, quantity int, total decimal.Decimal) error {
	it, ok := r.st.lines[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.Quantity = quantity
	it.Total = total
	return nil
}

func (r *fakeTabRepo) DeleteItemTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.st.lines[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.lines, id)
	return nil
}

func (r *fakeTabRepo) ListItemsTx(_ *gorm.DB, tabID uuid.UUID) ([]model.TabItem, error) {
	return r.st.tabItems(tabID), nil
}

func (r *fakeTabRepo) DB() *gorm.DB { return nil }

// ── Stock ─────────────────────────────────────────────────────────────────────

type fakeStockRepo struct{ st *memStore }

func (r *fakeStockRepo) Create(_ context.Context, s *model.StockItem) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	c := *s
	r.st.stock[s.ID] = &c
	return nil
}

func (r *fakeStockRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockItem, error) {
	return r.FindByIDTx(nil, id)
}

func (r *fakeStockRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	s, ok := r.st.stock[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeStockRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	s, ok := r.st.stock[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.st.locks = append(r.st.locks, "stock:"+id.String())
	c := *s
	return &c, nil
}

func (r *fakeStockRepo) List(_ context.Context, filter repository.StockItemFilter) ([]model.StockItem, int64, error) {
	var items []model.StockItem
	for _, s := range r.st.stock {
		if !s.Active {
			continue
		}
		if filter.LowStock && !s.IsLowStock() {
			continue
		}
		if filter.Category != "" && s.Category != filter.Category {
			continue
		}
		items = append(items, *s)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, int64(len(items)), nil
}

func (r *fakeStockRepo) AdjustQuantityTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	s, ok := r.st.stock[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.CurrentQuantity += delta
	return nil
}

func (r *fakeStockRepo) DB() *gorm.DB { return nil }

type fakeStockTxRepo struct{ st *memStore }

func (r *fakeStockTxRepo) CreateTx(_ *gorm.DB, t *model.StockTransaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = r.st.tick()
	r.st.movements = append(r.st.movements, *t)
	return nil
}

func (r *fakeStockTxRepo) List(_ context.Context, filter repository.StockTransactionFilter) ([]model.StockTransaction, int64, error) {
	var out []model.StockTransaction
	for _, m := range r.st.movements {
		if filter.StockItemID != nil && m.StockItemID != *filter.StockItemID {
			continue
		}
		if filter.EventID != nil && (m.EventID == nil || *m.EventID != *filter.EventID) {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// ── Events ────────────────────────────────────────────────────────────────────

type fakeEventRepo struct{ st *memStore }

func (r *fakeEventRepo) Create(_ context.Context, e *model.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	c := *e
	r.st.events[e.ID] = &c
	return nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	e, ok := r.st.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (r *fakeEventRepo) List(_ context.Context, from *time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range r.st.events {
		if from != nil && e.Date.Before(*from) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ── Collaborators ─────────────────────────────────────────────────────────────

type recordingNotifier struct{ changes []BarChange }

func (n *recordingNotifier) BarChanged(_ context.Context, c BarChange) {
	n.changes = append(n.changes, c)
}

func (n *recordingNotifier) kinds() []string {
	out := make([]string, len(n.changes))
	for i, c := range n.changes {
		out[i] = c.Kind
	}
	return out
}

type fakeReports struct {
	enqueued []uuid.UUID
	err      error
}

func (f *fakeReports) EnqueueSessionReport(_ context.Context, id uuid.UUID) error {
	f.enqueued = append(f.enqueued, id)
	return f.err
}

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	st        *memStore
	sessions  SessionService
	tabs      TabService
	inventory InventoryService
	rollup    RollupService
	notes     *recordingNotifier
	reports   *fakeReports
	event     *model.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	sessRepo := &fakeSessionRepo{st: st}
	tabRepo := &fakeTabRepo{st: st}
	stockRepo := &fakeStockRepo{st: st}
	eventRepo := &fakeEventRepo{st: st}

	f := &fixture{st: st, notes: &recordingNotifier{}, reports: &fakeReports{}}
	f.inventory = NewInventoryService(stockRepo, &fakeStockTxRepo{st: st})
	f.rollup = NewRollupService(sessRepo, tabRepo)
	f.sessions = NewSessionService(SessionServiceDeps{
		Sessions: sessRepo,
		Tabs:     tabRepo,
		Events:   eventRepo,
		Reports:  f.reports,
		Notifier: f.notes,
	})
	f.tabs = NewTabService(TabServiceDeps{
		Tabs:      tabRepo,
		Sessions:  sessRepo,
		Stock:     stockRepo,
		Inventory: f.inventory,
		Rollup:    f.rollup,
		Notifier:  f.notes,
	})

	f.event = f.addEvent(t, "Stand-up de Sexta", "2026-03-14")
	return f
}

func (f *fixture) addEvent(t *testing.T, name, date string) *model.Event {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	e := &model.Event{Name: name, Date: d, StartTime: "21:00"}
	require.NoError(t, (&fakeEventRepo{st: f.st}).Create(context.Background(), e))
	return e
}

func (f *fixture) addStock(t *testing.T, name, sale, cost string, qty int) *model.StockItem {
	t.Helper()
	s := &model.StockItem{
		Name:            name,
		Category:        "bebidas",
		Unit:            "unidade",
		CurrentQuantity: qty,
		MinimumQuantity: 5,
		SalePrice:       decimal.RequireFromString(sale),
		CostPrice:       decimal.RequireFromString(cost),
		Active:          true,
	}
	require.NoError(t, (&fakeStockRepo{st: f.st}).Create(context.Background(), s))
	return s
}

// openSession opens a session for the fixture event and returns its id.
func (f *fixture) openSession(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := f.sessions.OpenSession(context.Background(), f.event.ID)
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func (f *fixture) tabByNumber(t *testing.T, sessionID uuid.UUID, number int) uuid.UUID {
	t.Helper()
	for _, tab := range f.st.tabs {
		if tab.SessionID == sessionID && tab.Number == number {
			return tab.ID
		}
	}
	t.Fatalf("tab #%d not found in session %s", number, sessionID)
	return uuid.Nil
}

func (f *fixture) lineFor(t *testing.T, tabID, stockItemID uuid.UUID) uuid.UUID {
	t.Helper()
	line, err := (&fakeTabRepo{st: f.st}).FindItemByStockTx(nil, tabID, stockItemID)
	require.NoError(t, err)
	return line.ID
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
