package service

import (
	"context"

	"comedybar/internal/dto"
	"comedybar/internal/model"
	"comedybar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RollupService rebuilds session level revenue and cost from paid tabs.
type RollupService interface {
	// RecalculateSessionTotals runs the rollup in its own transaction.
	RecalculateSessionTotals(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	// RecalculateSessionTotalsTx runs the rollup on the caller's transaction.
	RecalculateSessionTotalsTx(tx *gorm.DB, sessionID uuid.UUID) error
}

type rollupService struct {
	sessions repository.SessionRepository
	tabs     repository.TabRepository
}

func NewRollupService(sessions repository.SessionRepository, tabs repository.TabRepository) RollupService {
	return &rollupService{sessions: sessions, tabs: tabs}
}

func (s *rollupService) RecalculateSessionTotals(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	if err := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		return s.RecalculateSessionTotalsTx(tx, sessionID)
	}); err != nil {
		return nil, err
	}
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "sessão", sessionID)
	}
	resp := sessionToResponse(sess)
	return &resp, nil
}

// RecalculateSessionTotalsTx always sums from scratch so the session can
// never drift from its tabs, whatever edits happened before payment. The
// session row is locked before the paid tabs are read, so a concurrent close
// commits first and is included.
func (s *rollupService) RecalculateSessionTotalsTx(tx *gorm.DB, sessionID uuid.UUID) error {
	if _, err := s.sessions.FindByIDForUpdateTx(tx, sessionID); err != nil {
		return notFound(err, "sessão", sessionID)
	}
	paid, err := s.tabs.ListPaidWithItemsTx(tx, sessionID)
	if err != nil {
		return err
	}
	revenue, cost := sumPaidTabs(paid)
	if err := s.sessions.UpdateTotalsTx(tx, sessionID, revenue, cost); err != nil {
		return notFound(err, "sessão", sessionID)
	}
	return nil
}

// sumPaidTabs returns Σ tab.Total and Σ unit_cost × quantity over the
// paid tabs given.
func sumPaidTabs(tabs []model.Tab) (revenue, cost decimal.Decimal) {
	revenue, cost = decimal.Zero, decimal.Zero
	for _, t := range tabs {
		if t.Status != model.TabPaid {
			continue
		}
		revenue = revenue.Add(t.Total)
		for _, it := range t.Items {
			cost = cost.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	return revenue, cost
}
