package service

import (
	"context"
	"errors"
	"time"

	"comedybar/internal/dto"
	"comedybar/internal/model"
	"comedybar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultTabsPerSession is the size of the tab pool provisioned on open.
const DefaultTabsPerSession = 50

// SessionService is the session manager: it opens and closes bar sessions
// and answers the session level queries of the bar page.
type SessionService interface {
	OpenSession(ctx context.Context, eventID uuid.UUID) (*dto.SessionResponse, error)
	CloseSession(ctx context.Context, sessionID uuid.UUID) (*dto.CloseSessionResponse, error)
	// GetActiveSession returns nil, nil when no session is open.
	GetActiveSession(ctx context.Context) (*dto.SessionResponse, error)
	// GetUnclosedPreviousSession returns the latest open session not tied to
	// excludeEventID, or nil, nil.
	GetUnclosedPreviousSession(ctx context.Context, excludeEventID *uuid.UUID) (*dto.SessionResponse, error)
	ListTabs(ctx context.Context, sessionID uuid.UUID) ([]dto.TabResponse, error)
	GetSummary(ctx context.Context, sessionID uuid.UUID) (*dto.SessionSummaryResponse, error)
	History(ctx context.Context, page, limit int) (*dto.SessionListResponse, error)
}

type sessionService struct {
	sessions       repository.SessionRepository
	tabs           repository.TabRepository
	events         repository.EventRepository
	reports        ReportEnqueuer
	notifier       BarNotifier
	tabsPerSession int
}

// SessionServiceDeps groups the collaborators of NewSessionService.
// Reports and Notifier are optional.
type SessionServiceDeps struct {
	Sessions       repository.SessionRepository
	Tabs           repository.TabRepository
	Events         repository.EventRepository
	Reports        ReportEnqueuer
	Notifier       BarNotifier
	TabsPerSession int
}

func NewSessionService(deps SessionServiceDeps) SessionService {
	s := &sessionService{
		sessions:       deps.Sessions,
		tabs:           deps.Tabs,
		events:         deps.Events,
		reports:        deps.Reports,
		notifier:       deps.Notifier,
		tabsPerSession: deps.TabsPerSession,
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.tabsPerSession <= 0 {
		s.tabsPerSession = DefaultTabsPerSession
	}
	return s
}

// ── OpenSession ───────────────────────────────────────────────────────────────
// Session row and its whole tab pool are written in one transaction.
// A partial unique index on open sessions backs the single-open-session rule;
// the pre-check only exists to report which session is in the way.

func (s *sessionService) OpenSession(ctx context.Context, eventID uuid.UUID) (*dto.SessionResponse, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "evento", eventID)
	}

	if open, err := s.sessions.FindLatestOpen(ctx, nil); err == nil {
		return nil, &SessionAlreadyOpenError{SessionID: open.ID, EventID: open.EventID}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	session := model.BarSession{
		EventID:      eventID,
		Status:       model.SessionOpen,
		TotalRevenue: decimal.Zero,
		TotalCost:    decimal.Zero,
		OpenedAt:     time.Now(),
	}
	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.sessions.CreateTx(tx, &session); err != nil {
			return err
		}
		tabs := make([]model.Tab, s.tabsPerSession)
		for i := range tabs {
			tabs[i] = model.Tab{
				SessionID: session.ID,
				Number:    i + 1,
				Status:    model.TabAvailable,
				Subtotal:  decimal.Zero,
				Discount:  decimal.Zero,
				Total:     decimal.Zero,
			}
		}
		return s.tabs.CreateBatchTx(tx, tabs)
	})
	if txErr != nil {
		if errors.Is(txErr, repository.ErrConflict) {
			// lost the race against a concurrent open
			if open, err := s.sessions.FindLatestOpen(ctx, nil); err == nil {
				return nil, &SessionAlreadyOpenError{SessionID: open.ID, EventID: open.EventID}
			}
		}
		return nil, txErr
	}

	SessionsOpenedTotal.Inc()
	log.Info().
		Str("session_id", session.ID.String()).
		Str("event_id", eventID.String()).
		Int("tabs", s.tabsPerSession).
		Msg("bar session opened")
	s.notifier.BarChanged(ctx, BarChange{Kind: ChangeSessionOpened, SessionID: session.ID})

	session.Event = event
	resp := sessionToResponse(&session)
	return &resp, nil
}

// ── CloseSession ──────────────────────────────────────────────────────────────
// Never blocks on unpaid tabs: operators must be able to force-close a session
// left open by a previous event. OpenTabs carries the warning count.

func (s *sessionService) CloseSession(ctx context.Context, sessionID uuid.UUID) (*dto.CloseSessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "sessão", sessionID)
	}
	if session.Status == model.SessionClosed {
		return nil, ErrSessionClosed
	}

	tabs, err := s.tabs.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	counts := countTabs(tabs)
	unpaid := counts.Available + counts.Open

	now := time.Now()
	if err := s.sessions.Close(ctx, sessionID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// closed concurrently
			return nil, ErrSessionClosed
		}
		return nil, err
	}
	session.Status = model.SessionClosed
	session.ClosedAt = &now

	ev := log.Info()
	if counts.Open > 0 {
		ev = log.Warn()
	}
	ev.Str("session_id", sessionID.String()).
		Int("open_tabs", counts.Open).
		Msg("bar session closed")

	if s.reports != nil {
		if err := s.reports.EnqueueSessionReport(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("could not enqueue session report")
		}
	}
	s.notifier.BarChanged(ctx, BarChange{Kind: ChangeSessionClosed, SessionID: sessionID})

	return &dto.CloseSessionResponse{Session: sessionToResponse(session), OpenTabs: unpaid}, nil
}

func (s *sessionService) GetActiveSession(ctx context.Context) (*dto.SessionResponse, error) {
	return s.latestOpen(ctx, nil)
}

func (s *sessionService) GetUnclosedPreviousSession(ctx context.Context, excludeEventID *uuid.UUID) (*dto.SessionResponse, error) {
	return s.latestOpen(ctx, excludeEventID)
}

func (s *sessionService) latestOpen(ctx context.Context, excludeEventID *uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindLatestOpen(ctx, excludeEventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp := sessionToResponse(session)
	return &resp, nil
}

func (s *sessionService) ListTabs(ctx context.Context, sessionID uuid.UUID) ([]dto.TabResponse, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		return nil, notFound(err, "sessão", sessionID)
	}
	tabs, err := s.tabs.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TabResponse, len(tabs))
	for i := range tabs {
		resp[i] = tabToResponse(&tabs[i])
	}
	return resp, nil
}

// ── GetSummary ────────────────────────────────────────────────────────────────
// Read-only view over the stored aggregates; feeds the closing report and the
// operator warning before a close.

func (s *sessionService) GetSummary(ctx context.Context, sessionID uuid.UUID) (*dto.SessionSummaryResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "sessão", sessionID)
	}
	tabs, err := s.tabs.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	byPayment := make(map[string]decimal.Decimal, len(model.PaymentMethods))
	for _, m := range model.PaymentMethods {
		byPayment[m] = decimal.Zero
	}
	outstanding := decimal.Zero
	for _, t := range tabs {
		switch t.Status {
		case model.TabPaid:
			if t.PaymentMethod != nil {
				byPayment[*t.PaymentMethod] = byPayment[*t.PaymentMethod].Add(t.Total)
			}
		case model.TabOpen:
			outstanding = outstanding.Add(t.Total)
		}
	}

	return &dto.SessionSummaryResponse{
		Session:     sessionToResponse(session),
		Tabs:        countTabs(tabs),
		Margin:      session.TotalRevenue.Sub(session.TotalCost),
		ByPayment:   byPayment,
		Outstanding: outstanding,
	}, nil
}

func (s *sessionService) History(ctx context.Context, page, limit int) (*dto.SessionListResponse, error) {
	page, limit = normalizePage(page, limit)
	sessions, total, err := s.sessions.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		data[i] = sessionToResponse(&sessions[i])
	}
	return &dto.SessionListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func countTabs(tabs []model.Tab) dto.TabCounts {
	var c dto.TabCounts
	for _, t := range tabs {
		switch t.Status {
		case model.TabAvailable:
			c.Available++
		case model.TabOpen:
			c.Open++
		case model.TabPaid:
			c.Paid++
		}
	}
	return c
}
