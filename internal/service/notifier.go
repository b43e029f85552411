package service

import (
	"context"

	"github.com/google/uuid"
)

// Bar change kinds published after a committed mutation.
const (
	ChangeSessionOpened = "session_opened"
	ChangeSessionClosed = "session_closed"
	ChangeTabUpdated    = "tab_updated"
	ChangeTabClosed     = "tab_closed"
)

// BarChange tells bar page views which session (and tab) to refresh.
type BarChange struct {
	Kind      string     `json:"kind"`
	SessionID uuid.UUID  `json:"session_id"`
	TabID     *uuid.UUID `json:"tab_id,omitempty"`
}

// BarNotifier receives a BarChange after the transaction commits.
// Implementations must not block and must tolerate failures on their own.
type BarNotifier interface {
	BarChanged(ctx context.Context, change BarChange)
}

// ReportEnqueuer schedules the closing report of a session.
type ReportEnqueuer interface {
	EnqueueSessionReport(ctx context.Context, sessionID uuid.UUID) error
}

type noopNotifier struct{}

func (noopNotifier) BarChanged(context.Context, BarChange) {}
