package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"comedybar/internal/dto"
	"comedybar/internal/infra"
	"comedybar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type summaryReader interface {
	GetSummary(ctx context.Context, sessionID uuid.UUID) (*dto.SessionSummaryResponse, error)
}

type emailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

// SessionReportWorker renders the closing PDF of a bar session and, when a
// recipient is configured, queues it for email.
type SessionReportWorker struct {
	sessions    summaryReader
	emails      emailEnqueuer
	storagePath string
	reportTo    string
}

func NewSessionReportWorker(sessions summaryReader, emails emailEnqueuer, storagePath, reportTo string) *SessionReportWorker {
	return &SessionReportWorker{
		sessions:    sessions,
		emails:      emails,
		storagePath: storagePath,
		reportTo:    reportTo,
	}
}

func (w *SessionReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload SessionReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Permanent(fmt.Errorf("report_worker: invalid payload: %w", err))
	}
	id, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return Permanent(fmt.Errorf("report_worker: invalid session id %q", payload.SessionID))
	}

	summary, err := w.sessions.GetSummary(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Permanent(err)
		}
		return err
	}

	path, err := infra.GenerateSessionReportPDF(summary, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("session_id", payload.SessionID).Str("path", path).Msg("report_worker: session report generated")

	if w.reportTo == "" {
		return nil
	}
	title := "Fechamento do bar"
	if summary.Session.EventName != "" {
		title += " - " + summary.Session.EventName
	}
	return w.emails.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.reportTo,
		Subject: title,
		Body: fmt.Sprintf("Receita: R$ %s\nCusto: R$ %s\nMargem: R$ %s\nComandas pagas: %d\nComandas em aberto: %d\n",
			summary.Session.TotalRevenue.StringFixed(2),
			summary.Session.TotalCost.StringFixed(2),
			summary.Margin.StringFixed(2),
			summary.Tabs.Paid,
			summary.Tabs.Open),
		PDFPath:   path,
		SessionID: summary.Session.ID,
	})
}
