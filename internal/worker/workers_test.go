package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"comedybar/internal/dto"
	"comedybar/internal/infra"
	"comedybar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []EmailJobPayload
	err  error
}

func (m *fakeMailer) SendReport(to, subject, body, pdfPath string) error {
	m.sent = append(m.sent, EmailJobPayload{ToEmail: to, Subject: subject, Body: body, PDFPath: pdfPath})
	return m.err
}

func TestEmailWorker(t *testing.T) {
	m := &fakeMailer{}
	w := &EmailWorker{mailer: m}
	ctx := context.Background()

	payload, _ := json.Marshal(EmailJobPayload{ToEmail: "gerencia@example.com", Subject: "Fechamento", PDFPath: "/tmp/x.pdf"})
	require.NoError(t, w.Process(ctx, payload))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "/tmp/x.pdf", m.sent[0].PDFPath)

	empty, _ := json.Marshal(EmailJobPayload{Subject: "sem destinatário"})
	require.NoError(t, w.Process(ctx, empty))
	assert.Len(t, m.sent, 1)

	var perm *permanentError
	assert.ErrorAs(t, w.Process(ctx, json.RawMessage(`[`)), &perm)

	m.err = infra.ErrCircuitOpen
	err := w.Process(ctx, payload)
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.False(t, errors.As(err, &perm), "an open breaker is retried")
}

type fakeSummaries struct {
	summary *dto.SessionSummaryResponse
	err     error
}

func (f *fakeSummaries) GetSummary(_ context.Context, id uuid.UUID) (*dto.SessionSummaryResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.summary
	s.Session.ID = id.String()
	return &s, nil
}

type fakeEmails struct{ queued []EmailJobPayload }

func (f *fakeEmails) EnqueueEmail(_ context.Context, p EmailJobPayload) error {
	f.queued = append(f.queued, p)
	return nil
}

func reportPayload(id string) json.RawMessage {
	b, _ := json.Marshal(SessionReportPayload{SessionID: id})
	return b
}

func TestSessionReportWorker(t *testing.T) {
	sums := &fakeSummaries{summary: &dto.SessionSummaryResponse{
		Session: dto.SessionResponse{
			EventName:    "Open Mic",
			OpenedAt:     "2026-03-14T19:30:00Z",
			TotalRevenue: decimal.RequireFromString("300.00"),
			TotalCost:    decimal.RequireFromString("120.00"),
		},
		Tabs:        dto.TabCounts{Paid: 6, Open: 1, Available: 43},
		Margin:      decimal.RequireFromString("180.00"),
		ByPayment:   map[string]decimal.Decimal{},
		Outstanding: decimal.RequireFromString("22.00"),
	}}
	emails := &fakeEmails{}
	dir := t.TempDir()
	w := NewSessionReportWorker(sums, emails, dir, "gerencia@example.com")
	id := uuid.New()

	require.NoError(t, w.Process(context.Background(), reportPayload(id.String())))

	require.Len(t, emails.queued, 1)
	job := emails.queued[0]
	assert.Equal(t, "gerencia@example.com", job.ToEmail)
	assert.Equal(t, "Fechamento do bar - Open Mic", job.Subject)
	assert.Contains(t, job.Body, "Margem: R$ 180.00")
	assert.Equal(t, fmt.Sprintf("%s/sessao_%s.pdf", dir, id), job.PDFPath)
	assert.Equal(t, id.String(), job.SessionID)
	_, err := os.Stat(job.PDFPath)
	assert.NoError(t, err)
}

func TestSessionReportWorker_NoRecipient(t *testing.T) {
	sums := &fakeSummaries{summary: &dto.SessionSummaryResponse{ByPayment: map[string]decimal.Decimal{}}}
	emails := &fakeEmails{}
	w := NewSessionReportWorker(sums, emails, t.TempDir(), "")

	require.NoError(t, w.Process(context.Background(), reportPayload(uuid.NewString())))
	assert.Empty(t, emails.queued)
}

func TestSessionReportWorker_PermanentFailures(t *testing.T) {
	var perm *permanentError

	w := NewSessionReportWorker(&fakeSummaries{err: repository.ErrNotFound}, &fakeEmails{}, t.TempDir(), "")
	assert.ErrorAs(t, w.Process(context.Background(), reportPayload(uuid.NewString())), &perm)
	assert.ErrorAs(t, w.Process(context.Background(), reportPayload("sessao-7")), &perm)

	w = NewSessionReportWorker(&fakeSummaries{err: errors.New("db down")}, &fakeEmails{}, t.TempDir(), "")
	err := w.Process(context.Background(), reportPayload(uuid.NewString()))
	require.Error(t, err)
	assert.False(t, errors.As(err, &perm))
}
