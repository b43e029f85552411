package infra

import (
	"net/smtp"
	"os"
	"path/filepath"
	"testing"

	"comedybar/internal/config"
	"comedybar/internal/dto"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() *dto.SessionSummaryResponse {
	closed := "2026-03-15T01:10:00Z"
	return &dto.SessionSummaryResponse{
		Session: dto.SessionResponse{
			ID:           "6c1f0e4a-8a53-4f7e-9d2b-3c1a2b4d5e6f",
			EventName:    "Stand-up de Sexta",
			Status:       "closed",
			TotalRevenue: decimal.RequireFromString("1250.00"),
			TotalCost:    decimal.RequireFromString("480.50"),
			OpenedAt:     "2026-03-14T19:30:00Z",
			ClosedAt:     &closed,
		},
		Tabs:   dto.TabCounts{Available: 38, Open: 2, Paid: 10},
		Margin: decimal.RequireFromString("769.50"),
		ByPayment: map[string]decimal.Decimal{
			"cash": decimal.RequireFromString("300.00"),
			"card": decimal.RequireFromString("650.00"),
			"pix":  decimal.RequireFromString("300.00"),
		},
		Outstanding: decimal.RequireFromString("64.00"),
	}
}

func TestGenerateSessionReportPDF(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := GenerateSessionReportPDF(sampleSummary(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sessao_6c1f0e4a-8a53-4f7e-9d2b-3c1a2b4d5e6f.pdf"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(b) > 0)
	assert.Equal(t, "%PDF", string(b[:4]))
}

func TestReportTime(t *testing.T) {
	assert.Equal(t, "14/03/2026 19:30", reportTime("2026-03-14T19:30:00Z"))
	assert.Equal(t, "ontem", reportTime("ontem"))
}

func TestMailer_SendReport(t *testing.T) {
	cfg := &config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPUser: "bar", SMTPPassword: "x", SMTPFrom: "bar@comedybar.local"}
	m := NewMailer(cfg, NewCircuitBreaker(DefaultCBConfig("smtp")))
	require.True(t, m.Configured())

	var (
		sent *email.Email
		addr string
	)
	m.send = func(e *email.Email, a string, _ smtp.Auth) error {
		sent, addr = e, a
		return nil
	}

	pdfPath, err := GenerateSessionReportPDF(sampleSummary(), t.TempDir())
	require.NoError(t, err)
	require.NoError(t, m.SendReport("gerencia@example.com", "Fechamento", "segue", pdfPath))

	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Equal(t, []string{"gerencia@example.com"}, sent.To)
	assert.Equal(t, "bar@comedybar.local", sent.From)
	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, filepath.Base(pdfPath), sent.Attachments[0].Filename)
}

func TestMailer_MissingAttachment(t *testing.T) {
	m := NewMailer(&config.Config{}, NewCircuitBreaker(DefaultCBConfig("smtp")))
	assert.False(t, m.Configured())
	m.send = func(*email.Email, string, smtp.Auth) error {
		t.Fatal("send must not run")
		return nil
	}
	err := m.SendReport("a@b.c", "s", "b", filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
