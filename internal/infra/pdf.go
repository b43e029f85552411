package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"comedybar/internal/dto"

	"github.com/go-pdf/fpdf"
)

var paymentLabels = map[string]string{
	"cash": "Dinheiro",
	"card": "Cartão",
	"pix":  "Pix",
}

// GenerateSessionReportPDF renders the closing report of a bar session to
// storagePath/sessao_{id}.pdf and returns the file path.
func GenerateSessionReportPDF(sum *dto.SessionSummaryResponse, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("sessao_%s.pdf", sum.Session.ID))

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30
	labelW := contentW * 0.6
	valueW := contentW - labelW

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr("Fechamento do bar"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if sum.Session.EventName != "" {
		pdf.CellFormat(contentW, 6, tr(sum.Session.EventName), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, tr("Aberta em "+reportTime(sum.Session.OpenedAt)), "", 1, "C", false, 0, "")
	if sum.Session.ClosedAt != nil {
		pdf.CellFormat(contentW, 5, tr("Fechada em "+reportTime(*sum.Session.ClosedAt)), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(4)

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(labelW, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 7, tr(value), "", 1, "R", false, 0, "")
	}

	// ── Totals ────────────────────────────────────────────────────────────────
	row("Receita", "R$ "+sum.Session.TotalRevenue.StringFixed(2), false)
	row("Custo", "R$ "+sum.Session.TotalCost.StringFixed(2), false)
	row("Margem", "R$ "+sum.Margin.StringFixed(2), true)
	pdf.Ln(3)

	// ── Payment methods ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, tr("Por forma de pagamento"), "B", 1, "L", false, 0, "")
	for _, m := range []string{"cash", "card", "pix"} {
		row(paymentLabels[m], "R$ "+sum.ByPayment[m].StringFixed(2), false)
	}
	pdf.Ln(3)

	// ── Tabs ──────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, "Comandas", "B", 1, "L", false, 0, "")
	row("Pagas", fmt.Sprintf("%d", sum.Tabs.Paid), false)
	row("Abertas", fmt.Sprintf("%d", sum.Tabs.Open), false)
	row("Livres", fmt.Sprintf("%d", sum.Tabs.Available), false)
	if sum.Tabs.Open > 0 {
		row("Em aberto (não recebido)", "R$ "+sum.Outstanding.StringFixed(2), true)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func reportTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006 15:04")
}
