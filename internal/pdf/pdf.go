// Package pdf renders chat transcripts, reports and invoices as A4 documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/domain/report"
)

const (
	brand       = "Growen"
	marginMM    = 15.0
	lineHeight  = 6.0
	dateLayout  = "02/01/2006"
	stampLayout = "02/01/2006 15:04"
)

// doc wraps fpdf with the Latin-1 translator needed for Portuguese text
type doc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newDoc(title string) *doc {
	f := fpdf.New("P", "mm", "A4", "")
	f.SetMargins(marginMM, marginMM, marginMM)
	f.SetAutoPageBreak(true, marginMM)
	f.SetTitle(title, true)
	f.SetAuthor(brand, true)

	d := &doc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}
	f.SetFooterFunc(func() {
		f.SetY(-12)
		f.SetFont("Helvetica", "I", 8)
		f.SetTextColor(120, 120, 120)
		f.CellFormat(0, 8, d.tr(fmt.Sprintf("%s - página %d", brand, f.PageNo())), "", 0, "C", false, 0, "")
	})
	f.AddPage()
	return d
}

func (d *doc) heading(text string) {
	d.SetFont("Helvetica", "B", 18)
	d.SetTextColor(20, 83, 45)
	d.MultiCell(0, 9, d.tr(text), "", "L", false)
	d.SetTextColor(0, 0, 0)
	d.Ln(2)
}

func (d *doc) subheading(text string) {
	d.Ln(2)
	d.SetFont("Helvetica", "B", 12)
	d.MultiCell(0, 7, d.tr(text), "", "L", false)
}

func (d *doc) paragraph(text string) {
	d.SetFont("Helvetica", "", 10)
	d.MultiCell(0, lineHeight, d.tr(text), "", "L", false)
}

func (d *doc) muted(text string) {
	d.SetFont("Helvetica", "I", 9)
	d.SetTextColor(100, 100, 100)
	d.MultiCell(0, 5, d.tr(text), "", "L", false)
	d.SetTextColor(0, 0, 0)
}

func (d *doc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ChatTranscript renders a session's messages oldest first
func ChatTranscript(s *chat.Session, msgs []*chat.Message) ([]byte, error) {
	title := s.Title
	if title == "" {
		title = "Consultoria IA"
	}
	d := newDoc(title)
	d.heading("Consultoria Growen: " + title)
	d.muted(fmt.Sprintf("Sessão %s - %d mensagens - exportado em %s",
		s.ID, len(msgs), time.Now().UTC().Format(stampLayout)))

	for _, m := range msgs {
		d.subheading("Você (" + m.CreatedAt.UTC().Format(stampLayout) + ")")
		d.paragraph(m.Message)
		d.subheading("Consultor Growen")
		d.paragraph(m.Response)
	}
	return d.bytes()
}

// Report renders a report with its insights and chart figures
func Report(r *report.Report) ([]byte, error) {
	d := newDoc(r.Title)
	d.heading(r.Title)

	meta := "Tipo: " + r.Type
	if r.Period != "" {
		meta += " - Período: " + r.Period
	}
	d.muted(meta + " - Gerado em " + r.CreatedAt.UTC().Format(dateLayout))

	d.subheading("Análise")
	d.paragraph(r.Content)

	if len(r.Insights) > 0 {
		d.subheading("Insights")
		for _, in := range r.Insights {
			d.paragraph("- " + in)
		}
	}

	if len(r.ChartData) > 0 {
		d.subheading("Indicadores")
		for _, k := range sortedKeys(r.ChartData) {
			d.paragraph(fmt.Sprintf("%s: %v", k, r.ChartData[k]))
		}
	}
	return d.bytes()
}

// Invoice renders a single invoice with the 14% IVA breakdown
func Invoice(inv *invoice.Invoice, issuer string) ([]byte, error) {
	d := newDoc("Fatura " + inv.Number)
	d.heading("FATURA " + inv.Number)
	d.muted("Emitida em " + inv.CreatedAt.UTC().Format(dateLayout) +
		" - Vencimento " + inv.DueDate.UTC().Format(dateLayout))

	d.subheading("Emitente")
	d.paragraph(issuer)
	d.subheading("Cliente")
	d.paragraph(inv.ClientName + "\n" + inv.ClientEmail)

	d.Ln(4)
	d.SetFont("Helvetica", "B", 10)
	d.SetFillColor(230, 240, 233)
	widths := []float64{90, 25, 35, 30}
	for i, h := range []string{"Descrição", "Qtd.", "Preço unit.", "Subtotal"} {
		d.CellFormat(widths[i], 8, d.tr(h), "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)

	d.SetFont("Helvetica", "", 10)
	d.CellFormat(widths[0], 8, d.tr(truncate(inv.ServiceDescription, 55)), "1", 0, "L", false, 0, "")
	d.CellFormat(widths[1], 8, fmt.Sprintf("%g", inv.Quantity), "1", 0, "R", false, 0, "")
	d.CellFormat(widths[2], 8, d.tr(Kwanza(inv.UnitPrice)), "1", 0, "R", false, 0, "")
	d.CellFormat(widths[3], 8, d.tr(Kwanza(inv.Subtotal)), "1", 0, "R", false, 0, "")
	d.Ln(-1)

	totals := [][2]string{
		{"Subtotal", Kwanza(inv.Subtotal)},
		{fmt.Sprintf("IVA (%.0f%%)", invoice.TaxRate*100), Kwanza(inv.Tax)},
		{"Total", Kwanza(inv.Total)},
	}
	for i, row := range totals {
		if i == len(totals)-1 {
			d.SetFont("Helvetica", "B", 11)
		}
		d.CellFormat(widths[0]+widths[1]+widths[2], 8, d.tr(row[0]), "", 0, "R", false, 0, "")
		d.CellFormat(widths[3], 8, d.tr(row[1]), "1", 0, "R", false, 0, "")
		d.Ln(-1)
	}

	d.Ln(4)
	d.muted("Estado: " + string(inv.PaymentStatus))
	if inv.Notes != "" {
		d.subheading("Observações")
		d.paragraph(inv.Notes)
	}
	return d.bytes()
}

// Kwanza formats v as "1.234,56 Kz"
func Kwanza(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	out := b.String() + "," + frac + " Kz"
	if neg {
		out = "-" + out
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
