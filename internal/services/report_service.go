package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/domain/report"
	"github.com/growen-ao/growen-api/internal/pdf"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/metrics"
)

const analystSystemPrompt = "Você é um analista de dados especializado em gerar relatórios de negócios com insights acionáveis."

// MaxCSVSize is the largest CSV accepted for analysis
const MaxCSVSize = 5 << 20

// ReportService implements report.Service
type ReportService struct {
	repo       report.Repository
	clients    crm.Repository
	chats      chat.Repository
	invoices   invoice.Repository
	quota      quota.Gate
	consultant chat.Consultant
	logger     *logger.Logger
	now        func() time.Time
}

// NewReportService creates a new report service
func NewReportService(repo report.Repository, clients crm.Repository, chats chat.Repository, invoices invoice.Repository,
	gate quota.Gate, consultant chat.Consultant, log *logger.Logger) report.Service {
	return &ReportService{
		repo:       repo,
		clients:    clients,
		chats:      chats,
		invoices:   invoices,
		quota:      gate,
		consultant: consultant,
		logger:     log,
		now:        time.Now,
	}
}

// Generate asks the AI analyst to comment on arbitrary business data
func (s *ReportService) Generate(ctx context.Context, userID int64, data map[string]interface{}) (*report.Report, error) {
	if len(data) == 0 {
		return nil, errors.BadRequest("Dados do relatório em falta")
	}
	if err := s.quota.Enforce(ctx, userID, plan.FeatureReports); err != nil {
		return nil, err
	}

	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, errors.BadRequest("Dados do relatório inválidos")
	}
	prompt := "Analise os seguintes dados de negócio e gere insights importantes:\n" + string(pretty)

	start := time.Now()
	analysis, err := s.consultant.Consult(ctx, analystSystemPrompt, nil, prompt)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMRequest(s.consultant.Name(), status, time.Since(start))
	if err != nil {
		s.logger.WithFields(map[string]interface{}{"user_id": userID}).ErrorWithErr(err, "AI report failed")
		return nil, errors.Upstream("de IA", err)
	}

	now := s.now().UTC()
	r := &report.Report{
		UserID:    userID,
		Title:     "Relatório Automático - " + now.Format("02/01/2006"),
		Type:      "ai_analysis",
		Content:   analysis,
		Insights:  extractInsights(analysis, 5),
		ChartData: data,
		Source:    report.SourceAI,
		CreatedAt: now,
	}
	return s.store(ctx, r)
}

// GenerateCustom builds a report from the user's own CRM, chat and invoice
// figures
func (s *ReportService) GenerateCustom(ctx context.Context, userID int64, req report.CustomRequest) (*report.Report, error) {
	if err := s.quota.Enforce(ctx, userID, plan.FeatureReports); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	monthStart := quota.MonthStart(now)

	clients, err := s.clients.List(ctx, userID, crm.Filter{})
	if err != nil {
		return nil, err
	}
	chatsThisMonth, err := s.chats.CountSince(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}
	revenue, err := s.invoices.SumPaidSince(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}

	byStatus := map[string]int{}
	var pipeline float64
	for _, c := range clients {
		byStatus[string(c.Status)]++
		pipeline += c.Value
	}
	active := byStatus[string(crm.StatusActive)]
	conversion := conversionRate(active, len(clients))

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Relatório Personalizado - " + now.Format("02/01/2006")
	}
	typ := req.Type
	if typ == "" {
		typ = "custom"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Período: %s\n", periodLabel(req))
	sections := req.Sections
	if len(sections) == 0 {
		sections = []string{"clientes", "financeiro", "consultoria"}
	}
	for _, sec := range sections {
		switch strings.ToLower(sec) {
		case "clientes", "clients", "crm":
			fmt.Fprintf(&b, "\nClientes\nTotal de clientes: %d\nClientes ativos: %d\nTaxa de conversão: %.1f%%\nValor em carteira: %s\n",
				len(clients), active, conversion, pdf.Kwanza(pipeline))
		case "financeiro", "finance", "revenue":
			fmt.Fprintf(&b, "\nFinanceiro\nReceita faturada e paga este mês: %s\n", pdf.Kwanza(revenue))
		case "consultoria", "chat", "ai":
			fmt.Fprintf(&b, "\nConsultoria IA\nConsultas este mês: %d\n", chatsThisMonth)
		default:
			fmt.Fprintf(&b, "\n%s\nSem dados disponíveis para esta secção.\n", sec)
		}
	}

	r := &report.Report{
		UserID:    userID,
		Title:     title,
		Type:      typ,
		Period:    req.Period,
		Content:   b.String(),
		Insights:  []string{},
		Source:    report.SourceCustom,
		CreatedAt: now,
	}
	if req.IncludeInsights {
		r.Insights = customInsights(len(clients), active, conversion, revenue, chatsThisMonth)
	}
	if req.IncludeCharts {
		r.ChartData = map[string]interface{}{
			"clients_by_status": byStatus,
			"total_clients":     len(clients),
			"conversion_rate":   conversion,
			"monthly_revenue":   revenue,
			"pipeline_value":    pipeline,
			"consultations":     chatsThisMonth,
		}
	}
	return s.store(ctx, r)
}

// AnalyzeCSV summarises an uploaded CSV and stores the result as a report
func (s *ReportService) AnalyzeCSV(ctx context.Context, userID int64, filename string, data []byte) (*report.Report, *report.CSVSummary, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, nil, errors.BadRequest("Apenas ficheiros CSV são aceites")
	}
	if len(data) > MaxCSVSize {
		return nil, nil, errors.BadRequest("Ficheiro demasiado grande (máximo 5 MB)")
	}
	if err := s.quota.Enforce(ctx, userID, plan.FeatureReports); err != nil {
		return nil, nil, err
	}

	summary, err := summarizeCSV(data)
	if err != nil {
		return nil, nil, errors.BadRequest("CSV inválido: " + err.Error())
	}

	insights := []string{fmt.Sprintf("O ficheiro contém %d registos e %d colunas.", summary.TotalRows, len(summary.Columns))}
	chart := map[string]interface{}{}
	for _, col := range sortedStatColumns(summary.Numeric) {
		st := summary.Numeric[col]
		insights = append(insights, fmt.Sprintf("%s: total %.2f, média %.2f (mín. %.2f, máx. %.2f).",
			col, st.Sum, st.Avg, st.Min, st.Max))
		chart[col] = st
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Análise do ficheiro %s\n\nColunas: %s\n", filename, strings.Join(summary.Columns, ", "))
	for _, in := range insights {
		b.WriteString("\n" + in)
	}

	now := s.now().UTC()
	r := &report.Report{
		UserID:    userID,
		Title:     "Análise CSV - " + filename,
		Type:      "csv_analysis",
		Content:   b.String(),
		Insights:  insights,
		ChartData: chart,
		Source:    report.SourceCSV,
		CreatedAt: now,
	}
	if _, err := s.store(ctx, r); err != nil {
		return nil, nil, err
	}
	return r, summary, nil
}

// Get returns one of the user's reports
func (s *ReportService) Get(ctx context.Context, userID int64, id string) (*report.Report, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns the user's reports, newest first
func (s *ReportService) List(ctx context.Context, userID int64) ([]*report.Report, error) {
	return s.repo.List(ctx, userID)
}

// RenderPDF renders one of the user's reports
func (s *ReportService) RenderPDF(ctx context.Context, userID int64, id string) ([]byte, string, error) {
	r, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	doc, err := pdf.Report(r)
	if err != nil {
		return nil, "", errors.Upstream("de PDF", err)
	}
	return doc, fmt.Sprintf("relatorio-%s.pdf", shortID(r.ID)), nil
}

func (s *ReportService) store(ctx context.Context, r *report.Report) (*report.Report, error) {
	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.ErrorWithErr(err, "Failed to store report")
		return nil, err
	}
	s.logger.WithFields(map[string]interface{}{
		"report_id": r.ID,
		"user_id":   r.UserID,
		"source":    r.Source,
	}).Info("Report created")
	return r, nil
}

// summarizeCSV computes per-column statistics. A column is numeric when
// every non-empty cell parses as a number.
func summarizeCSV(data []byte) (*report.CSVSummary, error) {
	rd := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("ficheiro vazio")
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	stats := make([]report.ColumnStats, len(header))
	numeric := make([]bool, len(header))
	for i := range numeric {
		numeric[i] = true
		stats[i].Min = math.Inf(1)
		stats[i].Max = math.Inf(-1)
	}

	rows := 0
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows++
		for i := range header {
			if i >= len(rec) || !numeric[i] {
				continue
			}
			cell := strings.TrimSpace(rec[i])
			if cell == "" {
				continue
			}
			v, err := parseNumber(cell)
			if err != nil {
				numeric[i] = false
				continue
			}
			st := &stats[i]
			st.Sum += v
			st.Count++
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
		}
	}

	summary := &report.CSVSummary{TotalRows: rows, Columns: header, Numeric: map[string]report.ColumnStats{}}
	for i, col := range header {
		if !numeric[i] || stats[i].Count == 0 {
			continue
		}
		st := stats[i]
		st.Avg = round2(st.Sum / float64(st.Count))
		st.Sum = round2(st.Sum)
		summary.Numeric[col] = st
	}
	return summary, nil
}

// parseNumber accepts 1234.5 and the Portuguese 1.234,5
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "Kz"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedStatColumns(m map[string]report.ColumnStats) []string {
	cols := make([]string, 0, len(m))
	for k := range m {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// extractInsights takes list items from the analysis, falling back to its
// first sentences
func extractInsights(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		l := strings.TrimSpace(line)
		l = strings.TrimLeft(l, "-*•#0123456789.) ")
		if l == "" || l == strings.TrimSpace(line) {
			continue
		}
		out = append(out, l)
		if len(out) == max {
			return out
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, sent := range strings.Split(text, ". ") {
		if sent = strings.TrimSpace(sent); sent != "" {
			out = append(out, strings.TrimSuffix(sent, ".")+".")
		}
		if len(out) == 3 {
			break
		}
	}
	return out
}

func conversionRate(active, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(active) / float64(total) * 100)
}

func periodLabel(req report.CustomRequest) string {
	if req.DateRange.Start != "" || req.DateRange.End != "" {
		return req.DateRange.Start + " a " + req.DateRange.End
	}
	if req.Period != "" {
		return req.Period
	}
	return "mês corrente"
}

func customInsights(total, active int, conversion, revenue float64, chats int) []string {
	var out []string
	switch {
	case total == 0:
		out = append(out, "Ainda não tem clientes registados. Comece por adicionar os seus leads no CRM.")
	case conversion < 20:
		out = append(out, fmt.Sprintf("A taxa de conversão é de %.1f%%. Reforce o seguimento dos leads em negociação.", conversion))
	default:
		out = append(out, fmt.Sprintf("Boa taxa de conversão (%.1f%%) com %d clientes ativos.", conversion, active))
	}
	if revenue == 0 {
		out = append(out, "Não há faturas pagas este mês. Verifique faturas pendentes.")
	} else {
		out = append(out, "Receita paga este mês: "+pdf.Kwanza(revenue)+".")
	}
	if chats == 0 {
		out = append(out, "Use o consultor de IA para planear as próximas ações.")
	}
	return out
}
