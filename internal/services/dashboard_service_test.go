package services

import (
	"context"
	"testing"

	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/domain/plan"
)

func TestDashboardService_KPIs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.consultant.Reply = "Reduza os custos fixos."
	u := env.seedUser(t, "kpis@example.ao", plan.Starter)
	other := env.seedUser(t, "vizinho@example.ao", plan.Starter)

	active := env.seedClients(t, u.ID, 1, crm.StatusActive)[0]
	env.seedClients(t, u.ID, 2, crm.StatusLead)
	env.seedClients(t, other.ID, 4, crm.StatusActive)

	invoices := env.invoiceService()
	paid, err := invoices.Generate(ctx, u.ID, invoice.Draft{
		ClientID: active.ID, ServiceDescription: "Consultoria", Quantity: 2, UnitPrice: 1000,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := invoices.UpdateStatus(ctx, u.ID, paid.ID, invoice.StatusPaid); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if _, err := invoices.Generate(ctx, u.ID, invoice.Draft{
		ClientID: active.ID, ServiceDescription: "Formação", Quantity: 1, UnitPrice: 5000,
	}); err != nil {
		t.Fatalf("Generate() unpaid error = %v", err)
	}

	if _, err := env.chat().Send(ctx, u.ID, "Como crescer?", ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	kpis, err := NewDashboardService(env.clients, env.reports, env.chats, env.invoices, env.gate).KPIs(ctx, u.ID)
	if err != nil {
		t.Fatalf("KPIs() error = %v", err)
	}

	if kpis.TotalClients != 3 || kpis.ActiveClients != 1 {
		t.Errorf("clients = %d total, %d active, want 3 and 1", kpis.TotalClients, kpis.ActiveClients)
	}
	if kpis.ConversionRate != 33.33 {
		t.Errorf("ConversionRate = %v, want 33.33", kpis.ConversionRate)
	}
	if kpis.MonthlyRevenue != paid.Total {
		t.Errorf("MonthlyRevenue = %v, want %v (paid invoices only)", kpis.MonthlyRevenue, paid.Total)
	}
	if kpis.TotalConsultations != 1 || kpis.TotalReports != 0 {
		t.Errorf("consultations = %d, reports = %d", kpis.TotalConsultations, kpis.TotalReports)
	}
	if got := kpis.Usage[string(plan.FeatureClients)]; got.Used != 3 {
		t.Errorf("clients usage = %+v", got)
	}
}

func TestDashboardService_Empty(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "novo@example.ao", plan.Free)

	kpis, err := NewDashboardService(env.clients, env.reports, env.chats, env.invoices, env.gate).KPIs(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("KPIs() error = %v", err)
	}
	if kpis.ConversionRate != 0 || kpis.MonthlyRevenue != 0 {
		t.Errorf("empty dashboard = %+v", kpis)
	}
	if len(kpis.Usage) != len(plan.Features) {
		t.Errorf("usage features = %d, want %d", len(kpis.Usage), len(plan.Features))
	}
}
