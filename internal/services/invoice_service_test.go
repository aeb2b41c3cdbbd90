package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

func TestInvoiceService_Generate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "billing@example.ao", plan.Pro)
	lead := env.seedClients(t, u.ID, 1, crm.StatusLead)[0]
	active := env.seedClients(t, u.ID, 1, crm.StatusActive)[0]
	svc := env.invoiceService()

	tests := []struct {
		name     string
		draft    invoice.Draft
		wantCode int
	}{
		{
			name:     "lead cannot be invoiced",
			draft:    invoice.Draft{ClientID: lead.ID, ServiceDescription: "Consultoria", Quantity: 1, UnitPrice: 1000},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "zero quantity",
			draft:    invoice.Draft{ClientID: active.ID, ServiceDescription: "Consultoria", Quantity: 0, UnitPrice: 1000},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown client",
			draft:    invoice.Draft{ClientID: "missing", Quantity: 1, UnitPrice: 1000},
			wantCode: http.StatusNotFound,
		},
		{
			name:  "active client",
			draft: invoice.Draft{ClientID: active.ID, ServiceDescription: "Consultoria", Quantity: 3, UnitPrice: 12500.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := svc.Generate(ctx, u.ID, tt.draft)
			if tt.wantCode != 0 {
				if appErr, ok := errors.As(err); !ok || appErr.StatusCode != tt.wantCode {
					t.Errorf("Generate() error = %v, want %d", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if inv.Subtotal != 37501.5 || inv.Tax != 5250.21 || inv.Total != 42751.71 {
				t.Errorf("amounts = %v / %v / %v", inv.Subtotal, inv.Tax, inv.Total)
			}
			want := fmt.Sprintf("FAT-%d-0001", time.Now().UTC().Year())
			if inv.Number != want {
				t.Errorf("number = %q, want %q", inv.Number, want)
			}
			if inv.PaymentStatus != invoice.StatusPending {
				t.Errorf("status = %v, want pending", inv.PaymentStatus)
			}
			days := inv.DueDate.Sub(inv.CreatedAt).Hours() / 24
			if days < 29.9 || days > 30.1 {
				t.Errorf("due in %.1f days, want 30", days)
			}
		})
	}
}

func TestInvoiceService_AutoGenerateOncePerMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "auto@example.ao", plan.Pro)
	svc := env.invoiceService()

	for i, value := range []float64{50000, 0, 75000} {
		c := &crm.Client{UserID: u.ID, Name: fmt.Sprintf("Cliente %d", i), Status: crm.StatusActive, Value: value}
		if err := env.clients.Create(ctx, c); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	env.seedClients(t, u.ID, 1, crm.StatusNegotiating)

	created, err := svc.AutoGenerate(ctx, u.ID)
	if err != nil {
		t.Fatalf("AutoGenerate() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("AutoGenerate() created %d, want 2", len(created))
	}
	if created[0].Number == created[1].Number {
		t.Errorf("duplicate invoice number %q", created[0].Number)
	}

	again, err := svc.AutoGenerate(ctx, u.ID)
	if err != nil || len(again) != 0 {
		t.Errorf("second AutoGenerate() = %d, %v; want 0, nil", len(again), err)
	}
}

func TestInvoiceService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "paid@example.ao", plan.Pro)
	active := env.seedClients(t, u.ID, 1, crm.StatusActive)[0]
	svc := env.invoiceService()

	inv, _ := svc.Generate(ctx, u.ID, invoice.Draft{ClientID: active.ID, ServiceDescription: "Auditoria", Quantity: 1, UnitPrice: 10000})

	got, err := svc.UpdateStatus(ctx, u.ID, inv.ID, invoice.StatusPaid)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if got.PaymentStatus != invoice.StatusPaid || got.PaidAt == nil {
		t.Errorf("invoice = %+v", got)
	}

	if _, err := svc.UpdateStatus(ctx, u.ID, inv.ID, invoice.PaymentStatus("cancelled")); err == nil {
		t.Error("UpdateStatus() accepted an unknown status")
	}

	doc, name, err := svc.RenderPDF(ctx, u.ID, inv.ID)
	if err != nil {
		t.Fatalf("RenderPDF() error = %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF-")) || name != "fatura-"+inv.Number+".pdf" {
		t.Errorf("RenderPDF() = %d bytes, %q", len(doc), name)
	}
}
