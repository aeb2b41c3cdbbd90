package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pdf"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

const defaultDueDays = 30

// InvoiceService implements invoice.Service
type InvoiceService struct {
	repo    invoice.Repository
	clients crm.Repository
	users   user.Repository
	logger  *logger.Logger
	now     func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(repo invoice.Repository, clients crm.Repository, users user.Repository, log *logger.Logger) invoice.Service {
	return &InvoiceService{
		repo:    repo,
		clients: clients,
		users:   users,
		logger:  log,
		now:     time.Now,
	}
}

// Generate bills an active client
func (s *InvoiceService) Generate(ctx context.Context, userID int64, d invoice.Draft) (*invoice.Invoice, error) {
	c, err := s.clients.GetByID(ctx, userID, d.ClientID)
	if err != nil {
		return nil, err
	}
	if c.Status != crm.StatusActive {
		return nil, errors.BadRequest("Só é possível faturar clientes com estado cliente_ativo")
	}
	if d.Quantity <= 0 {
		return nil, errors.BadRequest("Quantidade deve ser maior que zero")
	}
	if d.UnitPrice < 0 {
		return nil, errors.BadRequest("Preço unitário inválido")
	}
	return s.create(ctx, userID, c, d)
}

func (s *InvoiceService) create(ctx context.Context, userID int64, c *crm.Client, d invoice.Draft) (*invoice.Invoice, error) {
	seq, err := s.repo.NextSequence(ctx, userID)
	if err != nil {
		return nil, err
	}

	dueDays := d.DueDays
	if dueDays <= 0 {
		dueDays = defaultDueDays
	}
	now := s.now().UTC()

	inv := &invoice.Invoice{
		UserID:             userID,
		ClientID:           c.ID,
		ClientName:         c.Name,
		ClientEmail:        c.Email,
		Number:             fmt.Sprintf("FAT-%d-%04d", now.Year(), seq),
		ServiceDescription: strings.TrimSpace(d.ServiceDescription),
		Quantity:           d.Quantity,
		UnitPrice:          d.UnitPrice,
		Notes:              d.Notes,
		PaymentStatus:      invoice.StatusPending,
		DueDate:            now.AddDate(0, 0, dueDays),
		CreatedAt:          now,
	}
	inv.Compute()

	if err := s.repo.Create(ctx, inv); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create invoice")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"invoice_id": inv.ID,
		"user_id":    userID,
		"client_id":  c.ID,
		"total":      inv.Total,
	}).Info("Invoice generated")

	return inv, nil
}

// AutoGenerate bills every active client with a value that has not been
// invoiced this month
func (s *InvoiceService) AutoGenerate(ctx context.Context, userID int64) ([]*invoice.Invoice, error) {
	active, err := s.clients.List(ctx, userID, crm.Filter{Status: crm.StatusActive})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	monthStart := quota.MonthStart(now)
	created := []*invoice.Invoice{}

	for _, c := range active {
		if c.Value <= 0 {
			continue
		}
		exists, err := s.repo.ExistsForClientSince(ctx, c.ID, monthStart)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		inv, err := s.create(ctx, userID, c, invoice.Draft{
			ClientID:           c.ID,
			ServiceDescription: "Serviços prestados - " + now.Format("01/2006"),
			Quantity:           1,
			UnitPrice:          c.Value,
		})
		if err != nil {
			return created, err
		}
		created = append(created, inv)
	}
	return created, nil
}

// List returns the user's invoices
func (s *InvoiceService) List(ctx context.Context, userID int64) ([]*invoice.Invoice, error) {
	return s.repo.List(ctx, userID)
}

// UpdateStatus sets the payment status; paid invoices record paid_at
func (s *InvoiceService) UpdateStatus(ctx context.Context, userID int64, id string, status invoice.PaymentStatus) (*invoice.Invoice, error) {
	if !status.IsValid() {
		return nil, errors.BadRequest("Estado de pagamento inválido")
	}
	var paidAt *time.Time
	if status == invoice.StatusPaid {
		t := s.now().UTC()
		paidAt = &t
	}
	if err := s.repo.UpdateStatus(ctx, userID, id, status, paidAt); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID, id)
}

// RenderPDF renders one of the user's invoices
func (s *InvoiceService) RenderPDF(ctx context.Context, userID int64, id string) ([]byte, string, error) {
	inv, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	issuer := u.Name
	if u.Company != "" {
		issuer = u.Company + "\n" + u.Name
	}
	issuer += "\n" + u.Email

	doc, err := pdf.Invoice(inv, issuer)
	if err != nil {
		return nil, "", errors.Upstream("de PDF", err)
	}
	return doc, fmt.Sprintf("fatura-%s.pdf", inv.Number), nil
}
