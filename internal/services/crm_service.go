package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

var emailTemplates = []crm.EmailTemplate{
	{
		ID:      "follow_up",
		Name:    "Seguimento",
		Subject: "Seguimento da nossa conversa",
		Content: "Olá [NOME],\n\nEspero que esteja bem. Gostaria de dar seguimento à nossa última conversa " +
			"sobre as necessidades da [EMPRESA] e saber se tem alguma questão.\n\nCumprimentos",
	},
	{
		ID:      "proposal",
		Name:    "Proposta comercial",
		Subject: "Proposta para a [EMPRESA]",
		Content: "Olá [NOME],\n\nConforme combinado, segue a nossa proposta de serviços para a [EMPRESA]. " +
			"Estamos disponíveis para esclarecer qualquer detalhe.\n\nCumprimentos",
	},
	{
		ID:      "meeting",
		Name:    "Agendamento de reunião",
		Subject: "Agendamento de reunião",
		Content: "Olá [NOME],\n\nGostaria de agendar uma breve reunião para apresentar soluções que podem " +
			"ajudar a [EMPRESA] a crescer. Que dia e hora lhe são mais convenientes?\n\nCumprimentos",
	},
	{
		ID:      "thank_you",
		Name:    "Agradecimento",
		Subject: "Obrigado pela confiança",
		Content: "Olá [NOME],\n\nMuito obrigado por escolher trabalhar connosco. É um prazer apoiar a [EMPRESA].\n\nCumprimentos",
	},
}

// CRMService implements crm.Service
type CRMService struct {
	repo   crm.Repository
	quota  quota.Gate
	emails email.Service
	logger *logger.Logger
}

// NewCRMService creates a new CRM service
func NewCRMService(repo crm.Repository, gate quota.Gate, emails email.Service, log *logger.Logger) crm.Service {
	return &CRMService{
		repo:   repo,
		quota:  gate,
		emails: emails,
		logger: log,
	}
}

// Create adds a client after checking the clients quota
func (s *CRMService) Create(ctx context.Context, userID int64, c *crm.Client) (*crm.Client, error) {
	if err := s.quota.Enforce(ctx, userID, plan.FeatureClients); err != nil {
		return nil, err
	}

	if c.Status == "" {
		c.Status = crm.StatusLead
	}
	if !c.Status.IsValid() {
		return nil, errors.BadRequest("Estado de cliente inválido")
	}
	c.ID = ""
	c.UserID = userID

	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create client")
		return nil, err
	}
	c.Communications = []*crm.Communication{}

	s.logger.WithFields(map[string]interface{}{
		"client_id": c.ID,
		"user_id":   userID,
		"status":    c.Status,
	}).Info("Client created")

	return c, nil
}

// Get returns a client with its history
func (s *CRMService) Get(ctx context.Context, userID int64, id string) (*crm.Client, error) {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListCommunications(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Communications = history
	return c, nil
}

// List returns the user's clients, newest first
func (s *CRMService) List(ctx context.Context, userID int64, filter crm.Filter) ([]*crm.Client, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, errors.BadRequest("Estado de cliente inválido")
	}
	clients, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		if c.Communications == nil {
			c.Communications = []*crm.Communication{}
		}
	}
	return clients, nil
}

// Update applies a partial update; a status change is noted in the history
func (s *CRMService) Update(ctx context.Context, userID int64, id string, upd crm.Update) (*crm.Client, error) {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	previous := c.Status

	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Email != nil {
		c.Email = *upd.Email
	}
	if upd.Phone != nil {
		c.Phone = *upd.Phone
	}
	if upd.Company != nil {
		c.Company = *upd.Company
	}
	if upd.Industry != nil {
		c.Industry = *upd.Industry
	}
	if upd.Status != nil {
		if !upd.Status.IsValid() {
			return nil, errors.BadRequest("Estado de cliente inválido")
		}
		c.Status = *upd.Status
	}
	if upd.Value != nil {
		c.Value = *upd.Value
	}
	if upd.Notes != nil {
		c.Notes = *upd.Notes
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	if c.Status != previous {
		note := &crm.Communication{
			ClientID: c.ID,
			Kind:     crm.KindNote,
			Content:  fmt.Sprintf("Estado alterado de %s para %s", previous, c.Status),
		}
		if err := s.repo.AddCommunication(ctx, note); err != nil {
			s.logger.ErrorWithErr(err, "Failed to record status change")
		}
	}

	return s.Get(ctx, userID, id)
}

// Delete removes a client and frees one unit of the clients quota
func (s *CRMService) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"client_id": id,
		"user_id":   userID,
	}).Info("Client deleted")
	return nil
}

// AddCommunication appends an entry to a client's history
func (s *CRMService) AddCommunication(ctx context.Context, userID int64, clientID string, kind crm.CommunicationKind, subject, content string) (*crm.Communication, error) {
	if !kind.IsValid() {
		return nil, errors.BadRequest("Tipo de comunicação inválido")
	}
	if _, err := s.repo.GetByID(ctx, userID, clientID); err != nil {
		return nil, err
	}

	entry := &crm.Communication{
		ClientID: clientID,
		Kind:     kind,
		Subject:  subject,
		Content:  content,
	}
	if err := s.repo.AddCommunication(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// SendEmail checks the email_sends quota, delivers once and logs the
// outcome in the client's history
func (s *CRMService) SendEmail(ctx context.Context, userID int64, clientID, subject, content string) (*email.Job, error) {
	if err := s.quota.Enforce(ctx, userID, plan.FeatureEmailSends); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	if c.Email == "" {
		return nil, errors.BadRequest("Cliente sem email")
	}

	subject = personalize(subject, c)
	content = personalize(content, c)

	job, err := s.emails.SendNow(ctx, &email.Job{
		UserID:   userID,
		ClientID: c.ID,
		Kind:     email.KindClient,
		ToEmail:  c.Email,
		ToName:   c.Name,
		Subject:  subject,
		Body:     content,
	})
	if err != nil {
		return nil, err
	}

	entry := &crm.Communication{
		ClientID: c.ID,
		Kind:     crm.KindEmail,
		Subject:  subject,
		Content:  content,
		Status:   string(job.Status),
	}
	if err := s.repo.AddCommunication(ctx, entry); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record email in history")
	}

	return job, nil
}

// CallLinks builds tel: and wa.me links from the client's phone
func (s *CRMService) CallLinks(ctx context.Context, userID int64, clientID string) (*crm.CallLinks, error) {
	c, err := s.repo.GetByID(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Phone) == "" {
		return nil, errors.BadRequest("Cliente sem telefone")
	}

	digits := phoneDigits(c.Phone)
	return &crm.CallLinks{
		CallLink:     "tel:+" + digits,
		WhatsAppLink: "https://wa.me/" + digits,
		Phone:        c.Phone,
	}, nil
}

// Templates returns the built-in email templates
func (s *CRMService) Templates() []crm.EmailTemplate {
	return append([]crm.EmailTemplate(nil), emailTemplates...)
}

func personalize(text string, c *crm.Client) string {
	company := c.Company
	if company == "" {
		company = "sua empresa"
	}
	return strings.NewReplacer("[NOME]", c.Name, "[EMPRESA]", company).Replace(text)
}

// phoneDigits strips formatting and adds the Angolan country code to local
// nine-digit mobile numbers
func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := strings.TrimPrefix(b.String(), "00")
	if len(d) == 9 && d[0] == '9' {
		d = "244" + d
	}
	return d
}
