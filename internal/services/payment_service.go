package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/metrics"
	"github.com/growen-ao/growen-api/internal/storage"
)

var proofTypes = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"application/pdf": ".pdf",
}

// PaymentService implements payment.Service for manual bank transfers
type PaymentService struct {
	repo             payment.Repository
	users            user.Repository
	catalog          *plan.Catalog
	store            storage.Store
	emails           email.Service
	bank             config.BankConfig
	subscriptionDays int
	logger           *logger.Logger
	now              func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(repo payment.Repository, users user.Repository, catalog *plan.Catalog, store storage.Store,
	emails email.Service, bank config.BankConfig, subscriptionDays int, log *logger.Logger) payment.Service {
	return &PaymentService{
		repo:             repo,
		users:            users,
		catalog:          catalog,
		store:            store,
		emails:           emails,
		bank:             bank,
		subscriptionDays: subscriptionDays,
		logger:           log,
		now:              time.Now,
	}
}

// BankDetails returns the account users transfer to
func (s *PaymentService) BankDetails() payment.BankDetails {
	return payment.BankDetails{
		BankName:      s.bank.BankName,
		AccountHolder: s.bank.AccountHolder,
		AccountNumber: s.bank.AccountNumber,
		IBAN:          s.bank.IBAN,
		SwiftCode:     s.bank.SwiftCode,
		Currency:      s.bank.Currency,
	}
}

func (s *PaymentService) paidPlan(id string) (plan.Plan, error) {
	p, err := s.catalog.Get(id)
	if err != nil {
		return plan.Plan{}, errors.BadRequest("Plano inválido")
	}
	if !p.Paid() {
		return plan.Plan{}, errors.BadRequest("O plano gratuito não requer pagamento")
	}
	return p, nil
}

// RequestUpgrade returns transfer instructions. The user's plan is not
// touched until an administrator approves a proof.
func (s *PaymentService) RequestUpgrade(ctx context.Context, userID int64, planID string) (map[string]interface{}, error) {
	p, err := s.paidPlan(planID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"plan":    p.ID,
	}).Info("Plan upgrade requested")

	return map[string]interface{}{
		"message": fmt.Sprintf("Para ativar o plano %s, faça uma transferência de %d %s e envie o comprovativo.",
			p.Name, p.Price, p.Currency),
		"plan_id":      p.ID,
		"plan_name":    p.Name,
		"amount":       p.Price,
		"currency":     p.Currency,
		"bank_details": s.BankDetails(),
		"next_step":    "POST /api/payments/upload-proof",
	}, nil
}

// Submit stores the receipt and records a pending proof
func (s *PaymentService) Submit(ctx context.Context, userID int64, up payment.Upload) (*payment.Proof, error) {
	p, err := s.paidPlan(up.PlanID)
	if err != nil {
		return nil, err
	}
	if up.Body == nil || up.Size <= 0 {
		return nil, errors.BadRequest("Ficheiro em falta")
	}
	if up.Size > payment.MaxProofSize {
		return nil, errors.BadRequest("Ficheiro demasiado grande (máximo 10 MB)")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.BadRequest("Não foi possível ler o ficheiro")
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := proofTypes[contentType]
	if !ok {
		return nil, errors.BadRequest("Formato não suportado. Envie PNG, JPEG ou PDF")
	}

	key := fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), ext)
	body := io.MultiReader(bytes.NewReader(head), up.Body)
	if err := s.store.Put(ctx, key, contentType, body, up.Size); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"backend": s.store.Name(),
		}).ErrorWithErr(err, "Failed to store payment proof")
		return nil, errors.Upstream("de armazenamento", err)
	}

	name := filepath.Base(strings.ReplaceAll(up.FileName, "\\", "/"))
	if name == "." || name == "/" {
		name = "comprovativo" + ext
	}

	proof := &payment.Proof{
		UserID:          userID,
		PlanID:          p.ID,
		Amount:          p.Price,
		Currency:        p.Currency,
		ReferenceNumber: up.ReferenceNumber,
		Notes:           up.Notes,
		FileKey:         key,
		FileName:        name,
		ContentType:     contentType,
		FileSize:        up.Size,
		Status:          payment.StatusPending,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, proof); err != nil {
		return nil, err
	}

	metrics.RecordProofSubmitted(p.ID)
	s.logger.WithFields(map[string]interface{}{
		"payment_id": proof.ID,
		"user_id":    userID,
		"plan":       p.ID,
	}).Info("Payment proof submitted")

	return proof, nil
}

// ListMine returns the caller's proofs
func (s *PaymentService) ListMine(ctx context.Context, userID int64) ([]*payment.Proof, error) {
	return s.repo.List(ctx, payment.Filter{UserID: userID})
}

// List returns proofs for administrators
func (s *PaymentService) List(ctx context.Context, filter payment.Filter) ([]*payment.Proof, error) {
	return s.repo.List(ctx, filter)
}

// Review applies an administrator decision exactly once. Approval moves the
// user to the proof's plan for subscriptionDays; either decision notifies
// the user by email.
func (s *PaymentService) Review(ctx context.Context, reviewerID int64, proofID string, decision payment.Decision, notes string) (*payment.Outcome, error) {
	if !decision.IsValid() {
		return nil, errors.BadRequest("Decisão inválida: use approved ou rejected")
	}

	proof, err := s.repo.GetByID(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if proof.Status.IsTerminal() {
		return nil, errors.Conflict("Este pagamento já foi revisto")
	}
	if decision == payment.DecisionApprove && !s.catalog.Has(proof.PlanID) {
		return nil, errors.BadRequest("Plano do comprovativo já não existe")
	}

	now := s.now().UTC()
	applied, err := s.repo.ApplyReview(ctx, payment.Review{
		ProofID:    proofID,
		Status:     payment.Status(decision),
		AdminNotes: notes,
		ReviewerID: reviewerID,
		ReviewedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.Conflict("Este pagamento já foi revisto")
	}

	out := &payment.Outcome{PreviousStatus: proof.Status}

	if decision == payment.DecisionApprove {
		expires := now.AddDate(0, 0, s.subscriptionDays)
		if err := s.users.UpdatePlan(ctx, proof.UserID, proof.PlanID, &expires); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"payment_id": proofID,
				"user_id":    proof.UserID,
			}).ErrorWithErr(err, "Proof approved but plan update failed")
			return nil, err
		}
		out.Plan = proof.PlanID
		out.ExpiresAt = &expires
	} else {
		u, err := s.users.GetByID(ctx, proof.UserID)
		if err == nil {
			out.Plan = u.Plan
		}
	}

	metrics.RecordPaymentReview(string(decision))
	s.logger.WithFields(map[string]interface{}{
		"payment_id":  proofID,
		"user_id":     proof.UserID,
		"reviewer_id": reviewerID,
		"decision":    decision,
	}).Info("Payment reviewed")

	if job, err := s.notify(ctx, proof, decision, notes, out.ExpiresAt); err != nil {
		s.logger.WithFields(map[string]interface{}{"payment_id": proofID}).ErrorWithErr(err, "Failed to queue review email")
	} else {
		out.EmailJobID = job.ID
	}

	reviewed, err := s.repo.GetByID(ctx, proofID)
	if err != nil {
		return nil, err
	}
	out.Proof = reviewed
	return out, nil
}

func (s *PaymentService) notify(ctx context.Context, proof *payment.Proof, decision payment.Decision, notes string, expires *time.Time) (*email.Job, error) {
	to, name := proof.UserEmail, proof.UserName
	if to == "" {
		u, err := s.users.GetByID(ctx, proof.UserID)
		if err != nil {
			return nil, err
		}
		to, name = u.Email, u.Name
	}

	planName := proof.PlanID
	if p, err := s.catalog.Get(proof.PlanID); err == nil {
		planName = p.Name
	}

	var subject, body string
	if decision == payment.DecisionApprove {
		subject = "Pagamento aprovado - plano " + planName + " ativo"
		body = fmt.Sprintf("Olá %s,\n\nO seu pagamento de %d %s foi aprovado. O plano %s está ativo até %s.\n",
			name, proof.Amount, proof.Currency, planName, expires.Format("02/01/2006"))
	} else {
		subject = "Pagamento não aprovado"
		body = fmt.Sprintf("Olá %s,\n\nNão foi possível aprovar o comprovativo enviado para o plano %s.\n", name, planName)
	}
	if notes != "" {
		body += "\nObservações: " + notes + "\n"
	}
	body += "\nEquipa Growen"

	return s.emails.Enqueue(ctx, &email.Job{
		UserID:  proof.UserID,
		Kind:    email.KindPayment,
		ToEmail: to,
		ToName:  name,
		Subject: subject,
		Body:    body,
	})
}

// OpenProof streams the stored receipt
func (s *PaymentService) OpenProof(ctx context.Context, proofID string) (io.ReadCloser, *payment.Proof, error) {
	proof, err := s.repo.GetByID(ctx, proofID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Get(ctx, proof.FileKey)
	if err != nil {
		return nil, nil, errors.Upstream("de armazenamento", err)
	}
	return rc, proof, nil
}
