package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func proofUpload(planID string, body []byte) payment.Upload {
	return payment.Upload{
		PlanID:          planID,
		ReferenceNumber: "TRF-0001",
		FileName:        "comprovativo.png",
		Size:            int64(len(body)),
		Body:            bytes.NewReader(body),
	}
}

func submitProof(t *testing.T, env *testEnv, svc payment.Service, userID int64, planID string) *payment.Proof {
	t.Helper()
	p, err := svc.Submit(context.Background(), userID, proofUpload(planID, pngHeader))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return p
}

func TestPaymentService_Submit(t *testing.T) {
	tests := []struct {
		name     string
		planID   string
		body     []byte
		size     int64
		wantCode int
	}{
		{name: "png receipt", planID: plan.Starter, body: pngHeader},
		{name: "pdf receipt", planID: plan.Pro, body: []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n")},
		{name: "free plan needs no payment", planID: plan.Free, body: pngHeader, wantCode: http.StatusBadRequest},
		{name: "unknown plan", planID: "enterprise", body: pngHeader, wantCode: http.StatusBadRequest},
		{name: "text file rejected", planID: plan.Pro, body: []byte("isto não é um comprovativo"), wantCode: http.StatusBadRequest},
		{name: "at the size limit", planID: plan.Pro, body: pngHeader, size: payment.MaxProofSize},
		{name: "too large", planID: plan.Pro, body: pngHeader, size: payment.MaxProofSize + 1, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			u := env.seedUser(t, "payer@example.ao", plan.Free)
			svc := env.paymentService()

			up := proofUpload(tt.planID, tt.body)
			if tt.size > 0 {
				up.Size = tt.size
			}
			p, err := svc.Submit(context.Background(), u.ID, up)

			if tt.wantCode != 0 {
				appErr, ok := errors.As(err)
				if !ok || appErr.StatusCode != tt.wantCode {
					t.Fatalf("Submit() error = %v, want status %d", err, tt.wantCode)
				}
				if len(env.store.Objects) != 0 {
					t.Error("Submit() stored a rejected file")
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if p.Status != payment.StatusPending {
				t.Errorf("status = %v, want pending", p.Status)
			}
			want, _ := env.catalog.Get(tt.planID)
			if p.Amount != want.Price || p.Currency != "AOA" {
				t.Errorf("amount = %d %s, want %d AOA", p.Amount, p.Currency, want.Price)
			}
			stored, ok := env.store.Objects[p.FileKey]
			if !ok || !bytes.Equal(stored, tt.body) {
				t.Errorf("stored object %q mismatch", p.FileKey)
			}

			// the plan only changes on approval
			got, _ := env.users.GetByID(context.Background(), u.ID)
			if got.Plan != plan.Free {
				t.Errorf("plan after submit = %v, want free", got.Plan)
			}
		})
	}
}

func TestPaymentService_SubmitStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "payer@example.ao", plan.Free)
	env.store.PutErr = stderrors.New("bucket missing")

	_, err := env.paymentService().Submit(context.Background(), u.ID, proofUpload(plan.Pro, pngHeader))
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeUpstream {
		t.Fatalf("Submit() error = %v, want upstream error", err)
	}
	list, _ := env.payments.List(context.Background(), payment.Filter{UserID: u.ID})
	if len(list) != 0 {
		t.Errorf("proof recorded despite storage failure")
	}
}

func TestPaymentService_ApproveOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "payer@example.ao", plan.Free)
	admin := env.seedUser(t, "admin@growen.ao", plan.Free)
	svc := env.paymentService()

	proof := submitProof(t, env, svc, u.ID, plan.Pro)

	before := time.Now().UTC()
	out, err := svc.Review(ctx, admin.ID, proof.ID, payment.DecisionApprove, "Transferência confirmada")
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if out.Proof.Status != payment.StatusApproved || out.Plan != plan.Pro {
		t.Errorf("Review() = %+v", out)
	}
	if out.EmailJobID == "" {
		t.Error("Review() did not queue a notification")
	}

	got, _ := env.users.GetByID(ctx, u.ID)
	if got.Plan != plan.Pro {
		t.Errorf("plan = %v, want pro", got.Plan)
	}
	if got.SubscriptionExpires == nil {
		t.Fatal("subscription_expires not set")
	}
	want := before.AddDate(0, 0, 30)
	if d := got.SubscriptionExpires.Sub(want); d < -2*time.Second || d > 2*time.Second {
		t.Errorf("subscription_expires = %v, want about %v", got.SubscriptionExpires, want)
	}

	// a second decision conflicts and leaves the user untouched
	_, err = svc.Review(ctx, admin.ID, proof.ID, payment.DecisionReject, "")
	appErr, ok := errors.As(err)
	if !ok || appErr.StatusCode != http.StatusConflict {
		t.Fatalf("second Review() error = %v, want 409", err)
	}
	again, _ := env.users.GetByID(ctx, u.ID)
	if again.Plan != plan.Pro || !again.SubscriptionExpires.Equal(*got.SubscriptionExpires) {
		t.Errorf("second review mutated the user: %+v", again)
	}
	if n := env.jobsOfKind(t, u.ID, email.KindPayment); n != 1 {
		t.Errorf("payment emails = %d, want 1", n)
	}
}

func TestPaymentService_ConcurrentReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "payer@example.ao", plan.Free)
	admin := env.seedUser(t, "admin@growen.ao", plan.Free)
	svc := env.paymentService()
	proof := submitProof(t, env, svc, u.ID, plan.Starter)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		applied   int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Review(ctx, admin.ID, proof.ID, payment.DecisionApprove, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				applied++
				return
			}
			if appErr, ok := errors.As(err); ok && appErr.StatusCode == http.StatusConflict {
				conflicts++
			}
		}()
	}
	wg.Wait()

	if applied != 1 || conflicts != 7 {
		t.Errorf("applied = %d, conflicts = %d; want 1 and 7", applied, conflicts)
	}
	if n := env.jobsOfKind(t, u.ID, email.KindPayment); n != 1 {
		t.Errorf("payment emails = %d, want 1", n)
	}
}

func TestPaymentService_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "payer@example.ao", plan.Free)
	admin := env.seedUser(t, "admin@growen.ao", plan.Free)
	svc := env.paymentService()
	proof := submitProof(t, env, svc, u.ID, plan.Pro)

	out, err := svc.Review(ctx, admin.ID, proof.ID, payment.DecisionReject, "Valor incorreto")
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if out.Proof.Status != payment.StatusRejected || out.Proof.AdminNotes != "Valor incorreto" {
		t.Errorf("Review() proof = %+v", out.Proof)
	}
	if out.Plan != plan.Free || out.ExpiresAt != nil {
		t.Errorf("Review() outcome = %+v, want free plan unchanged", out)
	}

	got, _ := env.users.GetByID(ctx, u.ID)
	if got.Plan != plan.Free || got.SubscriptionExpires != nil {
		t.Errorf("user after reject = %+v", got)
	}
}

func TestPaymentService_InvalidDecision(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.paymentService().Review(context.Background(), 1, "whatever", payment.Decision("maybe"), "")
	if appErr, ok := errors.As(err); !ok || appErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Review() error = %v, want 400", err)
	}
}

func TestPaymentService_RequestUpgrade(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "payer@example.ao", plan.Free)

	out, err := env.paymentService().RequestUpgrade(context.Background(), u.ID, plan.Starter)
	if err != nil {
		t.Fatalf("RequestUpgrade() error = %v", err)
	}
	if out["amount"] != int64(15000) || out["currency"] != "AOA" {
		t.Errorf("RequestUpgrade() = %v", out)
	}
	if bd, ok := out["bank_details"].(payment.BankDetails); !ok || bd.IBAN == "" {
		t.Errorf("bank_details = %v", out["bank_details"])
	}

	got, _ := env.users.GetByID(context.Background(), u.ID)
	if got.Plan != plan.Free {
		t.Errorf("plan changed on request: %v", got.Plan)
	}
}

func TestPaymentService_OpenProof(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "payer@example.ao", plan.Free)
	svc := env.paymentService()
	proof := submitProof(t, env, svc, u.ID, plan.Pro)

	rc, p, err := svc.OpenProof(context.Background(), proof.ID)
	if err != nil {
		t.Fatalf("OpenProof() error = %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, pngHeader) || !strings.HasSuffix(p.FileKey, ".png") {
		t.Errorf("OpenProof() returned %d bytes for %q", len(data), p.FileKey)
	}
}
