package postgres

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/report"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/testutil"
)

func testClient(userID int64, name string) *crm.Client {
	return &crm.Client{
		UserID: userID,
		Name:   name,
		Email:  "cliente@example.ao",
		Status: crm.StatusLead,
	}
}

func seedUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	u := newTestUser(email)
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func TestClientRepository_OwnerScoping(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewClientRepository(db)
	ctx := context.Background()
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")

	c := testClient(owner, "Kianda Lda")
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.GetByID(ctx, other, c.ID); !errors.IsNotFound(err) {
		t.Errorf("GetByID() by other user error = %v, want not found", err)
	}
	if err := repo.Delete(ctx, other, c.ID); !errors.IsNotFound(err) {
		t.Errorf("Delete() by other user error = %v, want not found", err)
	}

	got, err := repo.GetByID(ctx, owner, c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Kianda Lda" || got.Status != crm.StatusLead {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestClientRepository_ListByStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewClientRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "list@example.com")

	for i, st := range []crm.Status{crm.StatusLead, crm.StatusActive, crm.StatusActive} {
		c := testClient(uid, "Cliente")
		c.Status = st
		c.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		repo.Create(ctx, c)
	}

	tests := []struct {
		name   string
		filter crm.Filter
		want   int
	}{
		{name: "all", filter: crm.Filter{}, want: 3},
		{name: "active only", filter: crm.Filter{Status: crm.StatusActive}, want: 2},
		{name: "retained none", filter: crm.Filter{Status: crm.StatusRetained}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, uid, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("List() returned %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestClientRepository_Communications(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewClientRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "history@example.com")

	c := testClient(uid, "Cliente")
	repo.Create(ctx, c)

	base := time.Now().UTC()
	repo.AddCommunication(ctx, &crm.Communication{ClientID: c.ID, Kind: crm.KindNote, Content: "primeiro", CreatedAt: base})
	repo.AddCommunication(ctx, &crm.Communication{ClientID: c.ID, Kind: crm.KindCall, Content: "segundo", CreatedAt: base.Add(time.Second)})

	got, err := repo.ListCommunications(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListCommunications() error = %v", err)
	}
	if len(got) != 2 || got[0].Content != "primeiro" || got[1].Kind != crm.KindCall {
		t.Errorf("ListCommunications() = %+v", got)
	}
}

func TestUsageCounter_Windows(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	uid := seedUser(t, db, "usage@example.com")

	now := time.Date(2026, 5, 17, 12, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC)
	monthStart := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	clients := NewClientRepository(db)
	reports := NewReportRepository(db)
	chats := NewChatRepository(db)
	jobs := NewEmailJobRepository(db)

	for _, ts := range []time.Time{lastMonth, monthStart, now} {
		c := testClient(uid, "Cliente")
		c.CreatedAt = ts
		clients.Create(ctx, c)

		reports.Create(ctx, &report.Report{UserID: uid, Title: "r", Type: "custom", Content: "c", Source: report.SourceCustom, CreatedAt: ts})
		chats.SaveMessage(ctx, &chat.Message{UserID: uid, SessionID: "s1", Message: "m", Response: "r", CreatedAt: ts}, "t")
		jobs.Create(ctx, &email.Job{UserID: uid, Kind: email.KindClient, ToEmail: "a@b.ao", Subject: "s", Body: "b", CreatedAt: ts})
	}
	// system mail never counts
	jobs.Create(ctx, &email.Job{UserID: uid, Kind: email.KindPayment, ToEmail: "a@b.ao", Subject: "s", Body: "b", CreatedAt: now})

	counter := NewUsageCounter(db).WithClock(func() time.Time { return now })

	tests := []struct {
		feature plan.Feature
		want    int
	}{
		{plan.FeatureClients, 3},
		{plan.FeatureReports, 2},
		{plan.FeatureAIChats, 2},
		{plan.FeatureEmailSends, 2},
	}

	for _, tt := range tests {
		t.Run(tt.feature.String(), func(t *testing.T) {
			got, err := counter.Count(ctx, uid, tt.feature)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPaymentRepository_ApplyReviewOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewPaymentRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "payer@example.com")
	admin := seedUser(t, db, "admin@example.com")

	p := &payment.Proof{
		UserID: uid, PlanID: plan.Pro, Amount: 35000, Currency: "AOA",
		FileKey: "k", FileName: "proof.pdf", ContentType: "application/pdf", FileSize: 10,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rv := payment.Review{ProofID: p.ID, Status: payment.StatusApproved, ReviewerID: admin, ReviewedAt: time.Now()}

	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.ApplyReview(ctx, rv)
			if err != nil {
				t.Errorf("ApplyReview() error = %v", err)
			}
			results[i] = ok
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, ok := range results {
		if ok {
			applied++
		}
	}
	if applied != 1 {
		t.Errorf("ApplyReview() applied %d times, want 1", applied)
	}

	rv.Status = payment.StatusRejected
	if ok, _ := repo.ApplyReview(ctx, rv); ok {
		t.Error("ApplyReview() changed a terminal proof")
	}

	got, _ := repo.GetByID(ctx, p.ID)
	if got.Status != payment.StatusApproved {
		t.Errorf("status = %v, want approved", got.Status)
	}
	if got.UserEmail != "payer@example.com" {
		t.Errorf("user_email = %q, want payer@example.com", got.UserEmail)
	}

	pending, _ := repo.CountByStatus(ctx, payment.StatusPending)
	if pending != 0 {
		t.Errorf("CountByStatus(pending) = %d, want 0", pending)
	}
}

func TestEmailJobRepository_Lifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewEmailJobRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	j := &email.Job{UserID: 1, Kind: email.KindClient, ToEmail: "x@y.ao", Subject: "Olá", Body: "corpo"}
	if err := repo.Create(ctx, j); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ok, err := repo.Claim(ctx, j.ID, now)
	if err != nil || !ok {
		t.Fatalf("Claim() = %v, %v; want true, nil", ok, err)
	}
	if ok, _ := repo.Claim(ctx, j.ID, now); ok {
		t.Error("second Claim() succeeded")
	}

	if err := repo.MarkFailed(ctx, j.ID, "smtp down", true, now); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	pending, _ := repo.ListPending(ctx, 10)
	if len(pending) != 1 || pending[0].Attempts != 1 || pending[0].LastError != "smtp down" {
		t.Errorf("ListPending() = %+v", pending)
	}

	repo.Claim(ctx, j.ID, now)
	if err := repo.MarkSent(ctx, j.ID, now); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, j.ID)
	if got.Status != email.StatusSent || got.Attempts != 2 || got.SentAt == nil || got.LastError != "" {
		t.Errorf("job after send = %+v", got)
	}
}

func TestChatRepository_Sessions(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewChatRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "chat@example.com")

	for i := 0; i < 3; i++ {
		repo.SaveMessage(ctx, &chat.Message{UserID: uid, SessionID: "s1", Message: "m", Response: "r",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}, "Primeira pergunta")
	}

	s, err := repo.GetSession(ctx, uid, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if s.MessageCount != 3 || s.SavedAsPDF {
		t.Errorf("session = %+v, want 3 messages, not saved", s)
	}

	if err := repo.MarkSavedAsPDF(ctx, uid, "s1"); err != nil {
		t.Fatalf("MarkSavedAsPDF() error = %v", err)
	}
	s, _ = repo.GetSession(ctx, uid, "s1")
	if !s.SavedAsPDF {
		t.Error("saved_as_pdf not set")
	}

	if _, err := repo.GetSession(ctx, uid+1, "s1"); !errors.IsNotFound(err) {
		t.Errorf("GetSession() for other user error = %v, want not found", err)
	}

	hist, _ := repo.History(ctx, uid, "s1", 2)
	if len(hist) != 2 {
		t.Errorf("History() returned %d, want 2", len(hist))
	}
}
