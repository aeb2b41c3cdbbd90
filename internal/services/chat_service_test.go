package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

func TestChatService_SendKeepsSessionContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "chat@example.ao", plan.Free)
	svc := env.chat()
	env.consultant.Reply = "Aposte no marketing digital. Próximo passo: definir o público-alvo."

	first, err := svc.Send(ctx, u.ID, "Como aumentar as vendas?", "")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if first.SessionID == "" || first.MessageID == "" || first.Response != env.consultant.Reply {
		t.Errorf("Send() = %+v", first)
	}

	second, err := svc.Send(ctx, u.ID, "E com pouco orçamento?", first.SessionID)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session changed: %s -> %s", first.SessionID, second.SessionID)
	}

	hist := env.consultant.History[1]
	if len(hist) != 1 || hist[0].Message != "Como aumentar as vendas?" {
		t.Errorf("context turns = %+v", hist)
	}

	msgs, _ := svc.History(ctx, u.ID, first.SessionID)
	if len(msgs) != 2 {
		t.Errorf("History() returned %d messages, want 2", len(msgs))
	}

	sessions, _ := svc.Sessions(ctx, u.ID)
	if len(sessions) != 1 || sessions[0].Title != "Como aumentar as vendas?" || sessions[0].MessageCount != 2 {
		t.Errorf("Sessions() = %+v", sessions)
	}
}

func TestChatService_SendValidation(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "chat@example.ao", plan.Free)

	if _, err := env.chat().Send(context.Background(), u.ID, "   ", ""); err == nil {
		t.Error("Send() with empty message error = nil")
	}
	if len(env.consultant.Prompts) != 0 {
		t.Error("consultant called for empty message")
	}
}

func TestChatService_Quota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "chat@example.ao", plan.Free)
	svc := env.chat()

	for i := 0; i < 10; i++ {
		if _, err := svc.Send(ctx, u.ID, "pergunta", ""); err != nil {
			t.Fatalf("Send() #%d error = %v", i+1, err)
		}
	}
	if _, err := svc.Send(ctx, u.ID, "pergunta", ""); !isQuotaExceeded(err) {
		t.Errorf("Send() #11 error = %v, want QUOTA_EXCEEDED", err)
	}
	if len(env.consultant.Prompts) != 10 {
		t.Errorf("consultant called %d times, want 10", len(env.consultant.Prompts))
	}
}

func TestChatService_ConsultantFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "chat@example.ao", plan.Free)
	env.consultant.Err = stderrors.New("rate limited")

	_, err := env.chat().Send(ctx, u.ID, "pergunta", "")
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeUpstream || appErr.StatusCode != 500 {
		t.Fatalf("Send() error = %v, want upstream 500", err)
	}

	// failed consultations do not consume quota
	n, _ := env.chats.CountSince(ctx, u.ID, time.Time{})
	if n != 0 {
		t.Errorf("stored %d messages after failure", n)
	}
}

func TestChatService_ExportPDF(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "chat@example.ao", plan.Pro)
	svc := env.chat()

	reply, _ := svc.Send(ctx, u.ID, "Como organizar o fluxo de caixa?", "")

	doc, name, err := svc.ExportPDF(ctx, u.ID, reply.SessionID)
	if err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF-")) {
		t.Error("ExportPDF() did not return a PDF")
	}
	if !strings.HasPrefix(name, "consultoria-") || !strings.HasSuffix(name, ".pdf") {
		t.Errorf("filename = %q", name)
	}

	sess, _ := env.chats.GetSession(ctx, u.ID, reply.SessionID)
	if !sess.SavedAsPDF {
		t.Error("session not marked as saved")
	}

	other := env.seedUser(t, "other@example.ao", plan.Pro)
	if _, _, err := svc.ExportPDF(ctx, other.ID, reply.SessionID); !errors.IsNotFound(err) {
		t.Errorf("ExportPDF() by other user error = %v, want not found", err)
	}
}

func TestSessionTitle(t *testing.T) {
	long := strings.Repeat("á", 80)
	if got := sessionTitle(long); len([]rune(got)) != 60 || !strings.HasSuffix(got, "...") {
		t.Errorf("sessionTitle() = %q", got)
	}
	if got := sessionTitle("curto"); got != "curto" {
		t.Errorf("sessionTitle() = %q", got)
	}
}
