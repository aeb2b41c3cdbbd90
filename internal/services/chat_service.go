package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/pdf"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/metrics"
)

const consultantSystemPrompt = `Você é um consultor especialista em negócios da Growen, com expertise em:
- Estratégias de crescimento empresarial
- Análise financeira e KPIs
- Marketing digital e vendas
- Gestão de equipes
- Inovação e tecnologia

Forneça respostas práticas, acionáveis e baseadas em dados.
Seja direto e profissional, mas amigável.
Considere a realidade do mercado angolano e valores em Kwanzas (Kz).
Sempre sugira próximos passos concretos.`

// contextTurns is how many earlier exchanges are sent to the consultant
const contextTurns = 10

// exportLimit caps the messages rendered into a transcript
const exportLimit = 500

// ChatService implements chat.Service
type ChatService struct {
	repo       chat.Repository
	quota      quota.Gate
	consultant chat.Consultant
	logger     *logger.Logger
}

// NewChatService creates a new chat service
func NewChatService(repo chat.Repository, gate quota.Gate, consultant chat.Consultant, log *logger.Logger) chat.Service {
	return &ChatService{
		repo:       repo,
		quota:      gate,
		consultant: consultant,
		logger:     log,
	}
}

// Send asks the consultant and stores the exchange
func (s *ChatService) Send(ctx context.Context, userID int64, message, sessionID string) (*chat.Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.BadRequest("Mensagem vazia")
	}
	if err := s.quota.Enforce(ctx, userID, plan.FeatureAIChats); err != nil {
		return nil, err
	}

	var turns []chat.Turn
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else {
		recent, err := s.repo.History(ctx, userID, sessionID, contextTurns)
		if err != nil {
			return nil, err
		}
		for i := len(recent) - 1; i >= 0; i-- {
			turns = append(turns, chat.Turn{Message: recent[i].Message, Response: recent[i].Response})
		}
	}

	start := time.Now()
	answer, err := s.consultant.Consult(ctx, consultantSystemPrompt, turns, message)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMRequest(s.consultant.Name(), status, time.Since(start))
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id":  userID,
			"provider": s.consultant.Name(),
		}).ErrorWithErr(err, "AI consultation failed")
		return nil, errors.Upstream("de IA", err)
	}

	m := &chat.Message{
		UserID:    userID,
		SessionID: sessionID,
		Message:   message,
		Response:  answer,
	}
	if err := s.repo.SaveMessage(ctx, m, sessionTitle(message)); err != nil {
		return nil, err
	}

	return &chat.Reply{Response: answer, SessionID: sessionID, MessageID: m.ID}, nil
}

// History returns up to HistoryLimit messages, newest first
func (s *ChatService) History(ctx context.Context, userID int64, sessionID string) ([]*chat.Message, error) {
	return s.repo.History(ctx, userID, sessionID, chat.HistoryLimit)
}

// Sessions lists the user's conversations
func (s *ChatService) Sessions(ctx context.Context, userID int64) ([]*chat.Session, error) {
	return s.repo.ListSessions(ctx, userID)
}

// ExportPDF renders a transcript and flags the session as saved
func (s *ChatService) ExportPDF(ctx context.Context, userID int64, sessionID string) ([]byte, string, error) {
	sess, err := s.repo.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, "", err
	}
	recent, err := s.repo.History(ctx, userID, sessionID, exportLimit)
	if err != nil {
		return nil, "", err
	}
	msgs := make([]*chat.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		msgs = append(msgs, recent[i])
	}

	doc, err := pdf.ChatTranscript(sess, msgs)
	if err != nil {
		return nil, "", errors.Upstream("de PDF", err)
	}
	if err := s.repo.MarkSavedAsPDF(ctx, userID, sessionID); err != nil {
		return nil, "", err
	}

	return doc, fmt.Sprintf("consultoria-%s.pdf", shortID(sessionID)), nil
}

func sessionTitle(message string) string {
	r := []rune(message)
	if len(r) <= 60 {
		return message
	}
	return strings.TrimSpace(string(r[:57])) + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
