package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/chat"
)

// OpenAIConsultant answers consulting prompts through the chat completions API
type OpenAIConsultant struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIConsultant creates a consultant for cfg. An empty key yields an
// offline consultant instead.
func NewOpenAIConsultant(cfg config.LLMConfig) chat.Consultant {
	if cfg.OpenAIAPIKey == "" {
		return NewOfflineConsultant()
	}
	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	model := cfg.OpenAIModel
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIConsultant{
		client:    openai.NewClientWithConfig(oc),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *OpenAIConsultant) Consult(ctx context.Context, system string, history []chat.Turn, prompt string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2*len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, t := range history {
		msgs = append(msgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.Message},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Response},
		)
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIConsultant) Name() string { return "openai" }

// OfflineConsultant is used when no LLM key is configured. It returns a
// fixed Portuguese answer so the rest of the flow stays usable.
type OfflineConsultant struct {
	now func() time.Time
}

func NewOfflineConsultant() *OfflineConsultant {
	return &OfflineConsultant{now: time.Now}
}

func (c *OfflineConsultant) Consult(ctx context.Context, system string, history []chat.Turn, prompt string) (string, error) {
	return fmt.Sprintf("O consultor de IA não está configurado neste ambiente (%s). "+
		"Entretanto, recomendamos: 1) definir metas trimestrais mensuráveis; "+
		"2) acompanhar receita, margem e custo de aquisição de clientes; "+
		"3) rever o funil de vendas no CRM semanalmente. "+
		"Próximo passo: agende uma consultoria pelo WhatsApp.",
		c.now().UTC().Format("02/01/2006")), nil
}

func (c *OfflineConsultant) Name() string { return "offline" }
