package providers

import (
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/integrations"
)

// NewConsultant selects the AI backend named by cfg.Provider
func NewConsultant(cfg config.LLMConfig) chat.Consultant {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return NewOfflineConsultant()
		}
		return integrations.NewGeminiConsultant(cfg)
	default:
		return NewOpenAIConsultant(cfg)
	}
}
