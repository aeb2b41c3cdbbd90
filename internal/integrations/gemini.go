package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/chat"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiConsultant answers consulting prompts through the Gemini REST API
type GeminiConsultant struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type geminiRequest struct {
	SystemInstruction *geminiContent        `json:"systemInstruction,omitempty"`
	Contents          []geminiContent       `json:"contents"`
	GenerationConfig  *geminiGenerationConf `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConf struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// NewGeminiConsultant creates a Gemini-backed consultant
func NewGeminiConsultant(cfg config.LLMConfig) *GeminiConsultant {
	model := cfg.GeminiModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiConsultant{
		apiKey:     cfg.GeminiAPIKey,
		baseURL:    geminiBaseURL,
		model:      model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithBaseURL points the client at another endpoint
func (c *GeminiConsultant) WithBaseURL(u string) *GeminiConsultant {
	c.baseURL = u
	return c
}

func (c *GeminiConsultant) Consult(ctx context.Context, system string, history []chat.Turn, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini API key is not configured")
	}

	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
	}
	for _, t := range history {
		body.Contents = append(body.Contents,
			geminiContent{Role: "user", Parts: []geminiPart{{Text: t.Message}}},
			geminiContent{Role: "model", Parts: []geminiPart{{Text: t.Response}}},
		)
	}
	body.Contents = append(body.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt}}})
	if c.maxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConf{MaxOutputTokens: c.maxTokens}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var gr geminiResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

func (c *GeminiConsultant) Name() string { return "gemini" }
