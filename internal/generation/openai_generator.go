// internal/generation/openai_generator.go
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// Config for the OpenAI generator
type Config struct {
	APIKey      string
	Model       string  // default: gpt-4o-mini
	Temperature float32 // default: 0.7
	MaxTokens   int     // default: 600
}

// OpenAIGenerator produces personalized cold emails via chat completion.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *log.Logger
}

// NewOpenAIGenerator creates a new generator
func NewOpenAIGenerator(cfg Config, logger *log.Logger) *OpenAIGenerator {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 600
	}
	if logger == nil {
		logger = log.Default()
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

const systemPrompt = `You write short, personalized cold outreach emails.
Respond with a JSON object: {"subject": "...", "body": "..."}.
No markdown, no preamble, plain-text body under 150 words.`

func (g *OpenAIGenerator) Generate(ctx context.Context, campaign *model.Campaign, prospect *model.Prospect) (*Email, error) {
	userPrompt := fmt.Sprintf(
		"Campaign brief:\n%s\n\nProspect:\nname: %s %s\ncompany: %s\ntitle: %s\nlocation: %s",
		campaign.Prompt, prospect.FirstName, prospect.LastName, prospect.Company, prospect.Title, prospect.Location,
	)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var email Email
	if err := json.Unmarshal([]byte(content), &email); err != nil {
		return nil, fmt.Errorf("openai returned non-JSON content: %w", err)
	}
	if email.Subject == "" || email.Body == "" {
		return nil, fmt.Errorf("openai returned empty subject or body")
	}

	return &email, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
