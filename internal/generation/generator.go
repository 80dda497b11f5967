// internal/generation/generator.go
package generation

import (
	"context"
	"strings"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// Email is the generated content for one prospect.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Generator is the content-generation collaborator. Implementations are
// opaque to the scheduler: they return subject+body or fail.
type Generator interface {
	Generate(ctx context.Context, campaign *model.Campaign, prospect *model.Prospect) (*Email, error)
}

// TemplateGenerator renders the campaign's base template with placeholder
// substitution. It is the development fallback when no OpenAI key is set.
type TemplateGenerator struct{}

func (g *TemplateGenerator) Generate(ctx context.Context, campaign *model.Campaign, prospect *model.Prospect) (*Email, error) {
	body := campaign.BaseTemplate
	body = replace(body, "{first_name}", prospect.FirstName)
	body = replace(body, "{last_name}", prospect.LastName)
	body = replace(body, "{company}", prospect.Company)
	body = replace(body, "{title}", prospect.Title)
	body = replace(body, "{location}", prospect.Location)

	subject := "Quick question"
	if prospect.Company != "" {
		subject = "Quick question about " + prospect.Company
	}

	return &Email{Subject: subject, Body: body}, nil
}

func replace(template, placeholder, value string) string {
	if value == "" {
		value = "<unknown>"
	}
	return strings.ReplaceAll(template, placeholder, value)
}

var _ Generator = (*TemplateGenerator)(nil)
