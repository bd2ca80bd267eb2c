package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"edureview/pkg/ai"
	"edureview/pkg/domain"
)

// aiResponse is the structured document requested from the model.
type aiResponse struct {
	Issues []aiIssue `json:"issues"`
}

type aiIssue struct {
	Type         string   `json:"type"`
	Severity     string   `json:"severity"`
	Description  string   `json:"description"`
	OriginalText string   `json:"original_text,omitempty"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	Confidence   float64  `json:"confidence"`
}

func reviewResponseSchema() *ai.Schema {
	return &ai.Schema{
		Type: "object",
		Properties: map[string]*ai.Schema{
			"issues": {
				Type: "array",
				Items: &ai.Schema{
					Type: "object",
					Properties: map[string]*ai.Schema{
						"type":          {Type: "string"},
						"severity":      {Type: "string", Enum: []string{"critical", "high", "medium", "low", "info"}},
						"description":   {Type: "string"},
						"original_text": {Type: "string"},
						"suggested_fix": {Type: "string"},
						"sources":       {Type: "array", Items: &ai.Schema{Type: "string"}},
						"confidence":    {Type: "number"},
					},
					Required: []string{"type", "severity", "description", "confidence"},
				},
			},
		},
		Required: []string{"issues"},
	}
}

// Model-reported type and severity strings are mapped through explicit
// whitelists. Anything unrecognized gets the technical/medium defaults
// instead of failing the checker.
var findingTypeWhitelist = map[string]domain.FindingType{
	"spelling":      domain.FindingLexical,
	"lexical":       domain.FindingLexical,
	"grammar":       domain.FindingGrammar,
	"syntax":        domain.FindingSyntax,
	"comprehension": domain.FindingReadability,
	"readability":   domain.FindingReadability,
	"source":        domain.FindingCitation,
	"citation":      domain.FindingCitation,
	"outdated":      domain.FindingStaleness,
	"deprecated":    domain.FindingStaleness,
	"factual":       domain.FindingFactual,
}

var severityWhitelist = map[string]domain.Severity{
	"critical": domain.SeverityCritical,
	"high":     domain.SeverityHigh,
	"medium":   domain.SeverityMedium,
	"low":      domain.SeverityLow,
	"info":     domain.SeverityInfo,
}

// AICheckerConfig describes one AI-backed checker.
type AICheckerConfig struct {
	Name         string
	Description  string
	Category     domain.ReviewCategory
	SystemPrompt string
	TaskPrompt   string
}

// AIChecker ships a prompt to a structured generator and maps the response
// into local findings. The model output is untrusted: every field is
// validated or defaulted before use.
type AIChecker struct {
	cfg       AICheckerConfig
	generator ai.StructuredGenerator
}

func NewAIChecker(cfg AICheckerConfig, generator ai.StructuredGenerator) *AIChecker {
	return &AIChecker{cfg: cfg, generator: generator}
}

func (c *AIChecker) Name() string                    { return c.cfg.Name }
func (c *AIChecker) Description() string             { return c.cfg.Description }
func (c *AIChecker) Category() domain.ReviewCategory { return c.cfg.Category }

func (c *AIChecker) Check(ctx context.Context, content domain.Content) ([]domain.Finding, error) {
	raw, err := c.generator.GenerateStructured(ctx, c.cfg.SystemPrompt, c.buildPrompt(content), reviewResponseSchema())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.cfg.Name, err)
	}
	var resp aiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", c.cfg.Name, err)
	}
	findings := make([]domain.Finding, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		if strings.TrimSpace(issue.Description) == "" {
			continue
		}
		findings = append(findings, newFinding(content, c.cfg.Name, mapFindingType(issue.Type), mapSeverity(issue.Severity),
			issue.Description, finding{
				originalText: issue.OriginalText,
				suggestedFix: issue.SuggestedFix,
				sources:      issue.Sources,
				confidence:   clampConfidence(issue.Confidence),
			}))
	}
	return findings, nil
}

func (c *AIChecker) buildPrompt(content domain.Content) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", c.cfg.TaskPrompt)
	fmt.Fprintf(&b, "Title: %s\n", content.Title)
	fmt.Fprintf(&b, "Content Type: %s\n", content.Category)
	if content.Discipline != "" {
		fmt.Fprintf(&b, "Discipline: %s\n", content.Discipline)
	}
	fmt.Fprintf(&b, "Text:\n%s", content.Text)
	return b.String()
}

func mapFindingType(raw string) domain.FindingType {
	if typ, ok := findingTypeWhitelist[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return typ
	}
	return domain.FindingTechnical
}

func mapSeverity(raw string) domain.Severity {
	if sev, ok := severityWhitelist[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return sev
	}
	return domain.SeverityMedium
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
