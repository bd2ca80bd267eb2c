package checker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"edureview/internal/util"
	"edureview/pkg/domain"
)

// Common misspellings and their corrections.
var misspellings = map[string]string{
	"recieve":    "receive",
	"occured":    "occurred",
	"seperate":   "separate",
	"definately": "definitely",
	"accomodate": "accommodate",
	"untill":     "until",
	"thier":      "their",
	"wierd":      "weird",
	"acheive":    "achieve",
	"beleive":    "believe",
}

type grammarRule struct {
	pattern *regexp.Regexp
	message string
}

var grammarRules = []grammarRule{
	{regexp.MustCompile(`\ba\s+[aeiou]`), "Use 'an' before vowel sounds"},
	{regexp.MustCompile(`\ban\s+[^aeiou\s]`), "Use 'a' before consonant sounds"},
	{regexp.MustCompile(`\S\s\s+\S`), "Multiple consecutive spaces"},
	{regexp.MustCompile(`[.!?]\s*[a-z]`), "Sentence should start with capital letter"},
}

var (
	wordPattern        = regexp.MustCompile(`[a-zA-Z]+`)
	missingColonSuffix = regexp.MustCompile(`^(if|for|while|def|class)\s+.*[^:]$`)
)

// LexicalChecker finds misspellings, grammar slips, and, for code content,
// likely syntax mistakes. Entirely rule-based, no external calls.
type LexicalChecker struct{}

func NewLexicalChecker() *LexicalChecker { return &LexicalChecker{} }

func (c *LexicalChecker) Name() string { return "Lexical Checker" }

func (c *LexicalChecker) Description() string {
	return "Detects spelling, grammar, and syntax errors in content"
}

func (c *LexicalChecker) Category() domain.ReviewCategory { return domain.ReviewLexical }

func (c *LexicalChecker) Check(_ context.Context, content domain.Content) ([]domain.Finding, error) {
	var findings []domain.Finding

	for _, word := range wordPattern.FindAllString(content.Text, -1) {
		lower := strings.ToLower(word)
		fix, ok := misspellings[lower]
		if !ok {
			continue
		}
		findings = append(findings, newFinding(content, c.Name(), domain.FindingLexical, domain.SeverityLow,
			fmt.Sprintf("Spelling error: '%s'", lower), finding{
				originalText: lower,
				suggestedFix: fix,
				confidence:   0.95,
			}))
	}

	for _, rule := range grammarRules {
		for _, loc := range rule.pattern.FindAllStringIndex(content.Text, -1) {
			findings = append(findings, newFinding(content, c.Name(), domain.FindingGrammar, domain.SeverityMedium,
				rule.message, finding{
					originalText: content.Text[loc[0]:loc[1]],
					location:     fmt.Sprintf("Position %d-%d", loc[0], loc[1]),
					confidence:   0.85,
				}))
		}
	}

	if content.Category == domain.ContentCode {
		findings = append(findings, c.checkCodeSyntax(content)...)
	}

	return findings, nil
}

func (c *LexicalChecker) checkCodeSyntax(content domain.Content) []domain.Finding {
	var findings []domain.Finding
	for i, line := range strings.Split(content.Text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if missingColonSuffix.MatchString(trimmed) {
			findings = append(findings, newFinding(content, c.Name(), domain.FindingSyntax, domain.SeverityHigh,
				"Possible missing colon at end of statement", finding{
					originalText: trimmed,
					location:     fmt.Sprintf("Line %d", i+1),
					confidence:   0.75,
				}))
		}
	}
	return findings
}

// finding carries the optional fields of a new finding.
type finding struct {
	originalText string
	suggestedFix string
	location     string
	sources      []string
	confidence   float64
}

func newFinding(content domain.Content, checkerName string, typ domain.FindingType, severity domain.Severity, description string, f finding) domain.Finding {
	return domain.Finding{
		ID:           util.NewID(),
		ContentID:    content.ID,
		Type:         typ,
		Severity:     severity,
		Description:  description,
		Location:     f.location,
		OriginalText: f.originalText,
		SuggestedFix: f.suggestedFix,
		Sources:      f.sources,
		Confidence:   f.confidence,
		Checker:      checkerName,
		CreatedAt:    time.Now().UTC(),
	}
}
