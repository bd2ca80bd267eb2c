package checker

import (
	"edureview/pkg/ai"
	"edureview/pkg/domain"
)

const citationSystemPrompt = `You are an expert fact-checker and academic research assistant. Your task is to analyze educational content for source verification issues.

Focus on:
1. Claims that require citations but lack them
2. Quoted material without attribution
3. Statistics or data without source references
4. Potentially unreliable or unverified sources
5. Missing references for factual statements
6. Outdated or broken reference links

For each issue, provide the type as "source", severity level, description, original text, suggested fix (like "Add citation" or "Verify source"), and optionally suggest trusted sources in the "sources" field. Include confidence score.`

const citationTaskPrompt = `Please analyze the following content for source verification issues. Identify claims, statistics, or statements that need citations or have questionable sources.`

// NewCitationChecker builds the AI-backed source verification checker.
func NewCitationChecker(generator ai.StructuredGenerator) *AIChecker {
	return NewAIChecker(AICheckerConfig{
		Name:         "Citation Checker",
		Description:  "Verifies sources, citations, and references in content",
		Category:     domain.ReviewCitation,
		SystemPrompt: citationSystemPrompt,
		TaskPrompt:   citationTaskPrompt,
	}, generator)
}
