package checker

import (
	"edureview/pkg/ai"
	"edureview/pkg/domain"
)

const readabilitySystemPrompt = `You are an expert in educational content design and readability. Your task is to analyze content for comprehension issues and suggest improvements.

Focus on:
1. Overly complex vocabulary that could be simplified
2. Long, convoluted sentences that could be broken up
3. Dense paragraphs that need better structure
4. Passive voice that could be made more direct
5. Technical jargon without explanation
6. Unclear explanations or logical flow

For each issue, provide the type as "comprehension", severity level, description, original text, suggested fix, and confidence score.`

const readabilityTaskPrompt = `Please analyze the following content for comprehension and readability issues. Identify areas where the content could be clearer or easier to understand.`

// NewReadabilityChecker builds the AI-backed comprehension checker.
func NewReadabilityChecker(generator ai.StructuredGenerator) *AIChecker {
	return NewAIChecker(AICheckerConfig{
		Name:         "Readability Checker",
		Description:  "Analyzes content clarity and suggests improvements for easier understanding",
		Category:     domain.ReviewReadability,
		SystemPrompt: readabilitySystemPrompt,
		TaskPrompt:   readabilityTaskPrompt,
	}, generator)
}
