package ai

import "context"

// GeminiGenerator wraps GeminiClient with a fixed model.
type GeminiGenerator struct {
	client *GeminiClient
	model  string
}

// NewGeminiGenerator builds a Gemini-based generator.
func NewGeminiGenerator(client *GeminiClient, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

// GenerateText implements TextGenerator using Gemini.
func (g *GeminiGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.client.GenerateText(ctx, g.model, systemPrompt, userPrompt)
}

// GenerateStructured implements StructuredGenerator using Gemini.
func (g *GeminiGenerator) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) ([]byte, error) {
	return g.client.GenerateStructured(ctx, g.model, systemPrompt, userPrompt, schema)
}
