package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/engineo/backend/internal/domain/ports"
)

// DefaultModel is used when GEMINI_MODEL is unset
const DefaultModel = "gemini-2.0-flash"

// GeminiGenerator produces SEO copy suggestions via the Gemini API
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

var _ ports.AnswerGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator from the GEMINI_API_KEY environment
func NewGeminiGenerator(ctx context.Context) (*GeminiGenerator, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = DefaultModel
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate runs one prompt and returns the trimmed text with token usage
func (g *GeminiGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (*ports.GenerationResult, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("generation returned empty text")
	}

	// Models occasionally wrap short copy in quotes despite instructions
	text = strings.Trim(text, "\"")
	if req.MaxLength > 0 && len(text) > req.MaxLength {
		text = truncateAtWord(text, req.MaxLength)
	}

	result := &ports.GenerationResult{
		Text:  text,
		Model: g.model,
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

// truncateAtWord cuts text to max bytes without splitting the last word
func truncateAtWord(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:")
}
