package ports

import "context"

// GenerationRequest describes one unit of AI suggestion work
type GenerationRequest struct {
	Prompt    string
	MaxLength int
}

// GenerationResult carries the suggestion and its token accounting
type GenerationResult struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// AnswerGenerator produces draft suggestions. Implementations must never be
// invoked from an apply path; generation happens only during runs.
type AnswerGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}
