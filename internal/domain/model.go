package domain

import "context"

// GenerationOptions are the sampling parameters passed to a text-generation model.
type GenerationOptions struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// DefaultGenerationOptions returns the sampling parameters used for networking messages.
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{Temperature: 0.7, TopP: 0.95, MaxTokens: 200}
}

// ModelHandle is a loaded text-generation model. A handle is never mutated
// after it is created and is safe to reuse for the lifetime of the process.
type ModelHandle interface {
	ModelID() string
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}
