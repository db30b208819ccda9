package assistant

import "context"

// Provider generates one free-text answer for one grounding prompt
type Provider interface {
	// Generate sends the full prompt as a single text input and returns the reply text
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider in logs and health checks
	Name() string
}
