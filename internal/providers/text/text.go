package text

import "context"

// Generator is the contract implemented by all text providers. It takes a
// fully assembled prompt and returns the document body as plain text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
