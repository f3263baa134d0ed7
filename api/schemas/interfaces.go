// api/schemas/interfaces.go
package schemas

import "context"

// ExtractionClient is the single narrow capability the pipeline needs from a
// model provider. Concrete providers are interchangeable implementations
// selected at construction time; nothing inspects their runtime type.
type ExtractionClient interface {
	// Generate sends a fully formatted prompt and returns the raw response
	// text, which must contain exactly one structured payload.
	Generate(ctx context.Context, prompt string) (string, error)
}
