package ai

import (
	"context"

	"github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
)

// Narrator writes a root cause narrative for a completed analysis result.
type Narrator interface {
	Model() string
	Narrate(ctx context.Context, res *analysis.Result) (string, error)
}

// Embedder vectorizes text for the knowledge index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
