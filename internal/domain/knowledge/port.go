package knowledge

import "context"

// Index port for the vector knowledge base.
type Index interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, c Chunk, vector []float32) error
	Ready(ctx context.Context) bool
}
