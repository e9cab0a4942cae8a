package narrative

import "context"

// Repository port for persisting and querying narratives
type Repository interface {
	Save(ctx context.Context, n *Narrative) error
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Narrative, error)
	LatestByRun(ctx context.Context, tenant string, runID string) (*Narrative, error)
}
