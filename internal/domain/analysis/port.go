package analysis

import (
	"context"
	"time"
)

// ReportFormat selects the rendered report flavor.
type ReportFormat string

const (
	FormatComprehensive ReportFormat = "comprehensive"
	FormatPCIDSS        ReportFormat = "pci-dss"
	Format3DS           ReportFormat = "3ds"
	FormatSOX           ReportFormat = "sox"
	FormatJSON          ReportFormat = "json"
)

// Repository port for run persistence. Save upserts by id so the same run
// row written at start can be finalized on completion.
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Get(ctx context.Context, tenant string, id RunID) (*Run, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Run, error)
	Summary(ctx context.Context, tenant string, sinceDays int) (int, int, int, int, error)

	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Run, error)
	Cursor(ctx context.Context, tenant string, cursorTime time.Time, cursorID string, pageSize int) ([]*Run, error)
	Count(ctx context.Context, tenant string) (int64, error)
}

// Sources port for reading scanner artifacts into a dataset.
type Sources interface {
	Load(ctx context.Context) (SourceDataset, []Warning)
}

// Renderer port for turning a result into a report document. narrative may
// be empty when no AI narrative exists for the run.
type Renderer interface {
	Render(res *Result, narrative string, format ReportFormat) (content []byte, contentType string, err error)
}

// ReportStore port for report object storage.
type ReportStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}
