package interfaces

import (
	"context"

	"github.com/ternarybob/sitescreen/internal/models"
)

// RuleSource yields raw rule rows (genre, type, base, regex), header excluded
type RuleSource interface {
	Rows(ctx context.Context) ([][]string, error)
	Name() string
}

// RowStore is the external result sheet, keyed by URL. It only updates
// existing rows.
type RowStore interface {
	// FindRow returns the 1-based row number holding url in the key column.
	// Returns an error wrapping sink.ErrRowNotFound when absent.
	FindRow(ctx context.Context, url string) (int, error)

	// UpdateRow writes the fixed result fields to an existing row
	UpdateRow(ctx context.Context, row int, update *models.RowUpdate) error
}

// BlobStore uploads a local file and returns an embeddable link
type BlobStore interface {
	Upload(ctx context.Context, localPath string, name string) (string, error)
}

// ReportStorage persists batch reports
type ReportStorage interface {
	SaveReport(ctx context.Context, report *models.BatchReport) error
	GetReport(ctx context.Context, id string) (*models.BatchReport, error)
	ListReports(ctx context.Context, limit int) ([]*models.BatchReport, error)
}

// ResultWriter persists one classification to the result sheet. The
// returned reasons are stages that degraded without failing the write.
type ResultWriter interface {
	Write(ctx context.Context, result *models.ClassificationResult) ([]models.FailureReason, error)
}
