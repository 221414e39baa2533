package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/sitescreen/internal/interfaces"
	"github.com/ternarybob/sitescreen/internal/models"
)

// ErrReportNotFound is returned by GetReport for an unknown ID
var ErrReportNotFound = errors.New("report not found")

// ReportStorage persists batch reports keyed by ID
type ReportStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ReportStorage) SaveReport(ctx context.Context, report *models.BatchReport) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	s.logger.Debug().Str("report_id", report.ID).Int("outcomes", len(report.Outcomes)).Msg("Batch report saved")
	return nil
}

func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.BatchReport, error) {
	var report models.BatchReport
	if err := s.db.Store().Get(id, &report); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// ListReports returns the most recent reports first. limit <= 0 returns all.
func (s *ReportStorage) ListReports(ctx context.Context, limit int) ([]*models.BatchReport, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.BatchReport
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	result := make([]*models.BatchReport, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}
