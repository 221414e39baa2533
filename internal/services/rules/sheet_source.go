package rules

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"
)

// SheetSource reads rule rows from a spreadsheet tab
type SheetSource struct {
	service       *sheets.Service
	spreadsheetID string
	tab           string
}

// NewSheetSource creates a source over the given tab
func NewSheetSource(service *sheets.Service, spreadsheetID, tab string) *SheetSource {
	return &SheetSource{service: service, spreadsheetID: spreadsheetID, tab: tab}
}

// Name identifies the source in logs
func (s *SheetSource) Name() string {
	return "sheet:" + s.tab
}

// Rows returns every row after the header. The API omits trailing empty
// cells, so rows are padded to the widest row to keep column positions.
func (s *SheetSource) Rows(ctx context.Context) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", s.tab, err)
	}
	return normalizeValues(resp.Values), nil
}

// normalizeValues converts API cell values to strings, drops the header row
// and pads every row to the same width
func normalizeValues(values [][]interface{}) [][]string {
	if len(values) <= 1 {
		return nil
	}

	width := 0
	for _, row := range values {
		if len(row) > width {
			width = len(row)
		}
	}

	rows := make([][]string, 0, len(values)-1)
	for _, row := range values[1:] {
		cells := make([]string, width)
		for i, v := range row {
			if v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, cells)
	}
	return rows
}
