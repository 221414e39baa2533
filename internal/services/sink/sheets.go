package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/api/sheets/v4"

	"github.com/ternarybob/sitescreen/internal/models"
)

// ErrRowNotFound is returned when the URL is not present in the key column.
// The sheet is only ever updated, never appended to.
var ErrRowNotFound = errors.New("url not found in sheet")

// Result columns. B holds the timestamp; R through Y hold the eight result
// fields in RowUpdate order.
const (
	timestampColumn   = "B"
	firstResultColumn = "R"
	lastResultColumn  = "Y"
)

// SheetsRowStore updates result rows in one spreadsheet tab
type SheetsRowStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	keyColumn     string
	headerRows    int
	timeout       time.Duration
	logger        arbor.ILogger
}

// NewSheetsRowStore creates a row store. keyColumn is the column holding the
// URLs; headerRows rows at the top are never matched.
func NewSheetsRowStore(service *sheets.Service, spreadsheetID, sheetName, keyColumn string, headerRows int, timeout time.Duration, logger arbor.ILogger) *SheetsRowStore {
	if keyColumn == "" {
		keyColumn = "A"
	}
	return &SheetsRowStore{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		keyColumn:     strings.ToUpper(keyColumn),
		headerRows:    headerRows,
		timeout:       timeout,
		logger:        logger,
	}
}

// a1 builds a sheet-qualified A1 range
func (s *SheetsRowStore) a1(rng string) string {
	return "'" + strings.ReplaceAll(s.sheetName, "'", "''") + "'!" + rng
}

func (s *SheetsRowStore) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// FindRow returns the 1-based row whose key cell equals url after trimming
func (s *SheetsRowStore) FindRow(ctx context.Context, url string) (int, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	rng := s.a1(s.keyColumn + ":" + s.keyColumn)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(callCtx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read key column: %w", err)
	}

	target := strings.TrimSpace(url)
	for i, row := range resp.Values {
		if i < s.headerRows || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == target {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrRowNotFound, url)
}

// UpdateRow writes the timestamp and the result fields in one batch request.
// Values are entered as if typed so the IMAGE formula is evaluated; every
// other result cell is forced to literal text.
func (s *SheetsRowStore) UpdateRow(ctx context.Context, row int, update *models.RowUpdate) error {
	if row < 1 {
		return fmt.Errorf("invalid row %d", row)
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data: []*sheets.ValueRange{
			{
				Range:  s.a1(fmt.Sprintf("%s%d", timestampColumn, row)),
				Values: [][]interface{}{{update.Timestamp}},
			},
			{
				Range: s.a1(fmt.Sprintf("%s%d:%s%d", firstResultColumn, row, lastResultColumn, row)),
				Values: [][]interface{}{{
					literal(update.BodyText),
					update.ImageFormula,
					literal(update.TextOpinion),
					literal(update.ImageOpinion),
					literal(update.KeywordSummary),
					literal(update.ScoreExplanation),
					literal(update.Verdict),
					literal(update.FinalGenre),
				}},
			},
		},
	}

	if _, err := s.service.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(callCtx).Do(); err != nil {
		return fmt.Errorf("failed to update row %d: %w", row, err)
	}

	s.logger.Debug().Int("row", row).Str("sheet", s.sheetName).Msg("Row updated")
	return nil
}

// literal stops Sheets from parsing scraped or model text as a formula.
// A leading apostrophe is hidden by Sheets and keeps the cell text.
func literal(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\'':
		return "'" + s
	}
	return s
}
