package sink

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleServices holds the API clients built from one service account
type GoogleServices struct {
	Sheets *sheets.Service
	Drive  *drive.Service
}

// NewGoogleServices authenticates with the service account JSON and creates
// Sheets and Drive clients sharing the credentials
func NewGoogleServices(ctx context.Context, serviceAccountJSON string) (*GoogleServices, error) {
	creds, err := google.CredentialsFromJSON(ctx, []byte(serviceAccountJSON), sheets.SpreadsheetsScope, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	sheetsSvc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets client: %w", err)
	}

	driveSvc, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}

	return &GoogleServices{Sheets: sheetsSvc, Drive: driveSvc}, nil
}
