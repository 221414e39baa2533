package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMissingSettings is returned when required startup settings are absent or invalid
var ErrMissingSettings = errors.New("missing required settings")

// requiredSettings mirrors the settings the batch cannot start without.
// The env tag names the variable reported to the operator.
type requiredSettings struct {
	ServiceAccountJSON string       `validate:"required,json" env:"SERVICE_ACCOUNT_JSON"`
	SpreadsheetID      string       `validate:"required" env:"SPREADSHEET_ID"`
	SheetName          string       `validate:"required" env:"SHEET_NAME"`
	BlobProvider       BlobProvider `validate:"oneof=drive s3" env:"SITESCREEN_BLOB_PROVIDER"`
	DriveFolderID      string       `validate:"required_if=BlobProvider drive" env:"DRIVE_FOLDER_ID"`
	S3Bucket           string       `validate:"required_if=BlobProvider s3" env:"SITESCREEN_S3_BUCKET"`
	S3Region           string       `validate:"required_if=BlobProvider s3" env:"SITESCREEN_S3_REGION"`
	LLMProvider        LLMProvider  `validate:"oneof=gemini claude" env:"SITESCREEN_LLM_PROVIDER"`
	GeminiAPIKey       string       `validate:"required_if=LLMProvider gemini" env:"GEMINI_API_KEY"`
	ClaudeAPIKey       string       `validate:"required_if=LLMProvider claude" env:"ANTHROPIC_API_KEY"`
}

// ValidateRequired checks every required setting and reports all problems at once.
// The returned error wraps ErrMissingSettings.
func (c *Config) ValidateRequired() error {
	settings := requiredSettings{
		ServiceAccountJSON: c.Sheets.ServiceAccountJSON,
		SpreadsheetID:      c.Sheets.SpreadsheetID,
		SheetName:          c.Sheets.SheetName,
		BlobProvider:       c.Blob.Provider,
		DriveFolderID:      c.Blob.DriveFolderID,
		S3Bucket:           c.Blob.S3.Bucket,
		S3Region:           c.Blob.S3.Region,
		LLMProvider:        c.LLM.DefaultProvider,
		GeminiAPIKey:       c.Gemini.APIKey,
		ClaudeAPIKey:       c.Claude.APIKey,
	}

	var missing, invalid []string

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("env")
	})
	if err := validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate settings: %w", err)
		}
		for _, fe := range verrs {
			switch fe.Tag() {
			case "oneof":
				invalid = append(invalid, fmt.Sprintf("%s=%v", fe.Field(), fe.Value()))
				continue
			case "json":
				invalid = append(invalid, fe.Field()+" (not valid JSON)")
				continue
			}
			missing = append(missing, fe.Field())
		}
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "not set: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("%w: %s", ErrMissingSettings, strings.Join(parts, "; "))
}
