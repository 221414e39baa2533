package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Sheets      SheetsConfig     `toml:"sheets"`
	Rules       RulesConfig      `toml:"rules"`
	Blob        BlobConfig       `toml:"blob"`
	Crawler     CrawlerConfig    `toml:"crawler"`
	OCR         OCRConfig        `toml:"ocr"`
	Classifier  ClassifierConfig `toml:"classifier"`
	Judge       JudgeConfig      `toml:"judge"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Metrics     MetricsConfig    `toml:"metrics"`
	Schedule    ScheduleConfig   `toml:"schedule"`
}

// SheetsConfig locates the result spreadsheet and the service account used to reach it
type SheetsConfig struct {
	ServiceAccountJSON string `toml:"service_account_json"` // Inline service account key (JSON)
	ServiceAccountFile string `toml:"service_account_file"` // Path to a service account key file, read when JSON is empty
	SpreadsheetID      string `toml:"spreadsheet_id"`
	SheetName          string `toml:"sheet_name"`  // Result tab
	KeyColumn          string `toml:"key_column"`  // Column holding the URL (default: "A")
	HeaderRows         int    `toml:"header_rows"` // Rows skipped before URL lookup (default: 0)
	Timeout            string `toml:"timeout"`     // Per-call timeout (default: "30s")
}

// RulesConfig selects where genre rules are read from
type RulesConfig struct {
	SheetTab string `toml:"sheet_tab"` // Tab in the result spreadsheet (default: "GenreRules")
	File     string `toml:"file"`      // Optional YAML rules file; used instead of the sheet when set
}

// BlobProvider selects the screenshot store
type BlobProvider string

const (
	BlobProviderDrive BlobProvider = "drive"
	BlobProviderS3    BlobProvider = "s3"
)

// BlobConfig configures the screenshot upload target
type BlobConfig struct {
	Provider      BlobProvider `toml:"provider"`        // "drive" (default) or "s3"
	DriveFolderID string       `toml:"drive_folder_id"` // Destination folder for Drive uploads
	S3            S3Config     `toml:"s3"`
}

// S3Config contains S3-compatible storage settings
type S3Config struct {
	Endpoint        string `toml:"endpoint"` // Optional custom endpoint (MinIO, Spaces)
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
	Prefix          string `toml:"prefix"`          // Key prefix (default: "screenshots")
	PublicBaseURL   string `toml:"public_base_url"` // Base for embeddable links; derived from bucket/region when empty
}

// CrawlerConfig contains static fetch and headless browser settings
type CrawlerConfig struct {
	UserAgent          string `toml:"user_agent"`
	RequestTimeout     string `toml:"request_timeout"`      // Static fetch timeout (default: "10s")
	RequestRetries     int    `toml:"request_retries"`      // Static fetch retries (default: 1)
	RetryDelay         string `toml:"retry_delay"`          // Pause between static fetch attempts (default: "1s")
	MaxBodySize        int64  `toml:"max_body_size"`        // Maximum response body in bytes
	WindowWidth        int64  `toml:"window_width"`         // Initial browser viewport (default: 1280)
	WindowHeight       int64  `toml:"window_height"`        // Initial browser viewport (default: 1500)
	PageLoadTimeout    string `toml:"page_load_timeout"`    // Navigation timeout (default: "20s")
	SettleDelay        string `toml:"settle_delay"`         // Wait after navigation (default: "2.5s")
	PreResizeDelay     string `toml:"pre_resize_delay"`     // Wait before measuring the page (default: "5s")
	PostResizeDelay    string `toml:"post_resize_delay"`    // Wait after resizing the viewport (default: "2s")
	MaxScreenshotPixel int64  `toml:"max_screenshot_pixel"` // Cap on page height/width used for the viewport (default: 16384)
	ScreenshotDir      string `toml:"screenshot_dir"`       // Temp screenshot directory (default: os temp dir)
	ChromePath         string `toml:"chrome_path"`          // Optional browser binary
}

// OCRConfig configures the screenshot text recognition pass
type OCRConfig struct {
	Enabled   bool     `toml:"enabled"`
	Languages []string `toml:"languages"` // Tesseract languages (default: ["jpn", "eng"])
}

// ClassifierConfig holds the locale classifier thresholds
type ClassifierConfig struct {
	ScriptRatio    float64 `toml:"script_ratio"`    // Domestic script fraction required (default: 0.4)
	MinBodyText    int     `toml:"min_body_text"`   // Body text shorter than this falls back to OCR (default: 30)
	LatinThreshold float64 `toml:"latin_threshold"` // Latin fraction that forces foreign when no domestic script (default: 0.2)
}

// JudgeConfig holds the LLM judgment call settings
type JudgeConfig struct {
	Enabled          bool    `toml:"enabled"`
	Model            string  `toml:"model"`             // Model for both calls; provider is detected from the name
	MaxTokens        int     `toml:"max_tokens"`        // Response limit (default: 200)
	TextTemperature  float32 `toml:"text_temperature"`  // default: 0.2
	ImageTemperature float32 `toml:"image_temperature"` // default: 0.3
	TextMaxChars     int     `toml:"text_max_chars"`    // Body text sent to the text judge (default: 800)
	ImageTextChars   int     `toml:"image_text_chars"`  // Image text sent to the text judge (default: 300)
	OCRTextChars     int     `toml:"ocr_text_chars"`    // OCR/alt text sent to the image judge (default: 200)
	MaxImageDim      int     `toml:"max_image_dim"`     // Downscale bound (default: 1600)
	MaxImageBytes    int     `toml:"max_image_bytes"`   // Encoded image budget (default: 4000000)
	Timeout          string  `toml:"timeout"`           // Per-call timeout (default: "60s")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // default: "gemini-2.5-flash"
	RateLimit   string  `toml:"rate_limit"` // Minimum interval between calls (default: "4s")
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"` // default: "claude-haiku-4-5"
	MaxTokens   int     `toml:"max_tokens"`
	RateLimit   string  `toml:"rate_limit"` // default: "1s"
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the default provider and the per-call retry budget
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" (default) or "claude"
	MaxRetries      int         `toml:"max_retries"`      // Retries after a failed model call (default: 0)
}

// StorageConfig holds local run-history storage
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Enabled        bool   `toml:"enabled"`
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default: "15:04:05"
}

// MetricsConfig exposes Prometheus metrics over HTTP
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"` // default: ":9464"
}

// ScheduleConfig re-runs the batch on a cron schedule when set
type ScheduleConfig struct {
	Cron string `toml:"cron"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "production",
		Sheets: SheetsConfig{
			KeyColumn: "A",
			Timeout:   "30s",
		},
		Rules: RulesConfig{
			SheetTab: "GenreRules",
		},
		Blob: BlobConfig{
			Provider: BlobProviderDrive,
			S3: S3Config{
				Prefix: "screenshots",
			},
		},
		Crawler: CrawlerConfig{
			UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			RequestTimeout:     "10s",
			RequestRetries:     1,
			RetryDelay:         "1s",
			MaxBodySize:        10 * 1024 * 1024,
			WindowWidth:        1280,
			WindowHeight:       1500,
			PageLoadTimeout:    "20s",
			SettleDelay:        "2.5s",
			PreResizeDelay:     "5s",
			PostResizeDelay:    "2s",
			MaxScreenshotPixel: 16384,
		},
		OCR: OCRConfig{
			Enabled:   true,
			Languages: []string{"jpn", "eng"},
		},
		Classifier: ClassifierConfig{
			ScriptRatio:    0.4,
			MinBodyText:    30,
			LatinThreshold: 0.2,
		},
		Judge: JudgeConfig{
			Enabled:          true,
			MaxTokens:        200,
			TextTemperature:  0.2,
			ImageTemperature: 0.3,
			TextMaxChars:     800,
			ImageTextChars:   300,
			OCRTextChars:     200,
			MaxImageDim:      1600,
			MaxImageBytes:    4_000_000,
			Timeout:          "60s",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			RateLimit:   "4s",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-4-5",
			MaxTokens:   1024,
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Enabled: true,
				Path:    "./data/sitescreen",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Metrics: MetricsConfig{
			Address: ":9464",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if config.Sheets.ServiceAccountJSON == "" && config.Sheets.ServiceAccountFile != "" {
		data, err := os.ReadFile(config.Sheets.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account file %s: %w", config.Sheets.ServiceAccountFile, err)
		}
		config.Sheets.ServiceAccountJSON = string(data)
	}

	return config, nil
}

// firstEnv returns the first non-empty value among the named variables
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to config.
// The five required settings also accept their unprefixed legacy names.
func applyEnvOverrides(config *Config) {
	if env := firstEnv("SITESCREEN_ENV", "GO_ENV"); env != "" {
		config.Environment = env
	}

	// Required settings
	if v := firstEnv("SITESCREEN_SERVICE_ACCOUNT_JSON", "SERVICE_ACCOUNT_JSON"); v != "" {
		config.Sheets.ServiceAccountJSON = v
	}
	if v := firstEnv("SITESCREEN_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		config.Sheets.ServiceAccountFile = v
	}
	if v := firstEnv("SITESCREEN_SPREADSHEET_ID", "SPREADSHEET_ID"); v != "" {
		config.Sheets.SpreadsheetID = v
	}
	if v := firstEnv("SITESCREEN_SHEET_NAME", "SHEET_NAME"); v != "" {
		config.Sheets.SheetName = v
	}
	if v := firstEnv("SITESCREEN_DRIVE_FOLDER_ID", "DRIVE_FOLDER_ID"); v != "" {
		config.Blob.DriveFolderID = v
	}
	if v := firstEnv("SITESCREEN_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := firstEnv("SITESCREEN_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}

	// Sheets / rules
	if v := os.Getenv("SITESCREEN_KEY_COLUMN"); v != "" {
		config.Sheets.KeyColumn = v
	}
	if v := os.Getenv("SITESCREEN_RULES_TAB"); v != "" {
		config.Rules.SheetTab = v
	}
	if v := os.Getenv("SITESCREEN_RULES_FILE"); v != "" {
		config.Rules.File = v
	}

	// Blob store
	if v := os.Getenv("SITESCREEN_BLOB_PROVIDER"); v != "" {
		config.Blob.Provider = BlobProvider(strings.ToLower(v))
	}
	if v := os.Getenv("SITESCREEN_S3_BUCKET"); v != "" {
		config.Blob.S3.Bucket = v
	}
	if v := os.Getenv("SITESCREEN_S3_REGION"); v != "" {
		config.Blob.S3.Region = v
	}
	if v := os.Getenv("SITESCREEN_S3_ENDPOINT"); v != "" {
		config.Blob.S3.Endpoint = v
	}
	if v := firstEnv("SITESCREEN_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"); v != "" {
		config.Blob.S3.AccessKeyID = v
	}
	if v := firstEnv("SITESCREEN_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"); v != "" {
		config.Blob.S3.SecretAccessKey = v
	}

	// LLM
	if v := os.Getenv("SITESCREEN_LLM_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(v))
	}
	if v := os.Getenv("SITESCREEN_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.LLM.MaxRetries = n
		}
	}
	if v := os.Getenv("SITESCREEN_JUDGE_MODEL"); v != "" {
		config.Judge.Model = v
	}

	// Crawler
	if v := os.Getenv("SITESCREEN_CRAWLER_USER_AGENT"); v != "" {
		config.Crawler.UserAgent = v
	}
	if v := os.Getenv("SITESCREEN_CRAWLER_SCREENSHOT_DIR"); v != "" {
		config.Crawler.ScreenshotDir = v
	}
	if v := os.Getenv("SITESCREEN_CHROME_PATH"); v != "" {
		config.Crawler.ChromePath = v
	}

	// OCR
	if v := os.Getenv("SITESCREEN_OCR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.OCR.Enabled = b
		}
	}

	// Classifier
	if v := os.Getenv("SITESCREEN_SCRIPT_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Classifier.ScriptRatio = f
		}
	}

	// Storage
	if v := os.Getenv("SITESCREEN_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}

	// Logging
	if v := os.Getenv("SITESCREEN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SITESCREEN_LOG_OUTPUT"); v != "" {
		outputs := []string{}
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Metrics
	if v := os.Getenv("SITESCREEN_METRICS_ADDRESS"); v != "" {
		config.Metrics.Address = v
		config.Metrics.Enabled = true
	}

	// Schedule
	if v := os.Getenv("SITESCREEN_SCHEDULE"); v != "" {
		config.Schedule.Cron = v
	}
}

// ParseDuration parses a duration string, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

// ActiveLLMKey returns the API key of the configured default provider
func (c *Config) ActiveLLMKey() string {
	if c.LLM.DefaultProvider == LLMProviderClaude {
		return c.Claude.APIKey
	}
	return c.Gemini.APIKey
}
