package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/interfaces"
	"github.com/ternarybob/sitescreen/internal/metrics"
	"github.com/ternarybob/sitescreen/internal/models"
	"github.com/ternarybob/sitescreen/internal/services/crawler"
	"github.com/ternarybob/sitescreen/internal/services/llm"
	"github.com/ternarybob/sitescreen/internal/services/locale"
	"github.com/ternarybob/sitescreen/internal/services/matcher"
	"github.com/ternarybob/sitescreen/internal/services/ocr"
	"github.com/ternarybob/sitescreen/internal/services/pipeline"
	"github.com/ternarybob/sitescreen/internal/services/rules"
	"github.com/ternarybob/sitescreen/internal/services/sink"
	"github.com/ternarybob/sitescreen/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// External clients
	Google *sink.GoogleServices

	// Immutable rule set, loaded once
	Rules *models.RuleSet

	// Retrieval
	OCREngine interfaces.OCREngine
	Fetcher   *crawler.Service

	// Judgment
	Providers *llm.ProviderFactory
	Judge     *llm.Judge

	// Result sink
	Writer *sink.Writer

	// Run history and observability
	DB      *badger.BadgerDB
	Reports interfaces.ReportStorage
	Metrics *metrics.Metrics

	Pipeline *pipeline.Pipeline
}

// New initializes the application with all dependencies. Any error here is a
// startup failure: no URL has been touched yet.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if err := app.initClients(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.loadRules(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	if err := app.initServices(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("blob_provider", string(cfg.Blob.Provider)).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Bool("judge_enabled", app.Judge.Enabled()).
		Bool("ocr_enabled", app.OCREngine != nil).
		Bool("history_enabled", app.Reports != nil).
		Msg("Application initialization complete")

	return app, nil
}

// initClients authenticates the Google service account
func (a *App) initClients(ctx context.Context) error {
	google, err := sink.NewGoogleServices(ctx, a.Config.Sheets.ServiceAccountJSON)
	if err != nil {
		return err
	}
	a.Google = google
	a.Logger.Debug().Str("spreadsheet", a.Config.Sheets.SpreadsheetID).Msg("Google clients initialized")
	return nil
}

// initDatabase opens the Badger run-history store when enabled
func (a *App) initDatabase() error {
	if !a.Config.Storage.Badger.Enabled {
		a.Logger.Debug().Msg("Run history disabled")
		return nil
	}

	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db
	a.Reports = badger.NewReportStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// loadRules reads the genre rules from the YAML file when configured,
// otherwise from the rules tab of the result spreadsheet
func (a *App) loadRules(ctx context.Context) error {
	var source interfaces.RuleSource
	if a.Config.Rules.File != "" {
		source = rules.NewFileSource(a.Config.Rules.File)
	} else {
		source = rules.NewSheetSource(a.Google.Sheets, a.Config.Sheets.SpreadsheetID, a.Config.Rules.SheetTab)
	}

	rs, err := rules.NewLoader(source, a.Logger).Load(ctx)
	if err != nil {
		return err
	}
	a.Rules = rs
	return nil
}

// initServices builds the pipeline components in dependency order
func (a *App) initServices(ctx context.Context) error {
	cfg := a.Config

	// 1. OCR (optional; a missing tesseract install only disables it)
	if cfg.OCR.Enabled {
		engine, err := ocr.NewTesseractEngine(cfg.OCR.Languages)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("OCR engine unavailable, continuing without image text")
		} else {
			a.OCREngine = engine
		}
	}

	// 2. Content fetcher
	a.Fetcher = crawler.NewService(
		crawler.NewHTTPFetcher(&cfg.Crawler, a.Logger),
		crawler.NewChromeRenderer(&cfg.Crawler, a.Logger),
		ocr.NewAnalyzer(a.OCREngine, a.Logger),
		a.Logger,
	)

	// 3. LLM judge
	a.Providers = llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, a.Logger)
	a.Judge = llm.NewJudge(a.Providers, cfg.Judge, cfg.Judge.Enabled && cfg.ActiveLLMKey() != "", a.Logger)

	// 4. Result sink
	blobs, err := a.newBlobStore(ctx)
	if err != nil {
		return err
	}
	rows := sink.NewSheetsRowStore(
		a.Google.Sheets,
		cfg.Sheets.SpreadsheetID,
		cfg.Sheets.SheetName,
		cfg.Sheets.KeyColumn,
		cfg.Sheets.HeaderRows,
		common.ParseDuration(cfg.Sheets.Timeout, 30*time.Second),
		a.Logger,
	)
	a.Writer = sink.NewWriter(rows, blobs, a.Logger)

	// 5. Pipeline
	a.Pipeline = pipeline.New(pipeline.Dependencies{
		Fetcher:       a.Fetcher,
		Matcher:       matcher.New(a.Rules, a.Logger),
		Classifier:    locale.NewClassifier(a.Rules.DomesticDomains, cfg.Classifier),
		Judge:         a.Judge,
		Writer:        a.Writer,
		Reports:       a.Reports,
		Metrics:       a.Metrics,
		ScreenshotDir: cfg.Crawler.ScreenshotDir,
	}, a.Logger)

	return nil
}

func (a *App) newBlobStore(ctx context.Context) (interfaces.BlobStore, error) {
	switch a.Config.Blob.Provider {
	case common.BlobProviderS3:
		store, err := sink.NewS3BlobStore(ctx, a.Config.Blob.S3)
		if err != nil {
			return nil, err
		}
		a.Logger.Debug().Str("bucket", a.Config.Blob.S3.Bucket).Msg("Using S3 screenshot store")
		return store, nil
	default:
		a.Logger.Debug().Str("folder", a.Config.Blob.DriveFolderID).Msg("Using Drive screenshot store")
		return sink.NewDriveBlobStore(a.Google.Drive, a.Config.Blob.DriveFolderID), nil
	}
}

// Close releases every resource that was opened
func (a *App) Close() error {
	if a.OCREngine != nil {
		if err := a.OCREngine.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close OCR engine")
		}
	}

	if a.Providers != nil {
		if err := a.Providers.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM providers")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Debug().Msg("Storage closed")
	}

	return nil
}
