package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/app"
	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/services/report"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	urlsFile     = flag.String("urls", "", "File with one URL per line")
	reportPath   = flag.String("report", "", "Write the batch report to this path (.md or .html)")
	metricsAddr  = flag.String("metrics", "", "Expose Prometheus metrics on this address (overrides config)")
	schedule     = flag.String("schedule", "", "Cron expression to re-run the batch (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("SiteScreen version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	if len(configFiles) == 0 {
		if _, err := os.Stat("sitescreen.toml"); err == nil {
			configFiles = append(configFiles, "sitescreen.toml")
		}
	}

	// 1. Load configuration (default -> file1 -> file2 -> ... -> env -> CLI)
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	// 2. Command-line overrides
	if *metricsAddr != "" {
		config.Metrics.Enabled = true
		config.Metrics.Address = *metricsAddr
	}
	if *schedule != "" {
		config.Schedule.Cron = *schedule
	}

	// 3. Logger and banner
	logger := common.InitLogger(config)
	common.PrintBanner()

	// 4. Required settings are checked before any URL is processed
	if err := config.ValidateRequired(); err != nil {
		logger.Fatal().Err(err).Msg("Startup configuration is incomplete")
		os.Exit(1)
	}

	urls, err := collectURLs(*urlsFile, flag.Args(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to read URL list")
		os.Exit(1)
	}
	if len(urls) == 0 {
		logger.Fatal().Msg("No URLs given: pass -urls <file> or URLs as arguments")
		os.Exit(1)
	}

	logger.Info().
		Strs("config_files", configFiles).
		Int("urls", len(urls)).
		Str("schedule", config.Schedule.Cron).
		Msg("Application configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if config.Metrics.Enabled {
		go func() {
			if err := application.Metrics.Serve(ctx, config.Metrics.Address, logger); err != nil {
				logger.Error().Err(err).Msg("Metrics endpoint stopped")
			}
		}()
	}

	if config.Schedule.Cron == "" {
		runBatch(ctx, application, urls, *reportPath)
		return
	}

	// Overlapping runs are skipped; the batch is strictly sequential
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := scheduler.AddFunc(config.Schedule.Cron, func() {
		runBatch(ctx, application, urls, *reportPath)
	}); err != nil {
		logger.Fatal().Err(err).Str("schedule", config.Schedule.Cron).Msg("Invalid schedule")
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info().Str("schedule", config.Schedule.Cron).Msg("Scheduler started - Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received")
	<-scheduler.Stop().Done()
	logger.Info().Msg("Scheduler stopped")
}

// collectURLs reads the URL file (if any) followed by positional arguments
func collectURLs(path string, args []string, logger arbor.ILogger) ([]string, error) {
	var urls []string
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		urls, err = common.ReadURLList(f, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return append(urls, args...), nil
}

func runBatch(ctx context.Context, application *app.App, urls []string, reportPath string) {
	batch, err := application.Pipeline.Run(ctx, urls)
	if err != nil && !errors.Is(err, context.Canceled) {
		application.Logger.Error().Err(err).Msg("Batch ended early")
	}
	if batch == nil || reportPath == "" {
		return
	}
	if err := report.WriteFile(reportPath, batch); err != nil {
		application.Logger.Warn().Err(err).Str("path", reportPath).Msg("Failed to write batch report")
		return
	}
	application.Logger.Info().Str("path", reportPath).Msg("Batch report written")
}
