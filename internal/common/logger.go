package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance, creating a console logger
// if InitLogger has not run yet
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter("15:04:05"))
	}
	return globalLogger
}

func consoleWriter(timeFormat string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       timeFormat,
		DisableTimestamp: false,
	}
}

// InitLogger initializes the arbor logger with configuration.
// File output goes to logs/sitescreen.log next to the executable.
func InitLogger(config *Config) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}

	logger := arbor.NewLogger()

	hasFileOutput := false
	hasStdoutOutput := false
	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			hasFileOutput = true
		case "stdout", "console":
			hasStdoutOutput = true
		}
	}

	if hasFileOutput {
		if logsDir, err := logDirectory(); err != nil {
			fmt.Printf("Warning: Failed to resolve logs directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         filepath.Join(logsDir, "sitescreen.log"),
				TimeFormat:       timeFormat,
				MaxSize:          100 * 1024 * 1024, // 100 MB
				MaxBackups:       3,
				DisableTimestamp: false,
			})
		}
	}

	if hasStdoutOutput || !hasFileOutput {
		logger = logger.WithConsoleWriter(consoleWriter(timeFormat))
	}

	logger = logger.WithLevelFromString(config.Logging.Level)

	globalLogger = logger
	return logger
}

// logDirectory returns (and creates) the logs directory beside the executable
func logDirectory() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", err
	}
	return logsDir, nil
}

// GetLogFilePath returns the configured log file path from the logger
func GetLogFilePath(logger arbor.ILogger) string {
	if logger != nil {
		return logger.GetLogFilePath()
	}
	return ""
}
