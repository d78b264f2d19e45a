package detection

import (
	"log/slog"
	"sync"

	"github.com/homewatch/homewatch-go/internal/logging"
)

// Package-level logger for pipeline operations
var (
	pipelineLogger   *slog.Logger
	pipelineLevelVar = new(slog.LevelVar)
	loggerCloseFunc  func() error
	loggerOnce       sync.Once

	defaultLogPath = "logs/detection.log"
)

// InitializeLogger initializes the detection file logger. Safe to call
// multiple times, initialization happens only once.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		pipelineLevelVar.Set(slog.LevelInfo)

		var err error
		pipelineLogger, loggerCloseFunc, err = logging.NewFileLogger(logFilePath, "detection", pipelineLevelVar)
		if err != nil {
			pipelineLogger = slog.Default().With("service", "detection")
			loggerCloseFunc = func() error { return nil }
			initErr = err
		}
	})

	return initErr
}

func getLogger() *slog.Logger {
	if pipelineLogger == nil {
		_ = InitializeLogger(defaultLogPath)
	}
	return pipelineLogger
}

// SetDebug raises the logger verbosity when pipeline debugging is enabled.
func SetDebug(debug bool) {
	if debug {
		pipelineLevelVar.Set(slog.LevelDebug)
	} else {
		pipelineLevelVar.Set(slog.LevelInfo)
	}
}

// CloseLogger releases the underlying log writer.
func CloseLogger() error {
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}
