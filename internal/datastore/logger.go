// Package datastore logging infrastructure for database operations
package datastore

import (
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/homewatch/homewatch-go/internal/logging"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Package-level logger for datastore operations
var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar) // Dynamic level control
	loggerCloseFunc   func() error
	loggerOnce        sync.Once

	defaultLogPath = "logs/datastore.log"
)

// InitializeLogger initializes the datastore file logger. Safe to call
// multiple times, initialization happens only once.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		datastoreLevelVar.Set(slog.LevelInfo)

		var err error
		datastoreLogger, loggerCloseFunc, err = logging.NewFileLogger(logFilePath, "datastore", datastoreLevelVar)
		if err != nil {
			// Fall back to the default logger rather than failing startup
			datastoreLogger = slog.Default().With("service", "datastore")
			loggerCloseFunc = func() error { return nil }
			initErr = err
		}
	})

	return initErr
}

// getLogger returns the datastore logger, initializing it if needed.
func getLogger() *slog.Logger {
	if datastoreLogger == nil {
		_ = InitializeLogger(defaultLogPath)
	}
	return datastoreLogger
}

// CloseLogger releases the underlying log writer.
func CloseLogger() error {
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      gormlogger.Warn,
			Colorful:      true,
		},
	)
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&User{}, &MonitoredObject{}, &MonitoringLog{}, &DetectionResult{}, &Notification{}); err != nil {
		return newMigrationError(dbType, err)
	}

	if debug {
		getLogger().Debug("database connection initialized",
			"type", dbType,
			"connection", connectionInfo)
	}

	return nil
}
