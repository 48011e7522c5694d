package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategorySession  LogCategory = "session"  // Session lifecycle events (JSON)
	CategoryError    LogCategory = "error"    // Application errors (JSON)
	CategoryDownload LogCategory = "download" // Raw downloader output, written by the session log
)

// Categories lists every category that has a daily file
var Categories = []LogCategory{CategorySession, CategoryError, CategoryDownload}

// MultiLogger writes structured events to one JSON file per category and day:
// <logs_dir>/<category>-YYYYMMDD.log
type MultiLogger struct {
	config  MultiLoggerConfig
	session *zap.Logger
	errors  *zap.Logger
	files   []*dailyFile
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{config: config}
	ml.session = ml.structuredLogger(CategorySession, level)
	ml.errors = ml.structuredLogger(CategoryError, zapcore.ErrorLevel)
	return ml, nil
}

// structuredLogger creates a JSON logger writing to the category's daily file
func (ml *MultiLogger) structuredLogger(category LogCategory, level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.CallerKey = ""

	file := &dailyFile{dir: ml.config.LogsDir, category: category}
	ml.files = append(ml.files, file)

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), file, level)
	return zap.New(core).With(zap.String("category", string(category)))
}

// LogsDir returns the logs directory path
func (ml *MultiLogger) LogsDir() string {
	return ml.config.LogsDir
}

// Session returns the session lifecycle logger
func (ml *MultiLogger) Session() *zap.Logger {
	return ml.session
}

// Error returns the application error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.errors
}

// LogSessionEvent logs a session lifecycle event with structured data
func (ml *MultiLogger) LogSessionEvent(event string, fields ...zap.Field) {
	ml.session.Info(event, fields...)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.errors.Error(msg, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	var lastErr error
	for _, l := range []*zap.Logger{ml.session, ml.errors} {
		if err := l.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes every open file
func (ml *MultiLogger) Close() error {
	lastErr := ml.Sync()
	for _, f := range ml.files {
		if err := f.close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// CategoryLogPath returns the file of a category for a given day
func CategoryLogPath(logsDir string, category LogCategory, date time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", category, date.Format("20060102")))
}

// dailyFile is a WriteSyncer that switches to a new file when the date changes
type dailyFile struct {
	dir      string
	category LogCategory

	mu   sync.Mutex
	date string
	file *os.File
}

func (f *dailyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if date := now.Format("20060102"); f.file == nil || date != f.date {
		if f.file != nil {
			f.file.Close()
		}
		file, err := os.OpenFile(CategoryLogPath(f.dir, f.category, now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			f.file = nil
			return 0, err
		}
		f.file = file
		f.date = date
	}
	return f.file.Write(p)
}

func (f *dailyFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

func (f *dailyFile) close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
