package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config LogConfig
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level       string
	Format      string // "json" or "text"
	LogToFile   bool
	LogFilePath string
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			DisableQuote:    true,
		})
	}

	if config.LogToFile && config.LogFilePath != "" {
		logDir := filepath.Dir(config.LogFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
		file, err := os.OpenFile(config.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFilePath, err)
		}
		log.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	return &Logger{
		Logger: log,
		config: config,
	}, nil
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// Launch-specific logging helpers

// LogLaunchStarted logs when a queued request begins processing
func (l *Logger) LogLaunchStarted(requestID string, pending int) {
	l.WithFields(logrus.Fields{
		"event":      "launch_started",
		"request_id": requestID,
		"pending":    pending,
	}).Info("🚀 Launch started")
}

// LogLaunchSuccess logs a completed create-buy-sell cycle
func (l *Logger) LogLaunchSuccess(requestID, mint string, spentSOL, receivedSOL float64) {
	l.WithFields(logrus.Fields{
		"event":        "launch_success",
		"request_id":   requestID,
		"mint":         mint,
		"spent_sol":    spentSOL,
		"received_sol": receivedSOL,
		"profit_sol":   receivedSOL - spentSOL,
	}).Info("✅ Launch completed")
}

// LogLaunchFailed logs a failed launch attempt
func (l *Logger) LogLaunchFailed(requestID string, err error) {
	l.WithFields(logrus.Fields{
		"event":      "launch_failed",
		"request_id": requestID,
	}).WithError(err).Error("❌ Launch failed")
}

// LogRateLimitWait logs when the queue blocks on the hourly limit
func (l *Logger) LogRateLimitWait(launched int, limit int, until time.Time) {
	l.WithFields(logrus.Fields{
		"event":       "rate_limit_wait",
		"launched":    launched,
		"limit":       limit,
		"reset_at":    until.Format(time.RFC3339),
	}).Info("⏳ Hourly launch limit reached, waiting")
}

// LogBudgetWait logs when the queue blocks on the daily budget
func (l *Logger) LogBudgetWait(usedSOL, budgetSOL float64, until time.Time) {
	l.WithFields(logrus.Fields{
		"event":      "budget_wait",
		"used_sol":   usedSOL,
		"budget_sol": budgetSOL,
		"reset_at":   until.Format(time.RFC3339),
	}).Info("⏳ Daily budget exhausted, waiting")
}

// LogQueuePersistError flags a persistence failure for operator attention;
// processing continues on in-memory state.
func (l *Logger) LogQueuePersistError(err error) {
	l.WithFields(logrus.Fields{
		"event": "queue_persist_error",
	}).WithError(err).Warn("⚠️ Queue state persistence failed, continuing in memory")
}

// LogTransaction logs a confirmed transaction
func (l *Logger) LogTransaction(operation, signature string) {
	l.WithFields(logrus.Fields{
		"event":     "transaction",
		"operation": operation,
		"signature": signature,
	}).Info("📋 Transaction confirmed")
}
