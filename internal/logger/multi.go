package logger

import (
	"time"

	"github.com/harrison/goodread/internal/models"
)

// Logger is the set of methods every logger in this package implements.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogReport(path string, report models.Report)
	LogSummary(documents, invalid int, duration time.Duration)
}

// Multi fans every call out to several loggers.
type Multi []Logger

// NewMulti creates a Multi, dropping nil loggers.
func NewMulti(loggers ...Logger) Multi {
	m := make(Multi, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m Multi) LogTrace(message string) {
	for _, l := range m {
		l.LogTrace(message)
	}
}

func (m Multi) LogDebug(message string) {
	for _, l := range m {
		l.LogDebug(message)
	}
}

func (m Multi) LogInfo(message string) {
	for _, l := range m {
		l.LogInfo(message)
	}
}

func (m Multi) LogWarn(message string) {
	for _, l := range m {
		l.LogWarn(message)
	}
}

func (m Multi) LogError(message string) {
	for _, l := range m {
		l.LogError(message)
	}
}

func (m Multi) LogReport(path string, report models.Report) {
	for _, l := range m {
		l.LogReport(path, report)
	}
}

func (m Multi) LogSummary(documents, invalid int, duration time.Duration) {
	for _, l := range m {
		l.LogSummary(documents, invalid, duration)
	}
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string) {
}

func (n *NoOpLogger) LogDebug(message string) {
}

func (n *NoOpLogger) LogInfo(message string) {
}

func (n *NoOpLogger) LogWarn(message string) {
}

func (n *NoOpLogger) LogError(message string) {
}

func (n *NoOpLogger) LogReport(path string, report models.Report) {
}

func (n *NoOpLogger) LogSummary(documents, invalid int, duration time.Duration) {
}

var (
	_ Logger = (*ConsoleLogger)(nil)
	_ Logger = (*FileLogger)(nil)
	_ Logger = Multi(nil)
	_ Logger = (*NoOpLogger)(nil)
)
