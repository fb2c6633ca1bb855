package logger

import (
	"fmt"
	"time"
)

// LogRequest logs an HTTP exchange at a level matching its status code
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogTransfer logs the outcome of moving one photo to or from a service
func LogTransfer(l Logger, destination, name string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"destination": destination,
		"file":        name,
	})
	if err != nil {
		entry.WithError(err).Warn("Transfer failed")
		return
	}
	entry.Debug("Transfer completed")
}

// LogPhase logs the start of a named step of a backup run
func LogPhase(l Logger, phase string, fields map[string]interface{}) {
	entry := l.WithField("phase", phase)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Info("Phase started")
}

// LogSummary logs an "N of M" result line for a phase
func LogSummary(l Logger, phase string, succeeded, total int) {
	l.WithFields(map[string]interface{}{
		"phase":     phase,
		"succeeded": succeeded,
		"total":     total,
		"ratio":     fmt.Sprintf("%d/%d", succeeded, total),
	}).Info("Phase finished")
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(msg string)                                          {}
func (n nopLogger) Info(msg string)                                           {}
func (n nopLogger) Warn(msg string)                                           {}
func (n nopLogger) Error(msg string)                                          {}
func (n nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n nopLogger) WithError(err error) Logger                                { return n }
func (n nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
