package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogPass logs the outcome of one extraction pass
func LogPass(l Logger, pass, added, collected, target int) {
	l.DebugWithFields("Pass complete", map[string]interface{}{
		"pass":      pass,
		"added":     added,
		"collected": collected,
		"target":    target,
	})
}

// LogHarvestProgress logs collected/target with a percentage
func LogHarvestProgress(l Logger, target string, collected, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(collected) / float64(total) * 100
	}
	l.WithFields(map[string]interface{}{
		"target":     target,
		"collected":  collected,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Harvest progress")
}

// LogRefresh logs a re-issued navigation after repeated empty passes
func LogRefresh(l Logger, url string, attempt, budget int) {
	l.WithFields(map[string]interface{}{
		"url":     url,
		"attempt": attempt,
		"budget":  budget,
		"action":  "refresh",
	}).Warn("No new posts, reloading target")
}

// LogTermination logs the terminal reason of a session
func LogTermination(l Logger, reason string, collected, passes int) {
	fields := map[string]interface{}{
		"reason":    reason,
		"collected": collected,
		"passes":    passes,
	}
	if reason == "fatal_config" || reason == "driver_error" {
		l.WarnWithFields("Harvest terminated", fields)
		return
	}
	l.InfoWithFields("Harvest terminated", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// LogMetrics logs the counters of a finished operation
func LogMetrics(l Logger, operation string, metrics map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": operation,
		"type":      "metrics",
	}
	for k, v := range metrics {
		fields[k] = v
	}
	l.InfoWithFields("Performance metrics", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
