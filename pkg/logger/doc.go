// Package logger provides the structured logging interface used across the
// harvester. It wraps zerolog and adds:
//   - level parsing from configuration
//   - coloured console output on stderr, optionally teed to a file
//   - child loggers carrying fields (WithField, WithFields, WithError)
//   - a global logger for commands, plus Nop and capturing test loggers
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	log := logger.GetLogger().WithField("target", "hashtag:golang")
//	log.Info("Harvest started")
//	logger.LogTermination(log, "success", 50, 12)
package logger
