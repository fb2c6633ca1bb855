// Package logger provides structured logging for vkbackup on top of zerolog.
//
// Components receive a Logger at construction time; the package-level
// functions use a global instance set by Initialize:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//	logger.WithField("owner_id", 1).Info("Fetching photos")
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
