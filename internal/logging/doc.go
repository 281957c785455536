// Package logging provides structured logging for the bl1prov tools.
//
// This package wraps a zap logger with a small set of convenience functions.
// The command-line tools print curated, styled output for the operator, so
// logging is silent unless explicitly requested:
//
//	BL1PROV_LOG_LEVEL=debug bl1-provision enable-secureboot -c key.pem
//
// # Log Levels
//
//   - Debug: byte dumps of public key regions, rendered J-Link scripts
//   - Info: file operations, subprocess start/finish
//   - Warn: non-fatal prerequisite problems
//   - Error: failures that abort the command
//
// # Usage
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    _ = err // GetLogger falls back to a no-op logger
//	}
//	defer logging.Sync()
//
//	logger := logging.GetLogger()
//	executor := jlink.NewExecutor(cfg, logger)
//
// Components accept a *zap.Logger so tests can pass zap.NewNop().
//
// Private key bytes are never logged. LogRawBytes is for public key and
// ELF section content only.
package logging
