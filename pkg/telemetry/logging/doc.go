// Package logging configures structured logging for steward.
//
// It wraps log/slog: New builds a logger from level and format settings,
// Setup installs it as the process default, and the context helpers carry
// run and task identifiers so every line written during a batch run can be
// correlated.
//
//	logger, err := logging.Setup(logging.Config{Level: "info", Format: "json"})
//	ctx = logging.WithRunID(ctx, report.ID)
//	logging.FromContext(ctx, logger).Info("task completed", "actions", 3)
package logging
