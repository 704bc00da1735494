// Package telemetry groups the observability packages used by Steward.
//
// # Components
//
//   - logging: slog logger construction and run-scoped context fields
//   - metrics: Prometheus collectors for batch tasks, policy values and caches
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	cfg := config.GetConfig()
//	logger, _ := logging.Setup(logging.Config{
//	    Level:  cfg.Telemetry.Logging.Level,
//	    Format: cfg.Telemetry.Logging.Format,
//	})
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	runner := orchestrator.NewRunner(store, source, orchestrator.WithRecorder(collector))
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCriticalCheck("storage", health.StorageCheck(store))
//
// Logs go to stderr; stdout is reserved for rendered reports.
package telemetry
