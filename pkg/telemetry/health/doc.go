// Package health provides liveness and readiness probes for `steward serve`.
//
// # Endpoints
//
//   - /health: liveness, answers 200 while the process runs
//   - /ready: readiness, runs every registered check
//   - /version: build information
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCriticalCheck("storage", health.StorageCheck(store))
//	checker.RegisterCheck("scheduler", health.RunningCheck("scheduler", sched.IsRunning))
//
//	r.Get("/health", checker.LivenessHandler())
//	r.Get("/ready", checker.ReadinessHandler())
//
// Readiness is "ready" when all checks pass, "degraded" when only
// non-critical checks fail and "unhealthy" when any critical check fails.
// Only "ready" answers 200.
package health
