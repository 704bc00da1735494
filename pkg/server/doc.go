// Package server provides the HTTP surface of `steward serve`: Prometheus
// metrics, liveness and readiness probes, and read-only course reports and
// rankings from the analytics service.
//
//	handler := server.NewRouter(server.Routes{
//	    Analytics:   svc,
//	    Health:      checker,
//	    Metrics:     collector.Handler(),
//	    MetricsPath: "/metrics",
//	})
//	srv := server.NewServer(&cfg.Server, handler)
//	err := srv.Start(ctx) // blocks until ctx is cancelled
package server
