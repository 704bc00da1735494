package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"courseware-hq/steward/pkg/cli"
	"courseware-hq/steward/pkg/config"
	"courseware-hq/steward/pkg/orchestrator"
	"courseware-hq/steward/pkg/server"
	"courseware-hq/steward/pkg/telemetry/health"
	"courseware-hq/steward/pkg/telemetry/logging"
	"courseware-hq/steward/pkg/telemetry/metrics"
)

const (
	// runFreshness is how long readiness tolerates no completed run while
	// the scheduler is enabled. The default cleanup schedule is daily.
	runFreshness = 25 * time.Hour
)

var serveFlags struct {
	listenAddress string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the HTTP endpoints",
	Long: `Start the long-running Steward process. It serves Prometheus metrics,
health probes, course reports and rankings over HTTP, and runs the
audit and cleanup jobs on their cron schedules when scheduler.enabled is set.

Examples:
  steward serve
  steward serve --config /etc/steward/steward.yaml --listen 0.0.0.0:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.cfg
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	svc := newAnalytics(cfg, env.store, collector)
	runner := env.newRunner(
		orchestrator.WithCache(svc.Cache()),
		orchestrator.WithRecorder(collector),
	)
	scheduler := orchestrator.NewScheduler(runner, func() config.SchedulerConfig {
		if current := config.GetConfig(); current != nil {
			return current.Scheduler
		}
		return cfg.Scheduler
	})

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCriticalCheck("storage", health.StorageCheck(env.store))

	routes := server.Routes{
		Analytics:     svc,
		Health:        checker,
		LivenessPath:  cfg.Telemetry.Health.LivenessPath,
		ReadinessPath: cfg.Telemetry.Health.ReadinessPath,
		Version:       Version,
		Commit:        GitCommit,
		BuildTime:     BuildDate,
	}
	if cfg.Telemetry.Metrics.Enabled {
		routes.Metrics = collector.Handler()
		routes.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	srv := server.NewServer(&cfg.Server, server.NewRouter(routes))

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("serve", fmt.Errorf("start scheduler: %w", err))
		}
		defer scheduler.Stop()

		// An enabled scheduler without schedules stays idle and is not probed.
		if scheduler.IsRunning() {
			checker.RegisterCheck("scheduler", health.RunningCheck("scheduler", scheduler.IsRunning))
			checker.RegisterCheck("orchestrator", health.FreshnessCheck("orchestrator", runner.LastRun, runFreshness, runFreshness))
			slog.Info("scheduler started", "next_run", scheduler.NextRun())
		}
	}

	if cfg.Watch.Enabled && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, cfg.Watch.DebounceInterval, slog.Default())
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer watcher.Stop()

		config.OnReload(applyLogging)
		go func() {
			if err := watcher.Watch(ctx, func() error { return config.ReloadConfig(cfgFile) }); err != nil {
				slog.Error("config watcher exited", "error", err)
			}
		}()
	}

	printBanner(cmd, cfg)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "✓ Server stopped")
	return nil
}

// applyLogging reinstalls the default logger after a reload so level and
// format changes take effect without a restart.
func applyLogging(cfg *config.Config) {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	if _, err := logging.Setup(logging.Config{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}); err != nil {
		slog.Warn("ignoring invalid logging configuration", "error", err)
	}
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "Steward v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(w, "✓ Configuration loaded from %s\n", cfgFile)
	}
	fmt.Fprintf(w, "✓ Storage: %s\n", cfg.Storage.Backend)
	if cfg.Scheduler.Enabled {
		fmt.Fprintln(w, "✓ Scheduler enabled")
	}
	fmt.Fprintf(w, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
