package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"courseware-hq/steward/pkg/analytics"
	"courseware-hq/steward/pkg/cli"
	"courseware-hq/steward/pkg/config"
	"courseware-hq/steward/pkg/course/storage"
	"courseware-hq/steward/pkg/orchestrator"
	"courseware-hq/steward/pkg/policy"
	"courseware-hq/steward/pkg/scoring"
)

// environment bundles what every command needs: the configuration loaded
// by setup, an open storage backend and the output writer.
type environment struct {
	cfg   *config.Config
	store storage.Backend
	out   *cli.Output
}

func openEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		cfg = config.Default()
	}

	out, err := cli.NewOutput(cmd.OutOrStdout(), outputFormat, verbose)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, cli.NewCommandError(cmd.Name(), err)
	}

	return &environment{cfg: cfg, store: store, out: out}, nil
}

func (e *environment) Close() {
	if err := e.store.Close(); err != nil {
		slog.Warn("failed to close storage", "error", err)
	}
}

func openStore(cfg *config.Config) (storage.Backend, error) {
	sc := cfg.Storage.SQLite
	return storage.Open(cfg.Storage.Backend, &storage.SQLiteConfig{
		Path:         sc.Path,
		Driver:       sc.Driver,
		MaxOpenConns: sc.MaxOpenConns,
		MaxIdleConns: sc.MaxIdleConns,
		WALMode:      sc.WALMode,
		BusyTimeout:  sc.BusyTimeout,
	})
}

// policySource layers the system_config table over the policy section of
// the current configuration. The configuration is read on every lookup so
// that reloads apply to the next run.
func policySource(store storage.Backend) policy.Source {
	file := policy.SourceFunc(func(key string) (any, bool) {
		cfg := config.GetConfig()
		if cfg == nil {
			return nil, false
		}
		v, ok := cfg.PolicyValues()[key]
		return v, ok
	})
	return policy.Layered(store, file)
}

// newAnalytics builds the reporting service. recorder may be nil.
func newAnalytics(cfg *config.Config, store storage.Backend, recorder analytics.CacheRecorder) *analytics.Service {
	key, err := scoring.ParseSortKey(cfg.Analytics.DefaultSortKey)
	if err != nil {
		key = scoring.DefaultSortKey
	}
	cache := analytics.NewCache(analytics.CacheName, analytics.CacheConfig{
		TTL:        cfg.Analytics.CacheTTL,
		MaxEntries: cfg.Analytics.CacheMaxEntries,
	}, recorder)

	return analytics.NewService(store,
		analytics.WithDefaults(key, cfg.Analytics.DefaultLimit),
		analytics.WithCache(cache),
	)
}

// newRunner builds an orchestrator runner over the environment's store.
func (e *environment) newRunner(opts ...orchestrator.Option) *orchestrator.Runner {
	return orchestrator.NewRunner(e.store, policySource(e.store), opts...)
}

// finishRun renders report and converts failures into the command error.
func (e *environment) finishRun(report *orchestrator.RunReport) error {
	if err := e.out.Render(report); err != nil {
		return cli.NewCommandError("render", err)
	}
	return cli.CheckRun(report)
}
