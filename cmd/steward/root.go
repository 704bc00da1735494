package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"courseware-hq/steward/pkg/cli"
	"courseware-hq/steward/pkg/config"
	"courseware-hq/steward/pkg/telemetry/logging"
)

const defaultConfigFile = "steward.yaml"

var (
	// Global flags
	cfgFile      string
	envFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Steward - course lifecycle governance",
	Long: `Steward keeps a course catalog healthy. It scores courses, moves pending
audits through the review workflow, and purges stale data under a
configurable retention policy.

Every batch command supports --dry-run, which reports what would change
without touching the database.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and exits with the code matching its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with STEWARD_* overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "output format (table, json, csv)")
}

// setup loads the dotenv file and the configuration, then installs the
// default logger. It runs before every subcommand except version and
// completion.
func setup(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
		return cli.NewConfigError("env-file", err.Error())
	}

	path, err := resolveConfigPath(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return cli.NewConfigError("config", err.Error())
	}
	cfgFile = path

	if err := config.Initialize(path); err != nil {
		return cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	if _, err := logging.Setup(logging.Config{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	return nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// resolveConfigPath returns the file to load. When the default file does
// not exist and no path was given, configuration comes from defaults and
// the environment only.
func resolveConfigPath(path string, explicit bool) (string, error) {
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return path, nil
}

// skipSetup replaces setup for commands that need no configuration.
func skipSetup(cmd *cobra.Command, args []string) error {
	return nil
}
