// Package cmd implements the jasp command-line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jkshenton/jasp/internal/config"
	"github.com/jkshenton/jasp/internal/observability"
)

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata injected by the linker.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate)
}

var (
	rootLogLevel string

	// appConfig is loaded once in the persistent pre-run and shared
	// by all commands.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jasp",
	Short: "Manage filesystem-driven simulation jobs",
	Long: `jasp manages long-running simulation jobs whose state lives in their
working directories: sentinel files plus a batch-queue query encode
whether a job is unconfigured, queued, running or finished, and jasp
drives the right action for each.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		appConfig = cfg

		level := cfg.Logging.Level
		if rootLogLevel != "" {
			level = rootLogLevel
		}
		return observability.Init(level)
	},
	Version: versionInfo.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level (debug|info|warn|error)")
}

// Execute runs the root command.
func Execute() error {
	defer observability.Sync()
	return rootCmd.Execute()
}

// exitCodePartialFailure is returned when some, but not all,
// directories in a batch failed.
const exitCodePartialFailure = 1

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}
