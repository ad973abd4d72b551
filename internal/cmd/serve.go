package cmd

import (
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/jkshenton/jasp/internal/observability"
	"github.com/jkshenton/jasp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve read-only job status over HTTP",
	Long: `Start the status server. Every endpoint is classification-only:
nothing under the served roots is created, deleted or submitted.

Endpoints:
  GET /healthz          liveness
  GET /api/v1/jobs      classified job directories (?root=, ?recursive=1)

Examples:
  jasp serve
  JASP_SERVER_PORT=9090 jasp serve`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind address (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q, err := newQueue()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid queue configuration", err)
	}

	cfg := appConfig.Server
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	srv := server.New(cfg, q, observability.CLILogger)
	if err := srv.ListenAndServe(ctx); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Status server failed", err)
	}
	return nil
}
