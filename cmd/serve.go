package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"roomop/internal/app"
)

var (
	serveDebug      bool
	serveSilent     bool
	serveConfigPath string
	serveSpecPath   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the room reconciliation operator",
	Long: `Starts the operator: loads and watches the room spec file, reconciles the
room periodically and on spec changes, and serves the HTTP API with the
event stream, audit queries, room status and metrics.

The operator keeps running until interrupted (Ctrl+C).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := app.NewApplication(&app.Config{
		Debug:      serveDebug,
		Silent:     serveSilent,
		ConfigPath: serveConfigPath,
		SpecPath:   serveSpecPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&serveSilent, "silent", false, "Suppress all log output")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Operator configuration file path")
	serveCmd.Flags().StringVar(&serveSpecPath, "spec", "", "Room spec file path (overrides the configured one)")
}
