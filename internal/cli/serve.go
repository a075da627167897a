package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tgienger/todo/internal/logging"
	"github.com/tgienger/todo/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the todo REST API server",
		Long: `Run the todo REST API server that signed-in clients sync with.

Examples:
  TODO_SERVER_JWT_SECRET=change-me todo serve
  todo serve --addr :9090 --redis redis://localhost:6379/0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("redis") {
				cfg.Server.RedisURL, _ = cmd.Flags().GetString("redis")
			}

			logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, closeDB, err := server.FromConfig(ctx, cfg.Server, logger)
			if err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			defer closeDB()

			return srv.Run(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from config)")
	cmd.Flags().String("redis", "", "redis URL for the list cache")

	return cmd
}
