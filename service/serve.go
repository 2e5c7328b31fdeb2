package service

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"newsroom/app"
	"newsroom/app/logging"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the news site",
		Long: `Run the news site until interrupted. The store is chosen by --database-url;
PostgreSQL schemas are migrated on startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logging.Err(logger.Error(), err).Msg("startup failed")
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logging.Err(logger.Warn(), err).Msg("close store")
		}
	}()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Addr).Wrap(err)
	}
	return application.Run(ctx, ln)
}
