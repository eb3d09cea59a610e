package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatrelay-server/internal/app"
	"github.com/vovakirdan/chatrelay-server/internal/config"
	"github.com/vovakirdan/chatrelay-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		logLevel   string
	)

	defaults := config.Default()

	cmd := &cobra.Command{
		Use:          "chatrelay-server",
		Short:        "Real-time group chat relay over WebSocket",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLog := log.New(logLevel)

			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return err
			}

			overrides := config.Config{}
			if cmd.Flags().Changed("addr") {
				overrides.Addr = addr
			}
			if cmd.Flags().Changed("log-level") {
				overrides.LogLevel = logLevel
			}
			cfg.UpdateFrom(overrides)

			logger := log.New(cfg.LogLevel)
			logger.Info().
				Str("config", path).
				Str("addr", cfg.Addr).
				Msg("starting chatrelay server")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", defaults.Addr, "HTTP listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")

	return cmd
}
