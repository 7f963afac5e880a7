package main

import (
	"os/signal"
	"syscall"

	"github.com/dropDatabas3/socialgate/internal/app"
	"github.com/dropDatabas3/socialgate/internal/config"
	"github.com/dropDatabas3/socialgate/internal/http/server"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/spf13/cobra"
)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the gateway HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := app.Build(ctx, cfg, app.Options{})
			if err != nil {
				return err
			}
			defer c.Close()

			logger.L().Info("starting gateway",
				logger.String("addr", cfg.Server.Addr),
				logger.String("env", cfg.App.Env),
				logger.String("version", cfg.App.Version),
			)
			return server.Run(ctx, server.Config{
				Addr:            cfg.Server.Addr,
				ShutdownTimeout: config.MustDuration(cfg.Server.ShutdownTimeout),
			}, c.Handler)
		},
	}
}
