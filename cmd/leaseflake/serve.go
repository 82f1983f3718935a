package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/internal/bootstrap"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP ID service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, loader, err := flags.load(ctx)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			app, err := bootstrap.NewApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(context.Background()); err != nil {
					app.Logger.Error("shutdown failed", clog.Error(err))
				}
			}()

			if err := bootstrap.WatchLogLevel(ctx, loader, app.Logger); err != nil {
				app.Logger.Warn("log level hot reload disabled", clog.Error(err))
			}
			app.Logger.Info("leaseflake starting",
				clog.String("addr", cfg.Server.Addr),
				clog.String("store", cfg.Store.Driver),
				clog.Int("worker_bits", cfg.IDGen.WorkerBits),
				clog.String("config_file", loader.ConfigFileUsed()))
			return app.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}
