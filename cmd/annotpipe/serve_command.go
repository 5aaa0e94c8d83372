package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/annotpipe/annotator"
	"github.com/kbukum/annotpipe/bootstrap"
	"github.com/kbukum/annotpipe/config"
	"github.com/kbukum/annotpipe/observability"
	"github.com/kbukum/annotpipe/server"
	"github.com/kbukum/annotpipe/stage"
	"github.com/kbukum/annotpipe/version"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline host and its HTTP API",
		Long: "Starts every stage of the configured pipeline and serves the annotate API.\n" +
			"A crashed stage terminates the host with exit status 64.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.AppConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	shutdown, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.Get().Short(), cfg.Environment)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	app.OnStop(func(ctx context.Context) error { return shutdown(ctx) })

	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	if cfg.Pipeline.LockFile != "" {
		if err := app.RegisterComponent(newHostLock(cfg.Pipeline.LockFile)); err != nil {
			return err
		}
	}

	svc := annotator.NewService(cfg.Pipeline, stage.Builtins(),
		annotator.WithLogger(log),
		annotator.WithMetrics(metrics),
	)
	if err := app.RegisterComponent(svc); err != nil {
		return err
	}

	srv := server.New(cfg.Server, log,
		server.WithServiceName(cfg.Name),
		server.WithMetrics(metrics),
	)
	srv.RegisterRoutes(server.Routes{
		Service:       cfg.Name,
		Annotator:     svc,
		Pipeline:      svc,
		Health:        app.Components.HealthAll,
		EventInterval: cfg.Pipeline.PollInterval,
	})
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	return app.Run(ctx)
}
