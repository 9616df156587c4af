package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"puzzle-gateway/internal/config"
	"puzzle-gateway/internal/observability"
)

type rootFlags struct {
	configFile string
	logLevel   string
	addr       string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "gateway",
		Short:         "Escape-room game API with request rate limiting",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default ./config/puzzle-gateway.yaml if present)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	serve.Flags().StringVar(&flags.addr, "addr", "", "listen address override")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serve, versionCmd)
	return root
}

func (f rootFlags) overrides() map[string]any {
	o := map[string]any{}
	if f.logLevel != "" {
		o["logging.level"] = f.logLevel
	}
	if f.addr != "" {
		o["server.addr"] = f.addr
	}
	return o
}

func runServe(parent context.Context, flags rootFlags) error {
	cfg, err := config.Load(flags.configFile, flags.overrides())
	if err != nil {
		return err
	}
	if err := observability.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}
	defer observability.Sync()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := buildApp(ctx, cfg, observability.Logger)
	if err != nil {
		return err
	}
	defer app.Close()

	observability.Logger.Info("gateway starting",
		zap.String("version", version),
		zap.String("ratelimit_backend", cfg.RateLimit.Backend),
		zap.Int("ratelimit_max", cfg.RateLimit.MaxRequests),
		zap.Duration("ratelimit_window", cfg.RateLimit.Window),
		zap.Bool("namespace_routes", cfg.RateLimit.NamespaceRoutes),
		zap.Bool("stats", cfg.Stats.Enabled),
		zap.Bool("store", cfg.Store.Enabled()),
		zap.String("frontend", cfg.Frontend.UpstreamURL))

	return app.Server.Run(ctx, cfg.Server)
}
