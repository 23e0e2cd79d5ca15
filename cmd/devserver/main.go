// Command devserver runs a local carelink backend for development and for
// trying the carelink CLI.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kochabx/carelink/app"
	"github.com/kochabx/carelink/core/auth/jwt"
	"github.com/kochabx/carelink/core/rate"
	"github.com/kochabx/carelink/internal/conf"
	"github.com/kochabx/carelink/internal/devserver"
	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/store/redis"
	transport "github.com/kochabx/carelink/transport/http"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "devserver",
		Short:         "Run a local carelink backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./carelink.yaml if present)")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("devserver failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := conf.LoadServer(configPath)
	if err != nil {
		return err
	}

	logger, err := log.FromConfig(cfg.Log)
	if err != nil {
		return err
	}
	log.SetGlobalLogger(logger)

	opts := []devserver.Option{devserver.WithLogger(logger)}
	application := app.New(app.WithContext(ctx), app.WithLogger(logger))
	// released last, after everything that may still log
	_ = application.OnClose("logger", func(context.Context) error { return logger.Close() })
	health := transport.HealthOption{Enabled: true}

	if cfg.Server.Revocation == devserver.RevocationRedis {
		rdb, err := redis.New(ctx, &cfg.Server.Redis, redis.WithLogger(logger))
		if err != nil {
			return err
		}
		opts = append(opts,
			devserver.WithBlacklist(jwt.NewRedisBlacklist(rdb.UniversalClient(), "")),
			devserver.WithLoginLimiter(rate.NewSlidingWindowLimiter(rdb.UniversalClient(), "", cfg.Server.LoginWindow, cfg.Server.LoginLimit)),
		)
		health.Check = rdb.Ping
		_ = application.OnClose("redis", func(context.Context) error { return rdb.Close() })
	}

	srv, err := devserver.New(&cfg.Server, opts...)
	if err != nil {
		return err
	}

	httpServer := transport.NewServer(cfg.Server.Addr, srv.Engine(),
		transport.WithMeta(transport.Meta{Name: "devserver"}),
		transport.WithMetricsOptions(cfg.Metrics),
		transport.WithHealthOptions(health),
	)
	if err := application.AddServer(httpServer); err != nil {
		return err
	}
	return application.Start()
}
