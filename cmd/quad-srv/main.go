package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/go-sod/quad/internal/api"
	"github.com/go-sod/quad/internal/buildinfo"
	quad "github.com/go-sod/quad/internal/config"
	"github.com/go-sod/quad/internal/logging"
	"github.com/go-sod/quad/internal/server"
	"github.com/go-sod/quad/internal/setup"
	"github.com/go-sod/quad/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	defer done()

	logger := logging.NewLoggerFromEnv()
	ctx = logging.WithLogger(ctx, logger)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	config := quad.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	manager, err := env.ProvideIndex()()
	if err != nil {
		return fmt.Errorf("index provider function error: %w", err)
	}
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("index.Run: %w", err)
	}
	defer manager.Stop()

	opts := []api.Option{api.WithHandler("/health", server.HandleHealth(ctx))}
	if h := env.Metrics(); h != nil {
		opts = append(opts, api.WithHandler("/metrics", h))
	}
	router, err := api.NewRouter(ctx, config.APIConfig(), manager, opts...)
	if err != nil {
		return fmt.Errorf("api.NewRouter: %w", err)
	}

	srv, err := server.New(config.SrvAddr, server.WithMaxConns(config.MaxConns))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	logger.Infof("listening on %s", srv.Addr())

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return srv.ServeHTTPHandler(grpCtx, router)
	})

	return grp.Wait()
}
