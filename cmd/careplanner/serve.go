package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dharsanguruparan/careplanner/internal/api"
	"github.com/dharsanguruparan/careplanner/internal/config"
	"github.com/dharsanguruparan/careplanner/internal/worker"
)

func newServeCmd(c *cli) *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// A separate worker process cannot see memory-backend blobs.
			enqueue := c.cfg.StorageBackend == config.BackendS3 || withWorker
			a, err := c.build(ctx, c.cfg, c.log, buildOptions{enqueue: enqueue})
			if err != nil {
				return err
			}
			defer a.Close()

			deps := api.Deps{Attachments: a.svc, Previews: a.previews}
			if a.signer != nil {
				deps.Blobs, deps.Signer = a.store, a.signer
			}
			srv := api.New(c.cfg, deps, c.log)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx) })
			if withWorker {
				g.Go(func() error { return runWorker(gctx, a) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "Also process preview jobs in this process")
	return cmd
}

func newWorkerCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the preview extraction worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.cfg.StorageBackend == config.BackendMemory {
				return errors.New("worker needs a shared object store; use serve --with-worker for the memory backend")
			}
			a, err := c.build(ctx, c.cfg, c.log, buildOptions{})
			if err != nil {
				return err
			}
			defer a.Close()
			return runWorker(ctx, a)
		},
	}
}

// runWorker processes preview jobs until ctx is cancelled.
func runWorker(ctx context.Context, a *app) error {
	if a.cfg.RedisAddr == "" {
		return errors.New("worker needs CAREPLANNER_REDIS_ADDR")
	}
	server := asynq.NewServer(redisOpt(a.cfg), asynq.Config{
		Concurrency: a.cfg.ProcessingPool,
		Logger:      a.log,
	})
	processor := worker.NewProcessor(a.store, a.previews, a.log, a.cfg.MaxFileSize)
	if err := server.Start(processor.Handler()); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	a.log.WithField("concurrency", a.cfg.ProcessingPool).Info("worker started")
	<-ctx.Done()
	server.Shutdown()
	return nil
}
