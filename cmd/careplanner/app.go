package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/careplanner/internal/attachments"
	"github.com/dharsanguruparan/careplanner/internal/config"
	"github.com/dharsanguruparan/careplanner/internal/database"
	"github.com/dharsanguruparan/careplanner/internal/queue"
	"github.com/dharsanguruparan/careplanner/internal/repository"
	"github.com/dharsanguruparan/careplanner/internal/s3storage"
	"github.com/dharsanguruparan/careplanner/internal/signing"
	"github.com/dharsanguruparan/careplanner/internal/storage"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	svc      *attachments.Service
	store    storage.ObjectStore
	previews repository.PreviewStore
	// signer is set for the memory backend only.
	signer  *signing.Signer
	closers []func() error
}

type buildOptions struct {
	// enqueue wires the asynq publisher so uploads schedule a preview job.
	enqueue bool
}

type appFactory func(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts buildOptions) (*app, error)

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("close")
		}
	}
	a.closers = nil
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// buildApp connects the index and object store selected by the config.
func buildApp(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts buildOptions) (*app, error) {
	a := &app{cfg: cfg, log: log}
	var index repository.Index

	switch cfg.StorageBackend {
	case config.BackendMemory:
		a.signer = signing.NewSigner(cfg.SigningSecret)
		mem := repository.NewMemoryIndex()
		a.store = storage.NewMemoryStore(a.signer, cfg.PublicBaseURL)
		index, a.previews = mem, mem
		log.Warn("memory backend: attachments are lost on exit")
	default:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := database.EnsureSchema(ctx, pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo := repository.NewAttachmentRepository(pool)
		index, a.previews = repo, repo

		s3, err := s3storage.New(cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init storage: %w", err)
		}
		a.store = s3
	}

	if err := a.store.EnsureBucket(ctx, cfg.Bucket); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	svcOpts := attachments.Options{
		Bucket:            cfg.Bucket,
		CacheControl:      cfg.CacheControl,
		SignedURLTTL:      cfg.SignedURLTTL,
		MaxFileSize:       cfg.MaxFileSize,
		AllowedExtensions: cfg.AllowedExtensions,
		Logger:            log,
	}
	if opts.enqueue && cfg.RedisAddr != "" {
		client := asynq.NewClient(redisOpt(cfg))
		a.closers = append(a.closers, client.Close)
		svcOpts.Queue = queue.NewPublisher(client)
	}
	a.svc = attachments.NewService(index, a.store, svcOpts)
	return a, nil
}
