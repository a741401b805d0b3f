package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docgen/internal/adapter/repo"
	"docgen/internal/broker"
	"docgen/internal/infra"
	"docgen/internal/pipeline"
	"docgen/internal/render"
	"docgen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	store, err := storage.NewObjectStore(ctx, cfg.StorageBucket, cfg.SignedURLExpiry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: object store setup failed")
	}
	defer store.Close()

	transport, err := broker.NewTransport(cfg, broker.NewWatermillLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: broker connection failed")
	}
	defer transport.Publisher.Close()
	defer transport.Subscriber.Close()

	documents := repo.NewDocumentRepository(pool)
	artifacts := repo.NewArtifactRepository(pool)
	templates := repo.NewTemplateRepository(pool)

	renderer := render.NewRenderer(
		render.NewTemplateCache(),
		render.NewPandoc(cfg.PandocPath, logger),
		logger,
	)
	orchestrator := pipeline.New(documents, artifacts, templates, store, renderer, logger)

	publisher := broker.NewResponsePublisher(transport.Publisher, cfg.ResponseTopic, logger)
	consumer := broker.NewConsumer(
		transport.Subscriber,
		publisher,
		orchestrator,
		cfg.RequestTopic,
		cfg.MaxConcurrentMessages,
		cfg.ReceiveBackoff,
		logger,
	)

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
