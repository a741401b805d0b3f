package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docgen/internal/adapter/repo"
	"docgen/internal/http/handlers"
	"docgen/internal/http/httpapi"
	"docgen/internal/infra"
	"docgen/internal/pipeline"
	"docgen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.ServiceName)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	store, err := storage.NewObjectStore(ctx, cfg.StorageBucket, cfg.SignedURLExpiry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: object store setup failed")
	}
	defer store.Close()

	documents := repo.NewDocumentRepository(pool)
	artifacts := repo.NewArtifactRepository(pool)
	templates := repo.NewTemplateRepository(pool)

	// The API reuses the pipeline only for the combined document + object
	// delete path; rendering never runs here.
	remover := pipeline.New(documents, artifacts, templates, store, nil, logger)

	app := &handlers.App{
		Documents: documents,
		Artifacts: artifacts,
		Links:     store,
		Remover:   remover,
		Logger:    logger,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	go func() {
		logger.Info().Msgf("api: listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	logger.Info().Msg("api: server stopped")
}
