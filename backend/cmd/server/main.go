package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"newsgraph/backend/internal/api"
	"newsgraph/backend/internal/extract"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/ingest"
	"newsgraph/backend/internal/mirror"
	"newsgraph/backend/internal/postag"
	"newsgraph/backend/pkg/config"
	"newsgraph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting news graph server...", zap.String("env", cfg.Env))

	if err := os.MkdirAll(filepath.Dir(cfg.GraphStorePath), 0o755); err != nil {
		log.Fatal("Failed to create graph store directory", zap.Error(err))
	}

	// A corrupt snapshot must stop startup rather than serve a partial graph
	store, err := graph.NewStore(cfg.GraphStorePath, graph.WithBaseIRI(cfg.GraphBaseIRI))
	if err != nil {
		log.Fatal("Failed to load graph store", zap.String("path", cfg.GraphStorePath), zap.Error(err))
	}

	extractor, err := extract.FromConfig(cfg)
	if err != nil {
		log.Fatal("Failed to create entity extractor", zap.Error(err))
	}

	opts := []ingest.Option{
		ingest.WithExtractor(extractor),
		ingest.WithBatchConcurrency(cfg.BatchConcurrency),
		ingest.WithDefaults(ingest.Defaults{
			Enabled:  cfg.FillDefaults,
			Title:    cfg.DefaultTitle,
			Source:   cfg.DefaultSource,
			Category: cfg.DefaultCategory,
		}),
	}

	ctx := context.Background()
	if cfg.Neo4jEnabled {
		m, err := mirror.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			log.Fatal("Failed to connect Neo4j mirror", zap.Error(err))
		}
		defer m.Close(context.Background())

		if err := m.EnsureConstraints(ctx); err != nil {
			log.Warn("Failed to create some constraints (may already exist)", zap.Error(err))
		}
		opts = append(opts, ingest.WithMirror(m))
		log.Info("Neo4j mirror enabled", zap.String("uri", cfg.Neo4jURI))
	}

	pipeline := ingest.NewPipeline(store, opts...)
	tagger := postag.NewTagger(cfg.POSModelPath)

	router := api.NewRouter(api.NewHandler(pipeline, tagger), log, cfg.IsProduction())

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("extractor", cfg.Extractor),
		zap.Int("nodes", store.Len()),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush anything a failed write left behind
	if store.Dirty() {
		if err := store.Persist(); err != nil {
			log.Error("Failed to persist graph on shutdown", zap.Error(err))
		}
	}

	log.Info("Server exited")
}
