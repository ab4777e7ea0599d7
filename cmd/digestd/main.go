package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailydigest/internal/config"
	"dailydigest/internal/digest"
	"dailydigest/internal/gemini"
	"dailydigest/internal/logger"
	"dailydigest/internal/metrics"
	"dailydigest/internal/rss"
	"dailydigest/internal/scraper"
	"dailydigest/internal/server"
	"dailydigest/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false)
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Debug)

	m := metrics.New()

	fetcher, err := rss.NewFetcher(cfg.FeedsConfig, m, cfg.FeedFetchParallel,
		time.Duration(cfg.FetchTimeoutSec)*time.Second, cfg.FreshnessWindow)
	if err != nil {
		logger.Error("feeds config load failed", "path", cfg.FeedsConfig, "error", err)
		os.Exit(1)
	}

	var llm *gemini.Client
	if cfg.AIEnabled {
		llm, err = gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingModel)
		if err != nil {
			logger.Error("gemini client init failed, continuing without AI", "error", err)
			llm = nil
		}
	} else {
		logger.Info("AI disabled, running rule-based pipeline only")
	}
	if llm != nil {
		defer llm.Close()
	}

	var archive *storage.PostgresArchive
	if cfg.PostgresDSN != "" {
		archive, err = storage.NewPostgresArchive(cfg.PostgresDSN)
		if err != nil {
			logger.Error("postgres archive init failed, continuing without archive", "error", err)
			archive = nil
		} else {
			defer archive.Close()
		}
	}

	store := storage.New(cfg.DataDir)
	enricher := digest.NewEnricher(llm, scraper.New(time.Duration(cfg.FetchTimeoutSec)*time.Second), m)
	generator := digest.NewGenerator(fetcher, enricher, store, archive, m,
		cfg.TopLimit, cfg.RebalanceEnabled, cfg.LowQualityPolicy)

	srv := server.New(cfg.Port, generator, m)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
