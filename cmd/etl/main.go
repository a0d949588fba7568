package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/world-risk-etl/internal/adapter/file"
	httpadapter "github.com/couchcryptid/world-risk-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/world-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/world-risk-etl/internal/adapter/memory"
	"github.com/couchcryptid/world-risk-etl/internal/adapter/remote"
	"github.com/couchcryptid/world-risk-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/world-risk-etl/internal/config"
	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/couchcryptid/world-risk-etl/internal/observability"
	"github.com/couchcryptid/world-risk-etl/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var extractor pipeline.Extractor
	if cfg.SourceURL != "" {
		extractor = remote.NewClient(cfg.SourceURL, cfg.SourceTimeout, cfg.SourceRetries, metrics, logger)
		logger.Info("extracting from url", "url", cfg.SourceURL, "retries", cfg.SourceRetries)
	} else {
		extractor = file.NewSource(cfg.SourcePath)
		logger.Info("extracting from file", "path", cfg.SourcePath)
	}

	names := domain.GermanCountryNames()
	ingestor := domain.NewIngestor(
		domain.WithSchema(cfg.Schema),
		domain.WithBinding(cfg.Binding),
		domain.WithDelimiter(cfg.Delimiter),
		domain.WithCountryNames(names),
	)
	transformer := pipeline.NewTransformer(ingestor, cfg.FailurePolicy, logger)

	store := memory.NewStore()
	loaders := []pipeline.Loader{store}

	if cfg.SQLitePath != "" {
		archive, err := sqlite.Open(cfg.SQLitePath, cfg.SQLiteKeep)
		if err != nil {
			return err
		}
		defer archive.Close() //nolint:errcheck // best effort on exit

		warmStart(ctx, archive, store, cfg.Schema, logger)
		loaders = append(loaders, archive)
		logger.Info("sqlite archive enabled", "path", cfg.SQLitePath, "keep", cfg.SQLiteKeep)
	}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(extractor, transformer, loaders, logger, metrics, cfg.RefreshInterval)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:         cfg.HTTPAddr,
		Schema:       cfg.Schema,
		Names:        names,
		CacheTTL:     cfg.CacheTTL,
		CacheSize:    cfg.CacheSize,
		RateLimitRPS: cfg.RateLimitRPS,
	}, store, p, metrics, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
