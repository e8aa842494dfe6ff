package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wind-power-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/wind-power-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wind-power-etl/internal/adapter/kafka"
	"github.com/couchcryptid/wind-power-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/wind-power-etl/internal/config"
	"github.com/couchcryptid/wind-power-etl/internal/observability"
	"github.com/couchcryptid/wind-power-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	files, err := config.LoadManifest(cfg.ManifestPath)
	if err != nil {
		logger.Error("failed to load farm manifest", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opener csvfile.Opener = csvfile.NewDirOpener(cfg.InputDir)
	loaders := []pipeline.Loader{csvfile.NewFileWriter(cfg.OutputPath, logger)}

	// Object storage replaces the input directory and adds an upload sink.
	if cfg.S3.Enabled() {
		store, err := objectstore.New(cfg.S3)
		if err != nil {
			logger.Error("failed to create object store client", "error", err)
			return 1
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Error("failed to prepare bucket", "bucket", cfg.S3.Bucket, "error", err)
			return 1
		}
		opener = store
		loaders = append(loaders, store.Uploader(cfg.S3.OutputKey, logger))
		logger.Info("object storage enabled", "bucket", cfg.S3.Bucket, "input_prefix", cfg.S3.InputPrefix)
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "batch_size", cfg.KafkaBatchSize)
	} else {
		logger.Info("kafka sink disabled")
	}

	reader := csvfile.NewReader(opener, files, cfg.StrictRows, logger, metrics)
	transformer := pipeline.NewTransformer(cfg.ScreenedFields, logger)
	p := pipeline.New(reader, transformer, loaders, logger, metrics, pipeline.WithLoadRetries(cfg.LoadRetries))

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	runErr := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx)
		runErr <- err
	}()

	code := 0
	select {
	case err := <-runErr:
		if err != nil {
			logger.Error("pipeline error", "error", err)
			code = 1
		}
		if !cfg.ExitOnComplete {
			<-ctx.Done()
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return code
}
