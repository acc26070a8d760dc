// Command librarycored serves the library record API over HTTP. Storage,
// seeding and snapshot archiving are selected through LIBRARYCORE_*
// environment variables.
package main

import (
	"context"
	"errors"
	"expvar"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"librarycore/internal/adapters/archive"
	"librarycore/internal/adapters/httpapi"
	"librarycore/internal/core"
	"librarycore/internal/infra/blob"
	s3blob "librarycore/internal/infra/blob/s3"
	"librarycore/internal/infra/metrics"
	"librarycore/pkg/domain"
)

const (
	envAddr       = "LIBRARYCORE_ADDR"
	envSeed       = "LIBRARYCORE_SEED"
	envBlobDriver = "LIBRARYCORE_BLOB_DRIVER"

	defaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "librarycored").Logger()
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := core.OpenPersistentStore()
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := store.(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil {
				logger.Error().Err(cerr).Msg("close store")
			}
		}
	}()

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(registry)
	if err != nil {
		return err
	}
	svc := core.NewService(store, core.WithMetricsRecorder(recorder))

	if os.Getenv(envSeed) == "true" {
		if err := core.SeedSampleData(ctx, svc); err != nil {
			return err
		}
		logger.Info().Msg("seeded sample records")
	}

	handler := httpapi.NewHandler(svc)
	handler.Logger = logger

	if archiver, err := buildArchiver(store); err != nil {
		return err
	} else if archiver != nil {
		handler.Archiver = archiver
		logger.Info().Str("driver", os.Getenv(envBlobDriver)).Msg("snapshot archiving enabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", handler)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())

	addr := os.Getenv(envAddr)
	if addr == "" {
		addr = defaultAddr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildArchiver wires a snapshot archiver when a blob driver is configured.
// The memory driver exists for local experimentation; s3 is the production
// target.
func buildArchiver(store domain.PersistentStore) (*archive.Archiver, error) {
	source, ok := store.(archive.SnapshotSource)
	if !ok {
		return nil, nil
	}
	switch blob.Driver(os.Getenv(envBlobDriver)) {
	case blob.DriverMemory:
		return archive.NewArchiver(source, blob.NewMemory()), nil
	case blob.DriverS3:
		blobStore, err := s3blob.OpenFromEnv(context.Background())
		if err != nil {
			return nil, err
		}
		return archive.NewArchiver(source, blobStore), nil
	case "":
		return nil, nil
	default:
		return nil, errors.New("unknown blob driver " + os.Getenv(envBlobDriver))
	}
}
