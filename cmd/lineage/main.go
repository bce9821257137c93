// Command lineage embeds family history for semantic search and resolves
// faces in photographs against enrolled family members.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/lineage/internal/adapters/driven/ai"
	"github.com/custodia-labs/lineage/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lineage/internal/adapters/driven/detection"
	"github.com/custodia-labs/lineage/internal/adapters/driven/metrics"
	"github.com/custodia-labs/lineage/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lineage/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lineage/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/lineage/internal/adapters/driving/cli"
	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/core/services"
	"github.com/custodia-labs/lineage/internal/logger"
	"github.com/custodia-labs/lineage/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags "-X main.version=...".
var version string

// jpegQuality is used for locally cropped face thumbnails.
const jpegQuality = 85

// identityRepository looks up and records the people faces resolve to.
type identityRepository interface {
	driven.IdentityStore
	driven.IdentityWriter
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		logger.Error("failed to open config: %v", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore,
		ai.NewConfigValidator(),
		detection.NewConfigValidator(),
	)

	settings, err := settingsService.Get()
	if err != nil {
		logger.Error("failed to load settings: %v", err)
		return 1
	}

	// The memory backend keeps identities in memory too, so nothing touches disk.
	var store *sqlite.Store
	var identities identityRepository
	if backend, err := domain.ParseVectorBackend(settings.VectorIndex.Backend); err == nil && backend == domain.VectorBackendMemory {
		identities = memory.NewIdentityStore()
	} else {
		store, err = sqlite.NewStore(settings.DataDir)
		if err != nil {
			logger.Error("failed to open data store: %v", err)
			return 1
		}
		defer store.Close()
		identities = store.IdentityStore()
	}

	embeddings := ai.NewRegistry(settings.Embedding)
	defer embeddings.Close()

	chunkIndexes := vectorindex.NewRegistry(settings.VectorIndex, store)
	defer chunkIndexes.Close()
	faceIndexes := vectorindex.NewRegistry(settings.FaceIndexSettings(), store)
	defer faceIndexes.Close()

	chunkIndex := vectorindex.Deferred(chunkIndexes, settings.VectorIndex.Backend)
	faceIndex := vectorindex.Deferred(faceIndexes, settings.VectorIndex.Backend)

	exporter := metrics.NewExporter(metrics.DefaultConfig())
	if settings.MetricsAddr != "" {
		shutdown := serveMetrics(settings.MetricsAddr, exporter.Handler())
		defer shutdown()
	}

	ingestion := services.NewIngestionService(embeddings, chunkIndex, settings.Embedding.Provider)
	ingestion.SetChunker(chunker.New(
		chunker.WithChunkSize(settings.Ingestion.ChunkSize),
		chunker.WithOverlap(settings.Ingestion.ChunkOverlap),
	))
	ingestion.SetMaxConcurrency(settings.Ingestion.MaxConcurrency)
	ingestion.SetMetrics(exporter)

	search := services.NewSearchService(embeddings, chunkIndex, settings.Embedding.Provider)

	cliServices := cli.Services{
		Ingestion: ingestion,
		Search:    search,
		Settings:  settingsService,
	}

	cropper := detection.NewCropper(jpegQuality)
	gateway, err := detection.NewGateway(detection.Config{
		BaseURL:           settings.Detection.BaseURL,
		Timeout:           settings.Detection.Timeout,
		MinFaceWidth:      settings.Detection.MinFaceWidth,
		RequestsPerSecond: settings.Detection.RequestsPerSecond,
	}, cropper)
	if err != nil {
		logger.Warn("face resolution disabled: %v", err)
	} else {
		resolution := services.NewResolutionService(
			gateway,
			embeddings,
			faceIndex,
			identities,
			settings.Resolution.EmbeddingProvider,
			settings.Resolution,
		)
		resolution.SetCropper(cropper)
		resolution.SetIdentityWriter(identities)
		resolution.SetMetrics(exporter)
		cliServices.Resolution = resolution
	}

	cli.SetServices(cliServices)
	cli.SetVersion(version)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// serveMetrics exposes handler on addr until the returned function is called.
func serveMetrics(addr string, handler http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener on %s stopped: %v", addr, err)
		}
	}()
	logger.Debug("serving metrics on %s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
