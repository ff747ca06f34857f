// Package main wires together the lead scouting service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/api"
	gcsarchive "github.com/leadscout/leadscout/internal/archive/gcs"
	memoryarchive "github.com/leadscout/leadscout/internal/archive/memory"
	"github.com/leadscout/leadscout/internal/clock/system"
	"github.com/leadscout/leadscout/internal/config"
	"github.com/leadscout/leadscout/internal/extract"
	collyfetcher "github.com/leadscout/leadscout/internal/fetcher/colly"
	"github.com/leadscout/leadscout/internal/headers"
	"github.com/leadscout/leadscout/internal/logging"
	"github.com/leadscout/leadscout/internal/metrics"
	memorynotify "github.com/leadscout/leadscout/internal/notify/memory"
	pubsubnotify "github.com/leadscout/leadscout/internal/notify/pubsub"
	"github.com/leadscout/leadscout/internal/orchestrator"
	"github.com/leadscout/leadscout/internal/retry"
	"github.com/leadscout/leadscout/internal/scout"
	"github.com/leadscout/leadscout/internal/scraper"
	"github.com/leadscout/leadscout/internal/store/postgres"
	"github.com/leadscout/leadscout/internal/synth"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	rotator := headers.New()
	fetcher := collyfetcher.New(collyfetcher.Config{Timeout: cfg.AttemptTimeout()})
	policy := retry.NewPolicy(
		cfg.HTTP.MaxAttempts,
		time.Duration(cfg.HTTP.BackoffBaseMs)*time.Millisecond,
		time.Duration(cfg.HTTP.JitterMaxMs)*time.Millisecond,
	)
	retrier := retry.NewRetrier(policy, fetcher)
	extractor := extract.New(extract.Config{
		ContainerSelectors: cfg.Extract.ContainerSelectors,
		NameSelectors:      cfg.Extract.NameSelectors,
		PhoneSelectors:     cfg.Extract.PhoneSelectors,
		MaxElements:        cfg.Extract.MaxElements,
	})
	generator := synth.New()
	clock := system.New()

	archive := buildArchive(ctx, cfg, logger)
	scrapers := buildScrapers(cfg, retrier, rotator, extractor, generator, archive)

	opts := buildIntegrations(ctx, cfg, logger)
	orch := orchestrator.New(
		orchestrator.Config{Budget: cfg.Budget(), Topic: cfg.PubSub.TopicName},
		scrapers,
		generator,
		clock,
		logger.Named("orchestrator"),
		opts...,
	)

	names := make([]string, 0, len(scrapers))
	for _, s := range scrapers {
		names = append(names, s.Name())
	}
	apiServer := api.NewServer(orch, names, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// buildScrapers assembles one Directory per configured source. Names are
// sorted so the joined source label in responses is deterministic.
func buildScrapers(
	cfg config.Config,
	fetcher scout.Fetcher,
	rotator scout.HeaderRotator,
	extractor *extract.Extractor,
	generator scout.Synthesizer,
	archive scout.BlobStore,
) []scout.SourceScraper {
	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	scrapers := make([]scout.SourceScraper, 0, len(names))
	for _, name := range names {
		scrapers = append(scrapers, scraper.New(
			scraper.Config{
				Name:               name,
				URLTemplates:       cfg.Sources[name].URLTemplates,
				AttemptTimeout:     cfg.AttemptTimeout(),
				ArchivePrefix:      cfg.Archive.Prefix,
				ArchiveContentType: cfg.Archive.ContentType,
			},
			fetcher,
			rotator,
			extractor,
			generator,
			archive,
		))
	}
	return scrapers
}

// buildArchive returns the configured blob store, or nil when archival is
// disabled.
func buildArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) scout.BlobStore {
	if !cfg.Archive.Enabled {
		return nil
	}
	switch cfg.Archive.Provider {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			logger.Warn("gcs client init failed, archival disabled", zap.Error(err))
			return nil
		}
		store, err := gcsarchive.New(client, gcsarchive.Config{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			logger.Warn("gcs archive init failed, archival disabled", zap.Error(err))
			return nil
		}
		return store
	default:
		return memoryarchive.NewBlobStore()
	}
}

// buildIntegrations wires the optional store and publisher from config.
// Either failing to initialize downgrades the service rather than aborting
// startup.
func buildIntegrations(ctx context.Context, cfg config.Config, logger *zap.Logger) []orchestrator.Option {
	var opts []orchestrator.Option
	if cfg.DB.DSN != "" {
		pool, err := postgres.Connect(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Warn("postgres init failed, persistence disabled", zap.Error(err))
		} else {
			opts = append(opts, orchestrator.WithStore(
				postgres.NewBusinessStore(pool, logger.Named("store")),
			))
		}
	}
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		client, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Warn("pubsub init failed, falling back to memory publisher", zap.Error(err))
			opts = append(opts, orchestrator.WithPublisher(memorynotify.New()))
		} else {
			opts = append(opts, orchestrator.WithPublisher(pubsubnotify.New(client)))
		}
	} else {
		// Local/dev runs still publish, just to an in-process sink.
		opts = append(opts, orchestrator.WithPublisher(memorynotify.New()))
	}
	return opts
}
