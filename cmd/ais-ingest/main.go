package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/guifgccc7/argosight-ingest/internal/adapter"
	"github.com/guifgccc7/argosight-ingest/internal/config"
	"github.com/guifgccc7/argosight-ingest/internal/domain"
	"github.com/guifgccc7/argosight-ingest/internal/feed"
	"github.com/guifgccc7/argosight-ingest/internal/ingest"
	"github.com/guifgccc7/argosight-ingest/internal/logger"
	"github.com/guifgccc7/argosight-ingest/internal/notifier"
	"github.com/guifgccc7/argosight-ingest/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIngestConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "ais-ingest",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting AIS Ingest")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()
	wsDialer := adapter.NewWSDialer()

	// Initialize NATS change-event publisher
	natsPublisher, err := notifier.NewPublisher(
		ctx,
		notifier.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, natsJS, jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer natsPublisher.Close()
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	// Session-scoped counters
	stats := domain.NewSessionStats()

	// Initialize feed client
	credentialPresent := cfg.Feed.APIKey != ""
	feedClient, err := feed.NewClient(feed.Config{
		URL:           cfg.Feed.URL,
		APIKey:        cfg.Feed.APIKey,
		BoundingBoxes: cfg.Feed.BoundingBoxes,
		IdleTimeout:   cfg.Feed.IdleTimeout,
	}, wsDialer, jsonAdapter, stats)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create feed client", zap.Error(err), zap.Bool("credential_present", credentialPresent))
	}
	defer feedClient.Close()

	// Create pipeline and bounded session
	pipeline := ingest.NewPipeline(dataStore, natsPublisher, stats, clockAdapter, domain.SourceFeedAISStream)
	session := ingest.NewSession(feedClient, pipeline, stats, ingest.Config{
		Duration:          cfg.Session.Duration,
		CredentialPresent: credentialPresent,
	})

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	type sessionResult struct {
		report domain.SessionReport
		err    error
	}
	resultCh := make(chan sessionResult, 1)

	// Run the session
	go func() {
		report, err := session.Run(ctx)
		resultCh <- sessionResult{report: report, err: err}
	}()

	// Wait for session end, shutdown signal, or NATS loss
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
		<-resultCh
	case <-natsPublisher.CloseChan():
		logger.InfoCtx(ctx, "NATS connection closed unexpectedly")
		cancel()
		<-resultCh
	case result := <-resultCh:
		if result.err != nil {
			logger.ErrorCtx(ctx, result.err, zap.String("component", "session"))
		}
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("AIS Ingest stopped")
}
