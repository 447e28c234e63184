package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guifgccc7/argosight-ingest/internal/domain"
	"github.com/guifgccc7/argosight-ingest/internal/logger"
	"github.com/guifgccc7/argosight-ingest/internal/messaging"
)

// DefaultSessionDuration bounds an ingestion session when none is configured
const DefaultSessionDuration = 10 * time.Minute

// Config holds the configuration for one ingestion session
type Config struct {
	// Duration is the hard session limit; the feed connection is force-closed
	// when it elapses
	Duration time.Duration
	// CredentialPresent is carried into the final session report for
	// operational logging
	CredentialPresent bool
}

// Session pairs one feed subscription with one pipeline and owns the
// session-scoped counters
type Session struct {
	id       string
	feed     messaging.FeedSubscriber
	pipeline *Pipeline
	stats    *domain.SessionStats
	config   Config
}

// NewSession creates a new bounded ingestion session
func NewSession(feed messaging.FeedSubscriber, pipeline *Pipeline, stats *domain.SessionStats, cfg Config) *Session {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultSessionDuration
	}
	return &Session{
		id:       uuid.NewString(),
		feed:     feed,
		pipeline: pipeline,
		stats:    stats,
		config:   cfg,
	}
}

// Run drives the feed through the pipeline until the session duration elapses
// or the transport fails, then reports final counters. Expiry is a normal end,
// not an error.
func (s *Session) Run(ctx context.Context) (domain.SessionReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Duration)
	defer cancel()

	logger.InfoCtx(ctx, "Starting ingestion session",
		zap.String("session_id", s.id),
		zap.Duration("duration", s.config.Duration),
	)

	err := s.feed.SubscribeReports(ctx, func(report *domain.PositionReport) error {
		return s.pipeline.HandleReport(ctx, report)
	})
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		err = nil
	}

	report := s.stats.Report(s.config.CredentialPresent)
	logger.Info("Ingestion session finished",
		zap.String("session_id", s.id),
		zap.Int64("processed", report.ProcessedCount),
		zap.Int64("errors", report.ErrorCount),
		zap.Bool("credential_present", report.CredentialPresent),
	)

	return report, err
}
