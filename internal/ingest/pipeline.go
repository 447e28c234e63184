package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/guifgccc7/argosight-ingest/internal/adapter"
	"github.com/guifgccc7/argosight-ingest/internal/domain"
	"github.com/guifgccc7/argosight-ingest/internal/logger"
	"github.com/guifgccc7/argosight-ingest/internal/messaging"
	"github.com/guifgccc7/argosight-ingest/internal/store"
	"github.com/guifgccc7/argosight-ingest/internal/store/schema"
)

// Pipeline turns decoded position reports into durable storage writes with
// correct ordering: the identity upsert must complete before the position
// insert, so no position row is ever stored without a resolved vessel
// reference. Errors are per-report and non-fatal.
type Pipeline struct {
	store     store.Store
	publisher messaging.Publisher
	stats     *domain.SessionStats
	clock     adapter.Clock
	feedName  string
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(
	st store.Store,
	pub messaging.Publisher,
	stats *domain.SessionStats,
	clock adapter.Clock,
	feedName string,
) *Pipeline {
	return &Pipeline{
		store:     st,
		publisher: pub,
		stats:     stats,
		clock:     clock,
		feedName:  feedName,
	}
}

// HandleReport processes one decoded report. It always returns nil so the
// feed keeps delivering; failures are counted and logged instead.
func (p *Pipeline) HandleReport(ctx context.Context, report *domain.PositionReport) error {
	mmsi := report.MMSI()

	vessel, err := p.store.UpsertVessel(ctx, store.UpsertVesselInput{
		MMSI:       mmsi,
		Name:       report.VesselName(),
		VesselType: report.VesselType(),
		Status:     domain.VesselStatusActive,
	})
	if err != nil {
		p.stats.IncErrors()
		logger.ErrorCtx(ctx, err, zap.String("mmsi", mmsi), zap.String("stage", "upsert_vessel"))
		return nil
	}

	position := &schema.VesselPosition{
		VesselID:    vessel.ID,
		MMSI:        mmsi,
		Latitude:    report.Latitude,
		Longitude:   report.Longitude,
		SpeedKnots:  report.SpeedOverGround,
		CourseDeg:   report.CourseOverGround,
		HeadingDeg:  report.Heading(),
		NavStatus:   report.NavigationalStatus,
		Timestamp:   p.clock.Now().UTC(),
		SourceFeed:  p.feedName,
		DataQuality: domain.DefaultDataQuality,
	}

	if err := p.store.InsertPosition(ctx, position); err != nil {
		p.stats.IncErrors()
		logger.ErrorCtx(ctx, err, zap.String("mmsi", mmsi), zap.String("stage", "insert_position"))
		return nil
	}

	total := p.stats.IncProcessed()
	logger.InfoCtx(ctx, "Stored position report",
		zap.String("mmsi", mmsi),
		zap.Float64("lat", report.Latitude),
		zap.Float64("lon", report.Longitude),
		zap.Int64("total", total),
	)

	// Notification is best-effort: the row is already committed, so a publish
	// failure is logged but not counted against the session
	record := position.Record()
	if err := p.publisher.PublishPosition(ctx, &record); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("mmsi", mmsi), zap.String("stage", "publish_event"))
	}

	return nil
}
