package projector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/guifgccc7/argosight-ingest/internal/adapter"
	"github.com/guifgccc7/argosight-ingest/internal/domain"
	"github.com/guifgccc7/argosight-ingest/internal/logger"
	"github.com/guifgccc7/argosight-ingest/internal/messaging"
	"github.com/guifgccc7/argosight-ingest/internal/store"
)

// State is the lifecycle of one view instance
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateLive
	StateTornDown
)

// SpeedBucket classifies a vessel's speed for rendering
type SpeedBucket string

const (
	BucketFast   SpeedBucket = "fast"   // > 15 kn
	BucketMedium SpeedBucket = "medium" // 5-15 kn
	BucketSlow   SpeedBucket = "slow"   // < 5 kn
)

// SpeedBucketFor returns the rendering bucket for a speed in knots.
// The fast boundary is exclusive and the medium one inclusive: 15.0 is
// medium, 5.0 is medium.
func SpeedBucketFor(knots float64) SpeedBucket {
	switch {
	case knots > 15:
		return BucketFast
	case knots >= 5:
		return BucketMedium
	default:
		return BucketSlow
	}
}

const (
	DefaultWindow             = 6 * time.Hour
	DefaultReloadInterval     = 30 * time.Second
	DefaultFreshnessThreshold = 30 * time.Minute

	// bulkLoadMaxRetries bounds the initial-load retry loop
	bulkLoadMaxRetries = 3
)

// Config holds the configuration for one live view instance
type Config struct {
	// Window is the bulk-load lookback (positions in the last N hours)
	Window time.Duration
	// ReloadInterval drives the periodic full-reload reconciliation timer
	ReloadInterval time.Duration
	// FreshnessThreshold is the age below which an entry counts as fresh
	FreshnessThreshold time.Duration
}

// Entry is one projection value handed to the rendering layer: the newest
// validated record for a vessel plus its derived rendering flags. Each entry
// maps to exactly one visual marker, keyed by MMSI.
type Entry struct {
	Record domain.PositionRecord
	Fresh  bool
	Bucket SpeedBucket
}

// Projector maintains the per-vessel "latest known position" map, kept
// consistent under out-of-order and duplicate delivery by a max-timestamp
// merge applied uniformly to the bulk-load and event paths.
type Projector struct {
	store      store.Store
	subscriber messaging.ChangeSubscriber
	clock      adapter.Clock
	config     Config

	mu      sync.RWMutex
	state   State
	entries map[string]domain.PositionRecord

	events chan domain.PositionRecord
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a projector in the Idle state
func New(st store.Store, sub messaging.ChangeSubscriber, clock adapter.Clock, cfg Config) *Projector {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.ReloadInterval <= 0 {
		cfg.ReloadInterval = DefaultReloadInterval
	}
	if cfg.FreshnessThreshold <= 0 {
		cfg.FreshnessThreshold = DefaultFreshnessThreshold
	}

	return &Projector{
		store:      st,
		subscriber: sub,
		clock:      clock,
		config:     cfg,
		entries:    make(map[string]domain.PositionRecord),
		events:     make(chan domain.PositionRecord, 100),
		done:       make(chan struct{}),
	}
}

// Start performs the initial bulk load, then goes live: it opens the change
// subscription and starts the reconciliation timer. It returns once the
// projection is live; Stop releases everything it acquired.
func (p *Projector) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateIdle {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("projector already started (state %d)", state)
	}
	p.state = StateLoading
	p.mu.Unlock()

	if err := p.bulkLoad(ctx); err != nil {
		p.mu.Lock()
		p.state = StateTornDown
		p.mu.Unlock()
		return fmt.Errorf("initial bulk load failed: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.mu.Lock()
	p.state = StateLive
	p.mu.Unlock()

	go func() {
		err := p.subscriber.SubscribeChanges(runCtx, func(event *domain.ChangeEvent) error {
			select {
			case p.events <- event.Record:
			case <-runCtx.Done():
			}
			return nil
		})
		if err != nil && runCtx.Err() == nil {
			logger.ErrorCtx(runCtx, err, zap.String("component", "projector_subscription"))
		}
	}()

	go p.run(runCtx)

	return nil
}

// run is the single event loop: notifier events, reconciliation ticks, and
// cancellation all arrive here, so merges never race each other.
func (p *Projector) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.config.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.reload(ctx)
		case record := <-p.events:
			p.merge(record)
		}
	}
}

// bulkLoad queries the recent window and reduces it to one entry per vessel.
// Transient store errors are retried with exponential backoff.
func (p *Projector) bulkLoad(ctx context.Context) error {
	operation := func() error {
		rows, err := p.store.RecentPositions(ctx, p.config.Window)
		if err != nil {
			return err
		}
		for i := range rows {
			p.merge(rows[i].Record())
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), bulkLoadMaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return err
	}

	p.mu.RLock()
	count := len(p.entries)
	p.mu.RUnlock()
	logger.InfoCtx(ctx, "Initial projection built", zap.Int("vessels", count))

	return nil
}

// reload re-runs the bulk query as a safety net against missed events.
// It merges through the same max-timestamp rule as the event path, so the
// two paths can never disagree on "latest" for a vessel.
func (p *Projector) reload(ctx context.Context) {
	rows, err := p.store.RecentPositions(ctx, p.config.Window)
	if err != nil {
		logger.WarnCtx(ctx, "Projection reload failed", zap.Error(err))
		return
	}
	for i := range rows {
		p.merge(rows[i].Record())
	}
}

// merge applies one record to the projection: coordinates are validated, and
// an entry is only replaced by a strictly newer record, which makes the final
// state independent of delivery order.
func (p *Projector) merge(record domain.PositionRecord) {
	if !record.ValidCoordinates() {
		logger.Warn("Discarding position with out-of-range coordinates",
			zap.String("mmsi", record.MMSI),
			zap.Float64("lat", record.Latitude),
			zap.Float64("lon", record.Longitude),
		)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateTornDown {
		return
	}

	existing, ok := p.entries[record.MMSI]
	if ok && !record.Timestamp.After(existing.Timestamp) {
		return
	}
	p.entries[record.MMSI] = record
}

// Stop tears the view down: the timer and subscription are released together
// and no further state mutation happens afterwards. Safe to call more than once.
func (p *Projector) Stop() {
	p.mu.Lock()
	if p.state == StateTornDown {
		p.mu.Unlock()
		return
	}
	started := p.state == StateLive
	p.state = StateTornDown
	p.mu.Unlock()

	if started {
		p.cancel()
		p.subscriber.Close()
		<-p.done
	}
}

// State returns the current lifecycle state
func (p *Projector) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Entry returns the projection entry for one vessel with freshly computed
// rendering flags
func (p *Projector) Entry(mmsi string) (Entry, bool) {
	p.mu.RLock()
	record, ok := p.entries[mmsi]
	p.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	return p.buildEntry(record), true
}

// Entries returns a copy of the projection for the rendering layer
func (p *Projector) Entries() map[string]Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]Entry, len(p.entries))
	for mmsi, record := range p.entries {
		out[mmsi] = p.buildEntry(record)
	}
	return out
}

// buildEntry computes the derived flags at read time so freshness decays
// without requiring new events. Fresh means age strictly under the threshold.
func (p *Projector) buildEntry(record domain.PositionRecord) Entry {
	return Entry{
		Record: record,
		Fresh:  p.clock.Since(record.Timestamp) < p.config.FreshnessThreshold,
		Bucket: SpeedBucketFor(record.SpeedKnots),
	}
}
