package ingest_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guifgccc7/argosight-ingest/internal/domain"
	"github.com/guifgccc7/argosight-ingest/internal/ingest"
	"github.com/guifgccc7/argosight-ingest/internal/logger"
	"github.com/guifgccc7/argosight-ingest/internal/store"
	"github.com/guifgccc7/argosight-ingest/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// fakeStore records writes and can be scripted to fail per stage
type fakeStore struct {
	mu              sync.Mutex
	vessels         map[string]*schema.Vessel
	positions       []schema.VesselPosition
	nextVesselID    int64
	upsertErr       error
	insertErr       error
	upsertCallCount int
}

func newFakeStore() *fakeStore {
	return &fakeStore{vessels: make(map[string]*schema.Vessel)}
}

func (s *fakeStore) UpsertVessel(ctx context.Context, input store.UpsertVesselInput) (*schema.Vessel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCallCount++
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	vessel, ok := s.vessels[input.MMSI]
	if !ok {
		s.nextVesselID++
		vessel = &schema.Vessel{ID: s.nextVesselID, MMSI: input.MMSI}
		s.vessels[input.MMSI] = vessel
	}
	vessel.Name = input.Name
	vessel.VesselType = input.VesselType
	vessel.Status = input.Status
	return vessel, nil
}

func (s *fakeStore) InsertPosition(ctx context.Context, position *schema.VesselPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	position.ID = int64(len(s.positions) + 1)
	s.positions = append(s.positions, *position)
	return nil
}

func (s *fakeStore) RecentPositions(ctx context.Context, window time.Duration) ([]schema.VesselPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.VesselPosition{}, s.positions...), nil
}

func (s *fakeStore) LatestPosition(ctx context.Context, mmsi string) (*schema.VesselPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.positions) - 1; i >= 0; i-- {
		if s.positions[i].MMSI == mmsi {
			p := s.positions[i]
			return &p, nil
		}
	}
	return nil, nil
}

// fakePublisher records published records
type fakePublisher struct {
	mu         sync.Mutex
	published  []domain.PositionRecord
	publishErr error
	closeCh    chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{closeCh: make(chan struct{})}
}

func (p *fakePublisher) PublishPosition(ctx context.Context, record *domain.PositionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, *record)
	return nil
}

func (p *fakePublisher) Close() {}

func (p *fakePublisher) CloseChan() <-chan struct{} {
	return p.closeCh
}

// fixedClock always returns the same instant
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Since(t time.Time) time.Duration {
	return c.now.Sub(t)
}

func (c *fixedClock) After(d time.Duration) <-chan time.Time {
	return time.After(0)
}

func testReport() *domain.PositionReport {
	return &domain.PositionReport{
		UserID:             227006760,
		Latitude:           48.1173,
		Longitude:          -5.2026,
		SpeedOverGround:    12.3,
		CourseOverGround:   280.5,
		TrueHeading:        281,
		NavigationalStatus: 0,
		ShipName:           "FR TESTING",
		ShipAndCargoType:   "Cargo",
	}
}

func TestHandleReport_PersistsIdentityThenPosition(t *testing.T) {
	st := newFakeStore()
	pub := newFakePublisher()
	stats := domain.NewSessionStats()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	pipeline := ingest.NewPipeline(st, pub, stats, &fixedClock{now: now}, domain.SourceFeedAISStream)

	err := pipeline.HandleReport(context.Background(), testReport())
	require.NoError(t, err)

	// Identity row resolved first, with refreshed fields
	vessel := st.vessels["227006760"]
	require.NotNil(t, vessel)
	assert.Equal(t, "FR TESTING", vessel.Name)
	assert.Equal(t, "Cargo", vessel.VesselType)
	assert.Equal(t, domain.VesselStatusActive, vessel.Status)

	// Position row references the resolved vessel
	require.Len(t, st.positions, 1)
	position := st.positions[0]
	assert.Equal(t, vessel.ID, position.VesselID)
	assert.Equal(t, "227006760", position.MMSI)
	assert.Equal(t, 48.1173, position.Latitude)
	assert.Equal(t, -5.2026, position.Longitude)
	assert.Equal(t, 12.3, position.SpeedKnots)
	assert.Equal(t, 280.5, position.CourseDeg)
	require.NotNil(t, position.HeadingDeg)
	assert.Equal(t, 281.0, *position.HeadingDeg)
	assert.Equal(t, now, position.Timestamp)
	assert.Equal(t, domain.SourceFeedAISStream, position.SourceFeed)
	assert.Equal(t, domain.DefaultDataQuality, position.DataQuality)

	// Counters and notification
	assert.Equal(t, int64(1), stats.Processed())
	assert.Equal(t, int64(0), stats.Errors())
	require.Len(t, pub.published, 1)
	assert.Equal(t, "227006760", pub.published[0].MMSI)
}

func TestHandleReport_RepeatedSightingsReuseIdentity(t *testing.T) {
	st := newFakeStore()
	pub := newFakePublisher()
	stats := domain.NewSessionStats()
	pipeline := ingest.NewPipeline(st, pub, stats, &fixedClock{now: time.Now()}, domain.SourceFeedAISStream)

	require.NoError(t, pipeline.HandleReport(context.Background(), testReport()))
	require.NoError(t, pipeline.HandleReport(context.Background(), testReport()))
	require.NoError(t, pipeline.HandleReport(context.Background(), testReport()))

	// One identity, three history rows
	assert.Len(t, st.vessels, 1)
	assert.Len(t, st.positions, 3)
	for _, position := range st.positions {
		assert.Equal(t, st.vessels["227006760"].ID, position.VesselID)
	}
	assert.Equal(t, int64(3), stats.Processed())
}

func TestHandleReport_SynthesizesNameAndType(t *testing.T) {
	st := newFakeStore()
	pipeline := ingest.NewPipeline(st, newFakePublisher(), domain.NewSessionStats(), &fixedClock{now: time.Now()}, domain.SourceFeedAISStream)

	report := testReport()
	report.ShipName = ""
	report.ShipAndCargoType = ""
	require.NoError(t, pipeline.HandleReport(context.Background(), report))

	vessel := st.vessels["227006760"]
	require.NotNil(t, vessel)
	assert.Equal(t, "Vessel 227006760", vessel.Name)
	assert.Equal(t, domain.DefaultVesselType, vessel.VesselType)
}

func TestHandleReport_UpsertFailureIsCountedNotFatal(t *testing.T) {
	st := newFakeStore()
	st.upsertErr = errors.New("connection refused")
	pub := newFakePublisher()
	stats := domain.NewSessionStats()
	pipeline := ingest.NewPipeline(st, pub, stats, &fixedClock{now: time.Now()}, domain.SourceFeedAISStream)

	// The handler must not propagate the failure; the feed keeps delivering
	err := pipeline.HandleReport(context.Background(), testReport())
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Processed())
	assert.Equal(t, int64(1), stats.Errors())
	assert.Empty(t, st.positions)
	assert.Empty(t, pub.published)
}

func TestHandleReport_InsertFailureIsCountedNotFatal(t *testing.T) {
	st := newFakeStore()
	st.insertErr = errors.New("disk full")
	pub := newFakePublisher()
	stats := domain.NewSessionStats()
	pipeline := ingest.NewPipeline(st, pub, stats, &fixedClock{now: time.Now()}, domain.SourceFeedAISStream)

	err := pipeline.HandleReport(context.Background(), testReport())
	require.NoError(t, err)

	// Identity was written but the report does not count as processed
	assert.Len(t, st.vessels, 1)
	assert.Equal(t, int64(0), stats.Processed())
	assert.Equal(t, int64(1), stats.Errors())
	assert.Empty(t, pub.published)
}

func TestHandleReport_PublishFailureDoesNotCount(t *testing.T) {
	st := newFakeStore()
	pub := newFakePublisher()
	pub.publishErr = errors.New("nats: connection closed")
	stats := domain.NewSessionStats()
	pipeline := ingest.NewPipeline(st, pub, stats, &fixedClock{now: time.Now()}, domain.SourceFeedAISStream)

	err := pipeline.HandleReport(context.Background(), testReport())
	require.NoError(t, err)

	// The row is committed, so the report still counts as processed and the
	// publish failure is not an ingestion error
	assert.Len(t, st.positions, 1)
	assert.Equal(t, int64(1), stats.Processed())
	assert.Equal(t, int64(0), stats.Errors())
}

func TestHandleReport_HeadingNotAvailable(t *testing.T) {
	st := newFakeStore()
	pipeline := ingest.NewPipeline(st, newFakePublisher(), domain.NewSessionStats(), &fixedClock{now: time.Now()}, domain.SourceFeedAISStream)

	report := testReport()
	report.TrueHeading = domain.HeadingNotAvailable
	require.NoError(t, pipeline.HandleReport(context.Background(), report))

	require.Len(t, st.positions, 1)
	assert.Nil(t, st.positions[0].HeadingDeg)
}
