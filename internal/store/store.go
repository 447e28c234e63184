package store

import (
	"context"
	"time"

	"github.com/guifgccc7/argosight-ingest/internal/store/schema"
)

// UpsertVesselInput carries the identity fields refreshed on every sighting
type UpsertVesselInput struct {
	MMSI       string
	Name       string
	VesselType string
	Status     string
}

// Store defines the interface for live-state database operations.
// The ingestion and view components depend only on this contract, not on any
// particular storage engine.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// UpsertVessel creates or updates the identity row keyed by MMSI and
	// returns the resolved row including its internal id
	UpsertVessel(ctx context.Context, input UpsertVesselInput) (*schema.Vessel, error)
	// InsertPosition appends one position row; the vessel reference must
	// already be resolved
	InsertPosition(ctx context.Context, position *schema.VesselPosition) error
	// RecentPositions returns all positions captured within the window,
	// ordered by capture timestamp descending
	RecentPositions(ctx context.Context, window time.Duration) ([]schema.VesselPosition, error)
	// LatestPosition returns the most recent position for one vessel
	LatestPosition(ctx context.Context, mmsi string) (*schema.VesselPosition, error)
}
