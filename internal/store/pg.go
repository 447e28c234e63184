package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/guifgccc7/argosight-ingest/internal/domain"
	"github.com/guifgccc7/argosight-ingest/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// UpsertVessel creates or updates a vessel identity keyed by MMSI.
// Conflict on the key updates name/type/status and keeps the row, so repeated
// sightings never duplicate an identity.
func (s *pgStore) UpsertVessel(ctx context.Context, input UpsertVesselInput) (*schema.Vessel, error) {
	if input.Status == "" {
		input.Status = domain.VesselStatusActive
	}

	vessel := schema.Vessel{
		MMSI:       input.MMSI,
		Name:       input.Name,
		VesselType: input.VesselType,
		Status:     input.Status,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mmsi"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "vessel_type", "status", "updated_at"}),
	}).Create(&vessel).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert vessel: %w", err)
	}

	// Some drivers do not populate the primary key on conflict-update, so
	// fetch the row when the id came back zero
	if vessel.ID == 0 {
		if err := s.db.WithContext(ctx).Where("mmsi = ?", input.MMSI).First(&vessel).Error; err != nil {
			return nil, fmt.Errorf("failed to get existing vessel: %w", err)
		}
	}

	return &vessel, nil
}

// InsertPosition appends one immutable position row
func (s *pgStore) InsertPosition(ctx context.Context, position *schema.VesselPosition) error {
	if err := s.db.WithContext(ctx).Create(position).Error; err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	return nil
}

// RecentPositions returns all positions captured within the window, newest first
func (s *pgStore) RecentPositions(ctx context.Context, window time.Duration) ([]schema.VesselPosition, error) {
	var positions []schema.VesselPosition
	cutoff := time.Now().UTC().Add(-window)

	if err := s.db.WithContext(ctx).
		Where("timestamp >= ?", cutoff).
		Order("timestamp DESC").
		Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("failed to query recent positions: %w", err)
	}

	return positions, nil
}

// LatestPosition returns the most recent position for one vessel, or nil when
// the vessel has no recorded positions
func (s *pgStore) LatestPosition(ctx context.Context, mmsi string) (*schema.VesselPosition, error) {
	var position schema.VesselPosition

	err := s.db.WithContext(ctx).
		Where("mmsi = ?", mmsi).
		Order("timestamp DESC").
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest position: %w", err)
	}

	return &position, nil
}
