package schema

import (
	"time"
)

// VesselPosition represents the vessel_positions table - append-only position
// history. Rows are immutable once inserted; retention is an external concern.
type VesselPosition struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// VesselID references the owning vessels row, resolved before insertion
	VesselID int64 `gorm:"column:vessel_id;not null;index"`
	// MMSI duplicates the owning vessel's identity key for subscriber routing
	MMSI string `gorm:"column:mmsi;not null;type:text;index:idx_positions_mmsi_timestamp,priority:1"`
	// Latitude in decimal degrees, -90..90
	Latitude float64 `gorm:"column:latitude;not null"`
	// Longitude in decimal degrees, -180..180
	Longitude float64 `gorm:"column:longitude;not null"`
	// SpeedKnots is the speed over ground in knots
	SpeedKnots float64 `gorm:"column:speed_knots;not null"`
	// CourseDeg is the course over ground in degrees, 0-360
	CourseDeg float64 `gorm:"column:course_deg;not null"`
	// HeadingDeg is the true heading in degrees, nil when not transmitted
	HeadingDeg *float64 `gorm:"column:heading_deg"`
	// NavStatus is the AIS navigational status code
	NavStatus int `gorm:"column:nav_status;not null"`
	// Timestamp is the server-assigned capture time
	Timestamp time.Time `gorm:"column:timestamp;not null;index;index:idx_positions_mmsi_timestamp,priority:2"`
	// SourceFeed identifies the originating integration
	SourceFeed string `gorm:"column:source_feed;not null;type:text"`
	// DataQuality is a 0.0-1.0 quality score, 1.0 for live feed data
	DataQuality float64 `gorm:"column:data_quality;not null;default:1.0"`
}

// TableName specifies the table name for the VesselPosition model
func (VesselPosition) TableName() string {
	return "vessel_positions"
}
