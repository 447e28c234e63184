package schema

import (
	"time"
)

// Vessel represents the vessels table - one row per distinct MMSI.
// Repeated sightings update the row in place; the ingestion path never deletes.
type Vessel struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// MMSI is the maritime identity number in string form, unique per vessel
	MMSI string `gorm:"column:mmsi;not null;uniqueIndex;type:text"`
	// Name is the display name, synthesized from the MMSI when never transmitted
	Name string `gorm:"column:name;not null;type:text"`
	// VesselType is the ship/cargo classification ("Unknown" when absent)
	VesselType string `gorm:"column:vessel_type;not null;type:text"`
	// Status is the lifecycle status, "active" while the vessel keeps reporting
	Status string `gorm:"column:status;not null;default:'active';type:text"`
	// CreatedAt is the timestamp of the first sighting
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	// UpdatedAt is the timestamp of the most recent sighting
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Positions []VesselPosition `gorm:"foreignKey:VesselID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Vessel model
func (Vessel) TableName() string {
	return "vessels"
}
