package schema

import (
	"github.com/guifgccc7/argosight-ingest/internal/domain"
)

// Record converts a stored position row into its canonical domain form,
// the shape carried by change events and the live projection.
func (p *VesselPosition) Record() domain.PositionRecord {
	return domain.PositionRecord{
		ID:          p.ID,
		VesselID:    p.VesselID,
		MMSI:        p.MMSI,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		SpeedKnots:  p.SpeedKnots,
		CourseDeg:   p.CourseDeg,
		HeadingDeg:  p.HeadingDeg,
		NavStatus:   p.NavStatus,
		Timestamp:   p.Timestamp,
		SourceFeed:  p.SourceFeed,
		DataQuality: p.DataQuality,
	}
}
