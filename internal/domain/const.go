package domain

const (
	// SourceFeedAISStream identifies the upstream AIS websocket integration
	SourceFeedAISStream = "aisstream"

	// MessageTypePositionReport is the only inbound message kind acted upon
	MessageTypePositionReport = "PositionReport"

	// HeadingNotAvailable is the AIS sentinel value for an unknown true heading
	HeadingNotAvailable = 511

	// DefaultVesselType is used when a report carries no ship type
	DefaultVesselType = "Unknown"

	// VesselStatusActive is the lifecycle status assigned on every sighting
	VesselStatusActive = "active"

	// DefaultDataQuality is the quality score assigned to live feed positions
	DefaultDataQuality = 1.0
)
