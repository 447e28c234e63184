package domain

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Envelope is the inbound message wrapper received from the AIS feed.
// Only PositionReport messages are acted upon; every other kind is ignored.
type Envelope struct {
	MessageType string  `json:"messageType"`
	Message     Message `json:"message"`
}

// Message holds the per-kind sub-objects of an envelope
type Message struct {
	PositionReport *PositionReport `json:"positionReport,omitempty"`
}

// PositionReport is a single decoded vessel position observation
type PositionReport struct {
	UserID             int64   `json:"userId"` // MMSI as transmitted by the transponder
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	SpeedOverGround    float64 `json:"speedOverGround"`  // knots
	CourseOverGround   float64 `json:"courseOverGround"` // degrees, 0-360
	TrueHeading        int     `json:"trueHeading"`      // degrees, 511 = not available
	NavigationalStatus int     `json:"navigationalStatus"`
	ShipName           string  `json:"shipName,omitempty"`
	ShipAndCargoType   string  `json:"shipAndCargoType,omitempty"`
}

// MMSI returns the report's maritime identity number in its canonical string form
func (r *PositionReport) MMSI() string {
	return strconv.FormatInt(r.UserID, 10)
}

// Heading returns the true heading in degrees, or nil when not available
func (r *PositionReport) Heading() *float64 {
	if r.TrueHeading == HeadingNotAvailable || r.TrueHeading < 0 || r.TrueHeading > 360 {
		return nil
	}
	h := float64(r.TrueHeading)
	return &h
}

// VesselName returns the report's ship name, falling back to a synthesized
// name derived from the MMSI when absent
func (r *PositionReport) VesselName() string {
	if name := strings.TrimSpace(r.ShipName); name != "" {
		return name
	}
	return SynthesizedVesselName(r.MMSI())
}

// VesselType returns the report's ship and cargo type, falling back to Unknown
func (r *PositionReport) VesselType() string {
	if t := strings.TrimSpace(r.ShipAndCargoType); t != "" {
		return t
	}
	return DefaultVesselType
}

// SynthesizedVesselName builds a display name for vessels that never
// transmitted a ship name
func SynthesizedVesselName(mmsi string) string {
	return "Vessel " + mmsi
}

// PositionRecord is the canonical representation of a stored position row.
// It is the payload carried by change events and held by the live projection.
type PositionRecord struct {
	ID          int64     `json:"id"`
	VesselID    int64     `json:"vessel_id"`
	MMSI        string    `json:"mmsi"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	SpeedKnots  float64   `json:"speed_knots"`
	CourseDeg   float64   `json:"course_deg"`
	HeadingDeg  *float64  `json:"heading_deg,omitempty"`
	NavStatus   int       `json:"nav_status"`
	Timestamp   time.Time `json:"timestamp"` // server-assigned capture time
	SourceFeed  string    `json:"source_feed"`
	DataQuality float64   `json:"data_quality"` // 0.0-1.0
}

// ValidCoordinates reports whether the record's latitude and longitude are in range
func (r *PositionRecord) ValidCoordinates() bool {
	return r.Latitude >= -90 && r.Latitude <= 90 &&
		r.Longitude >= -180 && r.Longitude <= 180
}

// ChangeEventInsert is the event kind emitted for every committed position row
const ChangeEventInsert = "INSERT"

// ChangeEvent is the payload delivered to change-notifier subscribers.
// The schema and table names exist for routing only.
type ChangeEvent struct {
	Type   string         `json:"type"`
	Schema string         `json:"schema"`
	Table  string         `json:"table"`
	Record PositionRecord `json:"record"`
}

// SessionStats holds the processed/error counters for one ingestion session.
// Counters are session-scoped and passed explicitly, never ambient, so
// concurrent sessions cannot leak into each other.
type SessionStats struct {
	processed atomic.Int64
	errors    atomic.Int64
}

// NewSessionStats creates zeroed counters for a new session
func NewSessionStats() *SessionStats {
	return &SessionStats{}
}

// IncProcessed increments the processed counter and returns the running total
func (s *SessionStats) IncProcessed() int64 {
	return s.processed.Add(1)
}

// IncErrors increments the error counter and returns the running total
func (s *SessionStats) IncErrors() int64 {
	return s.errors.Add(1)
}

// Processed returns the number of reports fully persisted so far
func (s *SessionStats) Processed() int64 {
	return s.processed.Load()
}

// Errors returns the number of per-report failures so far
func (s *SessionStats) Errors() int64 {
	return s.errors.Load()
}

// Report builds the final session status object used for operational logging
func (s *SessionStats) Report(credentialPresent bool) SessionReport {
	return SessionReport{
		ProcessedCount:    s.Processed(),
		ErrorCount:        s.Errors(),
		CredentialPresent: credentialPresent,
	}
}

// SessionReport is the exit status of one feed session
type SessionReport struct {
	ProcessedCount    int64 `json:"processed_count"`
	ErrorCount        int64 `json:"error_count"`
	CredentialPresent bool  `json:"credential_present"`
}
