package domain

import "errors"

var (
	// ErrMissingCredential is returned when a feed session is started without an API key
	ErrMissingCredential = errors.New("feed credential is missing")

	// ErrInvalidCoordinates is returned when a position carries an out-of-range lat/lon
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrVesselNotFound is returned when a vessel lookup by MMSI finds no row
	ErrVesselNotFound = errors.New("vessel not found")
)
