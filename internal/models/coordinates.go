package models

import (
	"errors"
	"fmt"
)

// ErrInvalidCoordinates is returned when a latitude or longitude is out of range.
var ErrInvalidCoordinates = errors.New("coordinates out of range")

// Coordinates represents a geographical point defined by its longitude and latitude.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`  // Latitude of the geographical point.
	Longitude float64 `json:"longitude"` // Longitude of the geographical point.
}

// Validate reports whether the point lies within [-90,90] x [-180,180].
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f", ErrInvalidCoordinates, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f", ErrInvalidCoordinates, c.Longitude)
	}

	return nil
}

// CountyDistance pairs a county with its great-circle distance from an origin.
type CountyDistance struct {
	CountyName    string
	DistanceMiles float64
}
