package models

import "strings"

// Address holds the semantic address components returned by a geocoding provider.
type Address struct {
	Road        string `json:"road,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	City        string `json:"city,omitempty"`
	County      string `json:"county,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
}

// GeocodeHit is a single provider result normalized to one shape.
type GeocodeHit struct {
	Coordinates Coordinates
	DisplayName string
	Name        string // Name is the primary name of the place, if the provider reports one.
	Address     Address
	PlaceType   string // e.g. city, town, village, administrative
	PlaceClass  string // e.g. place, boundary, highway
}

// Text returns the lower-cased address text used for substring matching.
func (h GeocodeHit) Text() string {
	parts := []string{h.DisplayName, h.Address.City, h.Address.County, h.Address.State}

	return strings.ToLower(strings.Join(parts, " | "))
}

// GeocodingSettings is the saved provider preference and API keys.
type GeocodingSettings struct {
	Provider      string
	LocationIQKey string
	GoogleKey     string
}
