package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/throttle"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider wraps an initialized Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Type returns ProviderTypeGoogle.
func (gp *GoogleProvider) Type() ProviderType { return ProviderTypeGoogle }

// Geocode returns the best hit for a free-text query, or nil if there is none.
func (gp *GoogleProvider) Geocode(ctx context.Context, query string) (*models.GeocodeHit, error) {
	hits, err := gp.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}

	return first(hits), nil
}

// Search returns up to limit hits for a free-text query.
func (gp *GoogleProvider) Search(ctx context.Context, query string, limit int) ([]models.GeocodeHit, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "query", query)

	req := &maps.GeocodingRequest{
		Address:    query,
		Components: map[maps.Component]string{maps.ComponentCountry: "US"},
	}
	results, err := gp.client.Geocode(ctx, req)
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	hits := make([]models.GeocodeHit, 0, len(results))
	for _, result := range results {
		hits = append(hits, googleHit(result))
	}

	return hits, nil
}

// ReverseGeocode returns the place containing coords, or nil if there is none.
func (gp *GoogleProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.GeocodeHit, error) {
	req := &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude}}
	results, err := gp.client.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, classifyGoogleError(err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	hit := googleHit(results[0])

	return &hit, nil
}

// classifyGoogleError maps the status envelope carried in client errors onto
// the retry taxonomy. ZERO_RESULTS is not an error.
func classifyGoogleError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ZERO_RESULTS"):
		return nil
	case strings.Contains(msg, "OVER_QUERY_LIMIT"), strings.Contains(msg, "OVER_DAILY_LIMIT"):
		return fmt.Errorf("%w: google: %w", throttle.ErrRateLimited, err)
	case strings.Contains(msg, "REQUEST_DENIED"), strings.Contains(msg, "INVALID_REQUEST"):
		return fmt.Errorf("%w: google: %w", throttle.ErrPermanent, err)
	default:
		return fmt.Errorf("failed to geocode with google: %w", err)
	}
}

func googleHit(result maps.GeocodingResult) models.GeocodeHit {
	hit := models.GeocodeHit{
		Coordinates: models.Coordinates{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		},
		DisplayName: result.FormattedAddress,
	}

	for _, comp := range result.AddressComponents {
		switch {
		case slices.Contains(comp.Types, "street_number"):
			hit.Address.HouseNumber = comp.LongName
		case slices.Contains(comp.Types, "route"):
			hit.Address.Road = comp.LongName
		case slices.Contains(comp.Types, "locality"):
			hit.Address.City = comp.LongName
		case slices.Contains(comp.Types, "administrative_area_level_2"):
			hit.Address.County = comp.LongName
		case slices.Contains(comp.Types, "administrative_area_level_1"):
			hit.Address.State = comp.ShortName
		case slices.Contains(comp.Types, "postal_code"):
			hit.Address.Postcode = comp.LongName
		case slices.Contains(comp.Types, "country"):
			hit.Address.Country = comp.LongName
		}
	}

	switch {
	case slices.Contains(result.Types, "locality"):
		hit.PlaceType, hit.PlaceClass, hit.Name = "city", "place", hit.Address.City
	case slices.Contains(result.Types, "sublocality"), slices.Contains(result.Types, "neighborhood"):
		hit.PlaceType, hit.PlaceClass = "locality", "place"
	case slices.Contains(result.Types, "administrative_area_level_2"):
		hit.PlaceType, hit.PlaceClass, hit.Name = "county", "boundary", hit.Address.County
	case len(result.Types) > 0:
		hit.PlaceType = result.Types[0]
	}
	if hit.Name == "" && len(result.AddressComponents) > 0 {
		hit.Name = result.AddressComponents[0].LongName
	}

	return hit
}
