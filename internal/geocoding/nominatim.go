package geocoding

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/scout/internal/models"
)

const (
	// NominatimSearchURL is the public Nominatim search endpoint.
	NominatimSearchURL = "https://nominatim.openstreetmap.org/search"
	// NominatimReverseURL is the public Nominatim reverse endpoint.
	NominatimReverseURL = "https://nominatim.openstreetmap.org/reverse"
	// DefaultUserAgent identifies the service as required by the Nominatim usage policy:
	// https://operations.osmfoundation.org/policies/nominatim/
	DefaultUserAgent = "Scout-Coverage-Setup/1.0 (https://github.com/UnknownOlympus/scout)"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	osm osmClient
}

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(userAgent string, log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout * time.Second}, userAgent, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, userAgent string, log *slog.Logger) *NominatimProvider {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &NominatimProvider{osm: osmClient{
		provider:   ProviderTypeNominatim,
		client:     client,
		searchURL:  NominatimSearchURL,
		reverseURL: NominatimReverseURL,
		userAgent:  userAgent,
		log:        log,
	}}
}

// Type returns ProviderTypeNominatim.
func (np *NominatimProvider) Type() ProviderType { return ProviderTypeNominatim }

// Geocode returns the best hit for a free-text query, or nil if there is none.
func (np *NominatimProvider) Geocode(ctx context.Context, query string) (*models.GeocodeHit, error) {
	np.osm.log.DebugContext(ctx, "Geocoding using Nominatim", "query", query)

	hits, err := np.osm.search(ctx, query, 1)
	if err != nil {
		return nil, err
	}

	return first(hits), nil
}

// ReverseGeocode returns the place containing coords, or nil if there is none.
func (np *NominatimProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.GeocodeHit, error) {
	np.osm.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", coords.Latitude, "lon", coords.Longitude)

	return np.osm.reverse(ctx, coords)
}

// Search returns up to limit hits for a free-text query.
func (np *NominatimProvider) Search(ctx context.Context, query string, limit int) ([]models.GeocodeHit, error) {
	return np.osm.search(ctx, query, limit)
}
