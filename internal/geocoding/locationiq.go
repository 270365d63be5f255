package geocoding

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/scout/internal/models"
)

const (
	// LocationIQSearchURL is the LocationIQ forward geocoding endpoint.
	LocationIQSearchURL = "https://us1.locationiq.com/v1/search"
	// LocationIQReverseURL is the LocationIQ reverse geocoding endpoint.
	LocationIQReverseURL = "https://us1.locationiq.com/v1/reverse"
)

// ErrLocationIQEmptyKey is returned when the provider is built without an API key.
var ErrLocationIQEmptyKey = errors.New("API key is required for LocationIQ provider")

// LocationIQProvider implements geocoding using the LocationIQ API. Its payloads
// follow the Nominatim format; "nothing found" is reported as HTTP 404.
type LocationIQProvider struct {
	osm osmClient
}

// NewLocationIQProvider creates a new LocationIQ geocoding provider.
func NewLocationIQProvider(apiKey string, log *slog.Logger) (*LocationIQProvider, error) {
	const timeout = 10

	return NewLocationIQProviderWithClient(&http.Client{Timeout: timeout * time.Second}, apiKey, log)
}

// NewLocationIQProviderWithClient allows injecting custom HTTP client.
func NewLocationIQProviderWithClient(client HTTPClient, apiKey string, log *slog.Logger) (*LocationIQProvider, error) {
	if apiKey == "" {
		return nil, ErrLocationIQEmptyKey
	}

	return &LocationIQProvider{osm: osmClient{
		provider:      ProviderTypeLocationIQ,
		client:        client,
		searchURL:     LocationIQSearchURL,
		reverseURL:    LocationIQReverseURL,
		apiKey:        apiKey,
		log:           log,
		noMatchStatus: http.StatusNotFound,
	}}, nil
}

// Type returns ProviderTypeLocationIQ.
func (lp *LocationIQProvider) Type() ProviderType { return ProviderTypeLocationIQ }

// Geocode returns the best hit for a free-text query, or nil if there is none.
func (lp *LocationIQProvider) Geocode(ctx context.Context, query string) (*models.GeocodeHit, error) {
	lp.osm.log.DebugContext(ctx, "Geocoding using LocationIQ", "query", query)

	hits, err := lp.osm.search(ctx, query, 1)
	if err != nil {
		return nil, err
	}

	return first(hits), nil
}

// ReverseGeocode returns the place containing coords, or nil if there is none.
func (lp *LocationIQProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.GeocodeHit, error) {
	return lp.osm.reverse(ctx, coords)
}

// Search returns up to limit hits for a free-text query.
func (lp *LocationIQProvider) Search(ctx context.Context, query string, limit int) ([]models.GeocodeHit, error) {
	return lp.osm.search(ctx, query, limit)
}
