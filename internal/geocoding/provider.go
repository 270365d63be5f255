package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/throttle"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeNominatim represents the free OpenStreetMap Nominatim API.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeLocationIQ represents the keyed LocationIQ API.
	ProviderTypeLocationIQ ProviderType = "locationiq"
	// ProviderTypeGoogle represents the keyed Google Maps geocoding API.
	ProviderTypeGoogle ProviderType = "google"
)

// Interval returns the minimum spacing between two calls to the provider.
// Nominatim allows 1 req/s, so a margin is added on top.
func (t ProviderType) Interval() time.Duration {
	switch t {
	case ProviderTypeLocationIQ:
		return 1200 * time.Millisecond
	case ProviderTypeGoogle:
		return 200 * time.Millisecond
	default:
		return 1100 * time.Millisecond
	}
}

// Known reports whether t names one of the supported providers.
func (t ProviderType) Known() bool {
	return t == ProviderTypeNominatim || t.Keyed()
}

// Keyed reports whether the provider requires an API key.
func (t ProviderType) Keyed() bool {
	return t == ProviderTypeLocationIQ || t == ProviderTypeGoogle
}

// Provider resolves free-text queries and coordinates into normalized hits.
// A nil hit with a nil error means the provider answered but found nothing.
type Provider interface {
	Type() ProviderType
	Geocode(ctx context.Context, query string) (*models.GeocodeHit, error)
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.GeocodeHit, error)
	Search(ctx context.Context, query string, limit int) ([]models.GeocodeHit, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrMalformedResponse is returned when a provider answers with a payload that
// cannot be decoded. It is permanent: the same request would return the same bytes.
var ErrMalformedResponse = fmt.Errorf("%w: malformed provider response", throttle.ErrPermanent)

// statusError classifies a non-200 HTTP response.
func statusError(provider ProviderType, status int, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s API returned status %d: %s", throttle.ErrRateLimited, provider, status, body)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%s API returned status %d: %s", provider, status, body)
	default:
		return fmt.Errorf("%w: %s API returned status %d: %s", throttle.ErrPermanent, provider, status, body)
	}
}

func first(hits []models.GeocodeHit) *models.GeocodeHit {
	if len(hits) == 0 {
		return nil
	}

	return &hits[0]
}
