package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/scout/internal/geocoding"
	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/throttle"
	"github.com/jonboulle/clockwork"
)

// milesPerDegree is the length of one degree of latitude for EarthRadiusMiles.
const milesPerDegree = 3959.0 * 3.141592653589793 / 180

var baltimore = models.Coordinates{Latitude: 39.2904, Longitude: -76.6122}

// north returns a point the given number of miles due north of origin.
func north(origin models.Coordinates, miles float64) models.Coordinates {
	return models.Coordinates{Latitude: origin.Latitude + miles/milesPerDegree, Longitude: origin.Longitude}
}

type fakeProvider struct {
	kind    geocoding.ProviderType
	coords  map[string]models.Coordinates
	errs    map[string]error
	reverse *models.GeocodeHit
	search  map[string][]models.GeocodeHit

	geocodeCalls map[string]int
	searchCalls  []string
	reverseCalls int
}

func newFakeProvider(kind geocoding.ProviderType) *fakeProvider {
	return &fakeProvider{
		kind:         kind,
		coords:       make(map[string]models.Coordinates),
		errs:         make(map[string]error),
		search:       make(map[string][]models.GeocodeHit),
		geocodeCalls: make(map[string]int),
	}
}

func (f *fakeProvider) Type() geocoding.ProviderType { return f.kind }

func (f *fakeProvider) Geocode(_ context.Context, query string) (*models.GeocodeHit, error) {
	f.geocodeCalls[query]++
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	c, ok := f.coords[query]
	if !ok {
		return nil, nil
	}

	return &models.GeocodeHit{Coordinates: c, DisplayName: query}, nil
}

func (f *fakeProvider) ReverseGeocode(_ context.Context, _ models.Coordinates) (*models.GeocodeHit, error) {
	f.reverseCalls++
	return f.reverse, nil
}

func (f *fakeProvider) Search(_ context.Context, query string, _ int) ([]models.GeocodeHit, error) {
	f.searchCalls = append(f.searchCalls, query)
	if err, ok := f.errs[query]; ok {
		return nil, err
	}

	return f.search[query], nil
}

func (f *fakeProvider) totalGeocodeCalls() int {
	total := 0
	for _, n := range f.geocodeCalls {
		total += n
	}

	return total
}

// newTestExecutor returns an executor whose backoff sleeps complete instantly.
func newTestExecutor(t *testing.T) *throttle.Executor {
	t.Helper()
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		for {
			if err := clock.BlockUntilContext(ctx, 1); err != nil {
				return
			}
			clock.Advance(10 * time.Second)
		}
	}()

	return throttle.NewExecutor(slog.Default(), throttle.WithClock(clock))
}

// unpacedPacers pre-registers zero-interval pacers for every provider.
func unpacedPacers() *throttle.Pacers {
	pacers := throttle.NewPacers()
	for _, kind := range []geocoding.ProviderType{
		geocoding.ProviderTypeNominatim, geocoding.ProviderTypeLocationIQ, geocoding.ProviderTypeGoogle,
	} {
		pacers.Get(string(kind), 0)
	}

	return pacers
}

func place(name, placeType string) models.GeocodeHit {
	return models.GeocodeHit{Name: name, PlaceClass: "place", PlaceType: placeType}
}
