package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/scout/internal/counties"
	"github.com/UnknownOlympus/scout/internal/geocoding"
	"github.com/UnknownOlympus/scout/internal/metrics"
	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/repository"
	"github.com/UnknownOlympus/scout/internal/throttle"
)

// ErrPrecondition is returned when a request is malformed. No provider is called.
var ErrPrecondition = errors.New("invalid request")

// CountiesRequest asks for the counties around a point.
type CountiesRequest struct {
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	StateCode         string   `json:"stateCode"`
	PreferredProvider string   `json:"preferredProvider,omitempty"`
	LocationIQKey     string   `json:"locationIqKey,omitempty"`
	GoogleKey         string   `json:"googleMapsKey,omitempty"`
}

// CountiesResponse lists the counties within the radius, nearest first.
type CountiesResponse struct {
	Counties     []string `json:"counties"`
	CenterCounty *string  `json:"centerCounty"`
	RadiusMiles  float64  `json:"radiusMiles"`
	Provider     string   `json:"provider"`
}

// TownsRequest asks for the towns inside a set of counties.
type TownsRequest struct {
	Counties  []string `json:"counties"`
	StateCode string   `json:"stateCode"`
	APIKey    string   `json:"apiKey,omitempty"`
}

// TownsResponse lists towns sorted case-insensitively.
type TownsResponse struct {
	Success bool     `json:"success"`
	Towns   []string `json:"towns"`
	Count   int      `json:"count"`
}

// GeocodingService answers county and town requests. Pacers and the executor
// are shared by all requests; everything else lives in a per-request Session.
type GeocodingService struct {
	log         *slog.Logger
	dataset     *counties.Dataset
	settings    repository.Interface
	factory     geocoding.Factory
	pacers      *throttle.Pacers
	exec        *throttle.Executor
	metrics     *metrics.Metrics
	radiusMiles float64
	userAgent   string
}

// Option configures a GeocodingService.
type Option func(*GeocodingService)

// WithFactory replaces the provider factory.
func WithFactory(factory geocoding.Factory) Option {
	return func(gs *GeocodingService) { gs.factory = factory }
}

// WithPacers replaces the shared pacer registry.
func WithPacers(pacers *throttle.Pacers) Option {
	return func(gs *GeocodingService) { gs.pacers = pacers }
}

// WithRadius sets the search radius in miles.
func WithRadius(miles float64) Option {
	return func(gs *GeocodingService) {
		if miles > 0 {
			gs.radiusMiles = miles
		}
	}
}

// WithUserAgent sets the User-Agent sent to Nominatim.
func WithUserAgent(userAgent string) Option {
	return func(gs *GeocodingService) { gs.userAgent = userAgent }
}

// NewGeocodingService creates a new instance of GeocodingService.
func NewGeocodingService(
	log *slog.Logger,
	dataset *counties.Dataset,
	settings repository.Interface,
	exec *throttle.Executor,
	metrics *metrics.Metrics,
	opts ...Option,
) *GeocodingService {
	gs := &GeocodingService{
		log:         log,
		dataset:     dataset,
		settings:    settings,
		factory:     geocoding.NewProvider,
		pacers:      throttle.NewPacers(),
		exec:        exec,
		metrics:     metrics,
		radiusMiles: DefaultRadiusMiles,
	}
	for _, opt := range opts {
		opt(gs)
	}

	return gs
}

// ResolveCounties returns the counties within the configured radius of a point.
func (gs *GeocodingService) ResolveCounties(ctx context.Context, req CountiesRequest) (*CountiesResponse, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", ErrPrecondition)
	}
	state := strings.ToUpper(strings.TrimSpace(req.StateCode))
	if state == "" {
		return nil, fmt.Errorf("%w: stateCode is required", ErrPrecondition)
	}
	origin := models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	names, ok := gs.dataset.Counties(state)
	if !ok {
		return nil, fmt.Errorf("%w: no county data for state %s", ErrPrecondition, state)
	}

	saved := gs.loadSettings(ctx)
	selection := geocoding.Select(
		gs.preference(ctx, req.PreferredProvider, saved.Provider),
		firstNonEmpty(req.LocationIQKey, saved.LocationIQKey),
		firstNonEmpty(req.GoogleKey, saved.GoogleKey),
	)
	provider, err := gs.provider(selection)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", selection.Type, err)
	}

	defer gs.track("counties")()
	resolver := NewResolver(provider, gs.pacers.Get(string(selection.Type), selection.Interval), gs.exec, gs.log, gs.metrics)
	result := resolver.Resolve(ctx, NewSession(), origin, state, names, gs.radiusMiles)

	resp := &CountiesResponse{
		Counties:    result.Counties,
		RadiusMiles: gs.radiusMiles,
		Provider:    string(selection.Type),
	}
	if result.CenterCounty != "" {
		center := result.CenterCounty
		resp.CenterCounty = &center
	}

	return resp, nil
}

// EnumerateTowns returns the towns inside the requested counties.
func (gs *GeocodingService) EnumerateTowns(ctx context.Context, req TownsRequest) (*TownsResponse, error) {
	if len(req.Counties) == 0 {
		return nil, fmt.Errorf("%w: at least one county is required", ErrPrecondition)
	}
	state := strings.ToUpper(strings.TrimSpace(req.StateCode))
	if state == "" {
		return nil, fmt.Errorf("%w: stateCode is required", ErrPrecondition)
	}
	if _, ok := gs.dataset.Counties(state); !ok {
		return nil, fmt.Errorf("%w: no county data for state %s", ErrPrecondition, state)
	}

	free, err := gs.provider(geocoding.Select(geocoding.ProviderTypeNominatim, "", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create nominatim provider: %w", err)
	}

	enrichKey := req.APIKey
	if enrichKey == "" {
		enrichKey = gs.loadSettings(ctx).LocationIQKey
	}

	defer gs.track("towns")()
	enumerator := NewEnumerator(free, gs.factory, gs.pacers, gs.exec, gs.log, gs.metrics)
	towns := enumerator.Enumerate(ctx, NewSession(), req.Counties, state, enrichKey)

	return &TownsResponse{Success: true, Towns: towns, Count: len(towns)}, nil
}

// preference returns the first known provider name among the requested and saved
// ones, compared case-insensitively. Unknown names are logged and ignored.
func (gs *GeocodingService) preference(ctx context.Context, names ...string) geocoding.ProviderType {
	for _, name := range names {
		t := geocoding.ProviderType(strings.ToLower(strings.TrimSpace(name)))
		switch {
		case t == "":
			continue
		case t.Known():
			return t
		default:
			gs.log.WarnContext(ctx, "Ignoring unknown preferred provider", "provider", name)
		}
	}

	return ""
}

func (gs *GeocodingService) provider(selection geocoding.Selection) (geocoding.Provider, error) {
	return gs.factory(geocoding.ProviderConfig{
		Type:      selection.Type,
		APIKey:    selection.APIKey,
		UserAgent: gs.userAgent,
		Logger:    gs.log,
	})
}

// loadSettings reads the configuration store. A failing store is not fatal:
// the request falls back to whatever the caller supplied.
func (gs *GeocodingService) loadSettings(ctx context.Context) models.GeocodingSettings {
	if gs.settings == nil {
		return models.GeocodingSettings{}
	}
	settings, err := gs.settings.LoadGeocodingSettings(ctx)
	if err != nil {
		gs.log.WarnContext(ctx, "Failed to load saved geocoding settings", "error", err)
		return models.GeocodingSettings{}
	}

	return settings
}

func (gs *GeocodingService) track(operation string) func() {
	if gs.metrics == nil {
		return func() {}
	}
	start := time.Now()
	gs.metrics.ResolutionsRunning.Inc()

	return func() {
		gs.metrics.ResolutionsRunning.Dec()
		gs.metrics.ResolutionSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
