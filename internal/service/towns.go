package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/UnknownOlympus/scout/internal/geocoding"
	"github.com/UnknownOlympus/scout/internal/metrics"
	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/throttle"
)

const (
	maxTownCounties   = 10
	maxEnrichCounties = 5
	townSearchLimit   = 40
)

var populatedPlaceTypes = map[string]bool{
	"city":         true,
	"town":         true,
	"village":      true,
	"municipality": true,
	"hamlet":       true,
	"locality":     true,
}

// Enumerator lists the towns inside a set of counties.
type Enumerator struct {
	free    geocoding.Provider
	factory geocoding.Factory
	pacers  *throttle.Pacers
	exec    *throttle.Executor
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewEnumerator creates an enumerator that queries free and, when a key is
// supplied, enriches through a LocationIQ provider built by factory.
func NewEnumerator(
	free geocoding.Provider,
	factory geocoding.Factory,
	pacers *throttle.Pacers,
	exec *throttle.Executor,
	log *slog.Logger,
	metrics *metrics.Metrics,
) *Enumerator {
	return &Enumerator{free: free, factory: factory, pacers: pacers, exec: exec, log: log, metrics: metrics}
}

// Enumerate collects populated places for up to the first ten counties and
// returns them deduplicated and sorted case-insensitively. Failed queries are
// skipped; an empty result is not an error.
func (e *Enumerator) Enumerate(
	ctx context.Context,
	sess *Session,
	countyNames []string,
	stateCode string,
	enrichKey string,
) []string {
	counties := countyNames
	if len(counties) > maxTownCounties {
		counties = counties[:maxTownCounties]
	}

	freePacer := e.pacers.Get(string(e.free.Type()), e.free.Type().Interval())
	for _, county := range counties {
		for _, query := range townQueries(county, stateCode) {
			if ctx.Err() != nil {
				e.log.WarnContext(ctx, "Town enumeration cancelled", "error", ctx.Err())
				return sess.Towns()
			}
			e.collect(ctx, sess, e.free, freePacer, query, countyNames)
		}
	}

	if enrichKey != "" {
		e.enrich(ctx, sess, counties, stateCode, enrichKey, countyNames)
	}

	towns := sess.Towns()
	e.log.InfoContext(ctx, "Towns enumerated", "state", stateCode, "counties", len(counties), "towns", len(towns))

	return towns
}

// enrich queries a few counties once each against the keyed provider. Errors are ignored.
func (e *Enumerator) enrich(ctx context.Context, sess *Session, counties []string, stateCode, key string, all []string) {
	provider, err := e.factory(geocoding.ProviderConfig{
		Type:   geocoding.ProviderTypeLocationIQ,
		APIKey: key,
		Logger: e.log,
	})
	if err != nil {
		e.log.WarnContext(ctx, "Enrichment provider unavailable", "error", err)
		return
	}

	if len(counties) > maxEnrichCounties {
		counties = counties[:maxEnrichCounties]
	}
	pacer := e.pacers.Get(string(provider.Type()), provider.Type().Interval())
	for _, county := range counties {
		if ctx.Err() != nil {
			return
		}
		e.collect(ctx, sess, provider, pacer, "cities in "+countyLabel(county)+", "+stateCode, all)
	}
}

func (e *Enumerator) collect(
	ctx context.Context,
	sess *Session,
	provider geocoding.Provider,
	pacer *throttle.Pacer,
	query string,
	countyNames []string,
) {
	hits, ok := throttle.Do(ctx, e.exec, pacer, func(ctx context.Context) ([]models.GeocodeHit, error) {
		return provider.Search(ctx, query, townSearchLimit)
	})
	if !ok {
		e.log.WarnContext(ctx, "Skipping town query after provider failure", "provider", provider.Type(), "query", query)
		if e.metrics != nil {
			e.metrics.SkippedItems.WithLabelValues("towns").Inc()
		}
		return
	}

	for _, hit := range hits {
		if name, keep := townName(hit, countyNames); keep {
			sess.addTown(name)
		}
	}
}

func townQueries(county, stateCode string) []string {
	label := countyLabel(county)

	return []string{
		label + ", " + stateCode + ", USA",
		"cities in " + label + ", " + stateCode,
		"towns in " + label + ", " + stateCode,
	}
}

// townName returns the name of a populated-place hit and whether to keep it.
func townName(hit models.GeocodeHit, countyNames []string) (string, bool) {
	if hit.PlaceClass != "place" && !populatedPlaceTypes[hit.PlaceType] {
		return "", false
	}

	name := strings.TrimSpace(hit.Name)
	if name == "" {
		name = strings.TrimSpace(hit.Address.City)
	}
	if utf8.RuneCountInString(name) <= 1 || isCountyName(name, countyNames) {
		return "", false
	}

	return name, true
}

func isCountyName(name string, countyNames []string) bool {
	if strings.HasSuffix(strings.ToLower(name), " county") {
		return true
	}
	for _, county := range countyNames {
		if strings.EqualFold(name, countyLabel(county)) {
			return true
		}
	}

	return false
}
