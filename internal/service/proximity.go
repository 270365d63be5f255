package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/UnknownOlympus/scout/internal/geo"
	"github.com/UnknownOlympus/scout/internal/geocoding"
	"github.com/UnknownOlympus/scout/internal/metrics"
	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/throttle"
)

const (
	// DefaultRadiusMiles is used when no radius is configured.
	DefaultRadiusMiles = 20.0
	// maxCandidateCounties bounds the provider calls of one resolution.
	maxCandidateCounties = 50
)

// ResolveResult is the outcome of a proximity resolution.
type ResolveResult struct {
	Counties     []string                // Counties within the radius, nearest first.
	CenterCounty string                  // CenterCounty contains the origin; empty if unknown.
	Distances    []models.CountyDistance // Distances of the kept counties, same order as Counties minus a prepended center.
}

// Resolver finds the counties within a radius of a point using one provider.
type Resolver struct {
	provider geocoding.Provider
	pacer    *throttle.Pacer
	exec     *throttle.Executor
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewResolver creates a resolver bound to one provider and its pacer.
func NewResolver(
	provider geocoding.Provider,
	pacer *throttle.Pacer,
	exec *throttle.Executor,
	log *slog.Logger,
	metrics *metrics.Metrics,
) *Resolver {
	return &Resolver{provider: provider, pacer: pacer, exec: exec, log: log, metrics: metrics}
}

// Resolve returns the counties of a state lying within radiusMiles of origin.
// Counties whose geocoding fails are logged and omitted; Resolve never fails
// because of a single county.
func (r *Resolver) Resolve(
	ctx context.Context,
	sess *Session,
	origin models.Coordinates,
	stateCode string,
	countyNames []string,
	radiusMiles float64,
) ResolveResult {
	if radiusMiles <= 0 {
		radiusMiles = DefaultRadiusMiles
	}

	center, found := throttle.Do(ctx, r.exec, r.pacer, func(ctx context.Context) (*models.GeocodeHit, error) {
		return r.provider.ReverseGeocode(ctx, origin)
	})
	if found {
		sess.center = matchCenterCounty(center, countyNames)
	}
	if sess.center != "" {
		r.log.DebugContext(ctx, "Center county found", "county", sess.center)
	}

	candidates := countyNames
	if len(candidates) > maxCandidateCounties {
		r.log.InfoContext(ctx, "Capping candidate counties",
			"state", stateCode, "total", len(candidates), "cap", maxCandidateCounties)
		candidates = candidates[:maxCandidateCounties]
	}

	r.geocodeCounties(ctx, sess, stateCode, candidates)

	kept := make([]models.CountyDistance, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, county := range candidates {
		coords, ok := sess.Coordinates(county)
		if !ok || seen[county] {
			continue
		}
		seen[county] = true

		distance := geo.Distance(origin, coords)
		if distance <= radiusMiles {
			kept = append(kept, models.CountyDistance{CountyName: county, DistanceMiles: distance})
		}
	}
	slices.SortStableFunc(kept, func(a, b models.CountyDistance) int {
		return cmp.Compare(a.DistanceMiles, b.DistanceMiles)
	})

	names := make([]string, 0, len(kept)+1)
	for _, cd := range kept {
		names = append(names, cd.CountyName)
	}
	if sess.center != "" && !slices.Contains(names, sess.center) {
		names = append([]string{sess.center}, names...)
	}

	r.log.InfoContext(ctx, "Counties resolved",
		"state", stateCode,
		"provider", r.provider.Type(),
		"candidates", len(candidates),
		"geocoded", sess.CachedCounties(),
		"within_radius", len(names))

	return ResolveResult{Counties: names, CenterCounty: sess.center, Distances: kept}
}

// geocodeCounties fills the session cache, one paced call per uncached county.
func (r *Resolver) geocodeCounties(ctx context.Context, sess *Session, stateCode string, candidates []string) {
	attempted := make(map[string]bool, len(candidates))
	for _, county := range candidates {
		if ctx.Err() != nil {
			r.log.WarnContext(ctx, "Resolution cancelled", "error", ctx.Err())
			return
		}
		if _, ok := sess.Coordinates(county); ok || attempted[county] {
			continue
		}
		attempted[county] = true

		query := countyQuery(county, stateCode)
		hit, ok := throttle.Do(ctx, r.exec, r.pacer, func(ctx context.Context) (*models.GeocodeHit, error) {
			return r.provider.Geocode(ctx, query)
		})
		switch {
		case !ok:
			r.log.WarnContext(ctx, "Skipping county after geocoding failure", "county", county, "query", query)
			r.skipped("counties")
		case hit == nil:
			r.log.DebugContext(ctx, "County not found by provider", "county", county, "query", query)
		default:
			sess.cache(county, hit.Coordinates)
		}
	}
}

func (r *Resolver) skipped(operation string) {
	if r.metrics != nil {
		r.metrics.SkippedItems.WithLabelValues(operation).Inc()
	}
}
