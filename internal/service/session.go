package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/UnknownOlympus/scout/internal/models"
)

// Session is the state of one resolution request: the county coordinate cache
// and the set of towns found so far. Create one with NewSession per incoming
// request and drop it when the response is written. A Session is not safe for
// concurrent use and must never be shared between requests.
type Session struct {
	coords map[string]models.Coordinates
	towns  map[string]struct{}
	center string
}

// NewSession returns an empty request-scoped session.
func NewSession() *Session {
	return &Session{
		coords: make(map[string]models.Coordinates),
		towns:  make(map[string]struct{}),
	}
}

// Coordinates returns the cached coordinate of a county.
func (s *Session) Coordinates(county string) (models.Coordinates, bool) {
	c, ok := s.coords[county]
	return c, ok
}

// CachedCounties returns how many counties have a cached coordinate.
func (s *Session) CachedCounties() int {
	return len(s.coords)
}

// CenterCounty returns the county containing the origin, if one was found.
func (s *Session) CenterCounty() string {
	return s.center
}

func (s *Session) cache(county string, c models.Coordinates) {
	s.coords[county] = c
}

func (s *Session) addTown(name string) {
	s.towns[name] = struct{}{}
}

// Towns returns the collected town names. Identity is exact-string; ordering
// is case-insensitive with the raw string as tie-breaker.
func (s *Session) Towns() []string {
	towns := make([]string, 0, len(s.towns))
	for name := range s.towns {
		towns = append(towns, name)
	}
	slices.SortFunc(towns, func(a, b string) int {
		if c := cmp.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	return towns
}
