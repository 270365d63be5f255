package service

import (
	"strings"

	"github.com/UnknownOlympus/scout/internal/models"
)

var countySuffixes = []string{" county", " city", " parish", " borough", " municipality"}

// countyLabel returns the county name as used in queries: "Howard" becomes
// "Howard County" while "Baltimore City" and "Baltimore County" are kept.
func countyLabel(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range countySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return name
		}
	}

	return name + " County"
}

func countyQuery(name, state string) string {
	return countyLabel(name) + ", " + state + ", USA"
}

// baseCountyName strips a trailing " County" for loose comparison.
func baseCountyName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(name), " county") {
		return name[:len(name)-len(" county")]
	}

	return name
}

// matchCenterCounty finds which of names the reverse geocoded hit lies in.
// An exact match on the county component wins; otherwise the longest name found
// as a case-insensitive substring of the address text is used.
func matchCenterCounty(hit *models.GeocodeHit, names []string) string {
	if hit == nil {
		return ""
	}

	if hit.Address.County != "" {
		for _, name := range names {
			if strings.EqualFold(baseCountyName(name), baseCountyName(hit.Address.County)) {
				return name
			}
		}
	}

	text := hit.Text()
	best := ""
	for _, name := range names {
		if strings.Contains(text, strings.ToLower(name)) && len(name) > len(best) {
			best = name
		}
	}

	return best
}
