package geocoding

import "time"

// Selection is the provider chosen for one resolution request.
type Selection struct {
	Type     ProviderType
	APIKey   string
	Interval time.Duration
}

// Select picks exactly one provider. An explicitly preferred keyed provider wins
// when its key is present; otherwise LocationIQ, then Google, then Nominatim.
func Select(preferred ProviderType, locationIQKey, googleKey string) Selection {
	switch {
	case preferred == ProviderTypeLocationIQ && locationIQKey != "":
		return newSelection(ProviderTypeLocationIQ, locationIQKey)
	case preferred == ProviderTypeGoogle && googleKey != "":
		return newSelection(ProviderTypeGoogle, googleKey)
	case locationIQKey != "":
		return newSelection(ProviderTypeLocationIQ, locationIQKey)
	case googleKey != "":
		return newSelection(ProviderTypeGoogle, googleKey)
	default:
		return newSelection(ProviderTypeNominatim, "")
	}
}

func newSelection(t ProviderType, key string) Selection {
	return Selection{Type: t, APIKey: key, Interval: t.Interval()}
}
