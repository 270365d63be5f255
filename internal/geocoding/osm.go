package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/scout/internal/models"
)

// osmClient issues requests against the Nominatim-compatible search and reverse
// endpoints shared by Nominatim and LocationIQ.
type osmClient struct {
	provider   ProviderType
	client     HTTPClient
	searchURL  string
	reverseURL string
	userAgent  string
	apiKey     string
	log        *slog.Logger
	// noMatchStatus is the status the provider uses for "nothing found", 0 if none.
	noMatchStatus int
}

// osmPlace represents one element of the JSON response.
type osmPlace struct {
	Lat         string     `json:"lat"`
	Lon         string     `json:"lon"`
	DisplayName string     `json:"display_name"`
	Name        string     `json:"name"`
	Class       string     `json:"class"`
	Type        string     `json:"type"`
	AddressType string     `json:"addresstype"`
	Address     osmAddress `json:"address"`
	Error       string     `json:"error"`
}

type osmAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Hamlet       string `json:"hamlet"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
}

func (c *osmClient) search(ctx context.Context, query string, limit int) ([]models.GeocodeHit, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")
	params.Set("countrycodes", "us")

	body, found, err := c.get(ctx, c.searchURL, params)
	if err != nil || !found {
		return nil, err
	}

	var places []osmPlace
	if err = json.Unmarshal(body, &places); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse search response", "provider", c.provider, "error", err)
		return nil, fmt.Errorf("%w: decode %s search: %w", ErrMalformedResponse, c.provider, err)
	}

	hits := make([]models.GeocodeHit, 0, len(places))
	for _, place := range places {
		hit, ok := place.toHit()
		if !ok {
			c.log.DebugContext(ctx, "Skipping result with invalid coordinates",
				"provider", c.provider, "lat", place.Lat, "lon", place.Lon)
			continue
		}
		hits = append(hits, hit)
	}
	if len(hits) == 0 && len(places) > 0 {
		return nil, fmt.Errorf("%w: %s returned invalid coordinates", ErrMalformedResponse, c.provider)
	}

	c.log.DebugContext(ctx, "Search finished", "provider", c.provider, "query", query, "hits", len(hits))

	return hits, nil
}

func (c *osmClient) reverse(ctx context.Context, coords models.Coordinates) (*models.GeocodeHit, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', 6, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("zoom", "10")

	body, found, err := c.get(ctx, c.reverseURL, params)
	if err != nil || !found {
		return nil, err
	}

	var place osmPlace
	if err = json.Unmarshal(body, &place); err != nil {
		return nil, fmt.Errorf("%w: decode %s reverse: %w", ErrMalformedResponse, c.provider, err)
	}
	if place.Error != "" {
		c.log.DebugContext(ctx, "Reverse geocoding found nothing", "provider", c.provider, "reason", place.Error)
		return nil, nil
	}

	hit, ok := place.toHit()
	if !ok {
		return nil, fmt.Errorf("%w: %s returned invalid coordinates", ErrMalformedResponse, c.provider)
	}

	return &hit, nil
}

// get performs the request. found is false when the provider signalled "no match"
// through its status code.
func (c *osmClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, bool, error) {
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to execute %s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.noMatchStatus != 0 && resp.StatusCode == c.noMatchStatus {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.log.WarnContext(ctx, "Provider API error", "provider", c.provider, "status", resp.StatusCode)
		return nil, false, statusError(c.provider, resp.StatusCode, body)
	}

	return body, true, nil
}

func (p osmPlace) toHit() (models.GeocodeHit, bool) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return models.GeocodeHit{}, false
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return models.GeocodeHit{}, false
	}

	name := p.Name
	if name == "" {
		name, _, _ = strings.Cut(p.DisplayName, ",")
		name = strings.TrimSpace(name)
	}

	placeType := p.Type
	if p.AddressType != "" && p.Class == "boundary" {
		placeType = p.AddressType
	}

	return models.GeocodeHit{
		Coordinates: models.Coordinates{Latitude: lat, Longitude: lon},
		DisplayName: p.DisplayName,
		Name:        name,
		PlaceType:   placeType,
		PlaceClass:  p.Class,
		Address: models.Address{
			Road:        p.Address.Road,
			HouseNumber: p.Address.HouseNumber,
			City:        firstNonEmpty(p.Address.City, p.Address.Town, p.Address.Village, p.Address.Hamlet, p.Address.Municipality),
			County:      p.Address.County,
			State:       p.Address.State,
			Postcode:    p.Address.Postcode,
			Country:     p.Address.Country,
		},
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
