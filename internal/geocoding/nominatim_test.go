package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/scout/internal/geocoding"
	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/throttle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) *mockHTTPClient {
	return &mockHTTPClient{
		doFunc: func(_ *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
			}, nil
		},
	}
}

const baltimoreCountyJSON = `[{
	"lat":"39.4003","lon":"-76.6020",
	"display_name":"Baltimore County, Maryland, United States",
	"name":"Baltimore County","class":"boundary","type":"administrative","addresstype":"county",
	"address":{"county":"Baltimore County","state":"Maryland","country":"United States"}
}]`

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org/search")
				assert.Equal(t, "Baltimore County, MD, USA", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Empty(t, req.URL.Query().Get("key"))
				assert.Equal(t, geocoding.DefaultUserAgent, req.Header.Get("User-Agent"))

				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(baltimoreCountyJSON)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "", logger)
		hit, err := provider.Geocode(ctx, "Baltimore County, MD, USA")

		require.NoError(t, err)
		require.NotNil(t, hit)
		assert.InEpsilon(t, 39.4003, hit.Coordinates.Latitude, 0.0001)
		assert.InEpsilon(t, -76.6020, hit.Coordinates.Longitude, 0.0001)
		assert.Equal(t, "Baltimore County", hit.Address.County)
		assert.Equal(t, "county", hit.PlaceType)
		assert.Equal(t, "boundary", hit.PlaceClass)
	})

	t.Run("empty response is no match", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(respond(http.StatusOK, `[]`), "", logger)
		hit, err := provider.Geocode(ctx, "Nowhere County, MD, USA")

		require.NoError(t, err)
		assert.Nil(t, hit)
	})

	t.Run("rate limited status", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(
			respond(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`), "", logger)
		hit, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, hit)
		require.ErrorIs(t, err, throttle.ErrRateLimited)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("server error is transient", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(respond(http.StatusBadGateway, `bad gateway`), "", logger)
		_, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		assert.Equal(t, throttle.ClassTransient, throttle.Classify(err))
	})

	t.Run("forbidden is permanent", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(respond(http.StatusForbidden, `banned`), "", logger)
		_, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, throttle.ErrPermanent)
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(respond(http.StatusOK, `invalid json`), "", logger)
		hit, err := provider.Geocode(ctx, "some address")

		require.Nil(t, hit)
		require.ErrorIs(t, err, geocoding.ErrMalformedResponse)
		require.ErrorIs(t, err, throttle.ErrPermanent)
		assert.Contains(t, err.Error(), "decode nominatim search")
	})

	t.Run("invalid latitude in response", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(
			respond(http.StatusOK, `[{"lat":"invalid","lon":"-122.0842499"}]`), "", logger)
		_, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrMalformedResponse)
		assert.Contains(t, err.Error(), "invalid coordinates")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "", logger)
		hit, err := provider.Geocode(ctx, "some address")

		require.Nil(t, hit)
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to execute nominatim request")
		assert.Equal(t, throttle.ClassTransient, throttle.Classify(err))
	})

	t.Run("custom user agent", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "Scout-Test/0.1 (ops@example.org)", req.Header.Get("User-Agent"))
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString(`[]`))}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "Scout-Test/0.1 (ops@example.org)", logger)
		_, err := provider.Geocode(ctx, "Towson")

		require.NoError(t, err)
	})
}

func TestNominatimProvider_Search(t *testing.T) {
	body := `[
		{"lat":"39.4015","lon":"-76.6019","display_name":"Towson, Baltimore County, Maryland, United States",
		 "name":"Towson","class":"place","type":"town","address":{"town":"Towson","county":"Baltimore County"}},
		{"lat":"39.3","lon":"-76.5","display_name":"Essex, Maryland","class":"place","type":"village"},
		{"lat":"bad","lon":"-76.5","display_name":"Broken","class":"place","type":"village"}
	]`
	mockClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "25", req.URL.Query().Get("limit"))
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString(body))}, nil
		},
	}

	provider := geocoding.NewNominatimProviderWithClient(mockClient, "", slog.Default())
	hits, err := provider.Search(t.Context(), "towns in Baltimore County, MD", 25)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Towson", hits[0].Name)
	assert.Equal(t, "Towson", hits[0].Address.City)
	assert.Equal(t, "town", hits[0].PlaceType)
	assert.Equal(t, "Essex", hits[1].Name, "name falls back to the first display name segment")
}

func TestNominatimProvider_ReverseGeocode(t *testing.T) {
	origin := models.Coordinates{Latitude: 39.2904, Longitude: -76.6122}

	t.Run("resolves containing place", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Contains(t, req.URL.Path, "/reverse")
				assert.Equal(t, "39.290400", req.URL.Query().Get("lat"))
				assert.Equal(t, "-76.612200", req.URL.Query().Get("lon"))
				body := `{"lat":"39.2908","lon":"-76.6108",
					"display_name":"Baltimore, Maryland, United States","class":"boundary","type":"administrative",
					"address":{"city":"Baltimore","county":"Baltimore City","state":"Maryland","postcode":"21202"}}`
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString(body))}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "", slog.Default())
		hit, err := provider.ReverseGeocode(t.Context(), origin)

		require.NoError(t, err)
		require.NotNil(t, hit)
		assert.Equal(t, "Baltimore City", hit.Address.County)
		assert.Equal(t, "Baltimore", hit.Address.City)
		assert.Equal(t, "21202", hit.Address.Postcode)
	})

	t.Run("unable to geocode is no match", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(
			respond(http.StatusOK, `{"error":"Unable to geocode"}`), "", slog.Default())
		hit, err := provider.ReverseGeocode(t.Context(), origin)

		require.NoError(t, err)
		assert.Nil(t, hit)
	})
}
