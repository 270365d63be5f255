package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDatabase opens a connection pool and verifies it with a ping.
func NewDatabase(host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   name,
	}

	pool, err := pgxpool.New(context.Background(), dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err = pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// LoadGeocodingSettings reads the saved provider preference and API keys.
// A missing settings row yields empty settings rather than an error.
func (r *Repository) LoadGeocodingSettings(ctx context.Context) (models.GeocodingSettings, error) {
	var settings models.GeocodingSettings
	query := `
		SELECT provider, locationiq_api_key, google_api_key
		FROM public.geocoding_settings
		WHERE id = 1;
	`

	err := r.db.QueryRow(ctx, query).Scan(&settings.Provider, &settings.LocationIQKey, &settings.GoogleKey)
	if errors.Is(err, pgx.ErrNoRows) {
		r.log.DebugContext(ctx, "No geocoding settings saved yet")
		return models.GeocodingSettings{}, nil
	}
	if err != nil {
		return models.GeocodingSettings{}, fmt.Errorf("failed to load geocoding settings: %w", err)
	}

	return settings, nil
}

// SaveGeocodingSettings upserts the single settings row.
func (r *Repository) SaveGeocodingSettings(ctx context.Context, settings models.GeocodingSettings) error {
	query := `
		INSERT INTO public.geocoding_settings (id, provider, locationiq_api_key, google_api_key)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			provider = EXCLUDED.provider,
			locationiq_api_key = EXCLUDED.locationiq_api_key,
			google_api_key = EXCLUDED.google_api_key;
	`

	_, err := r.db.Exec(ctx, query, settings.Provider, settings.LocationIQKey, settings.GoogleKey)
	if err != nil {
		return fmt.Errorf("failed to save geocoding settings: %w", err)
	}

	return nil
}
