package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool used by the repository.
type Database interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface is the configuration store holding the saved provider preference and API keys.
type Interface interface {
	LoadGeocodingSettings(ctx context.Context) (models.GeocodingSettings, error)
	SaveGeocodingSettings(ctx context.Context, settings models.GeocodingSettings) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// EnvSettings serves settings taken from the process configuration when no
// database is configured. Saving only updates the in-memory copy.
// It is safe for concurrent use.
type EnvSettings struct {
	mu       sync.RWMutex
	settings models.GeocodingSettings
}

// NewEnvSettings wraps static settings.
func NewEnvSettings(settings models.GeocodingSettings) *EnvSettings {
	return &EnvSettings{settings: settings}
}

func (e *EnvSettings) LoadGeocodingSettings(_ context.Context) (models.GeocodingSettings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.settings, nil
}

func (e *EnvSettings) SaveGeocodingSettings(_ context.Context, settings models.GeocodingSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.settings = settings
	return nil
}

// LayeredSettings reads from a primary store and fills blank fields from a
// fallback, typically the saved database row over process configuration.
// Saves go to the primary store only.
type LayeredSettings struct {
	primary  Interface
	fallback Interface
}

// NewLayeredSettings combines two settings stores.
func NewLayeredSettings(primary, fallback Interface) *LayeredSettings {
	return &LayeredSettings{primary: primary, fallback: fallback}
}

func (l *LayeredSettings) LoadGeocodingSettings(ctx context.Context) (models.GeocodingSettings, error) {
	settings, err := l.primary.LoadGeocodingSettings(ctx)
	if err != nil {
		return models.GeocodingSettings{}, err
	}
	defaults, err := l.fallback.LoadGeocodingSettings(ctx)
	if err != nil {
		return settings, nil //nolint:nilerr // primary answered
	}

	if settings.Provider == "" {
		settings.Provider = defaults.Provider
	}
	if settings.LocationIQKey == "" {
		settings.LocationIQKey = defaults.LocationIQKey
	}
	if settings.GoogleKey == "" {
		settings.GoogleKey = defaults.GoogleKey
	}

	return settings, nil
}

func (l *LayeredSettings) SaveGeocodingSettings(ctx context.Context, settings models.GeocodingSettings) error {
	return l.primary.SaveGeocodingSettings(ctx, settings)
}
