package config

import (
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the coverage geocoding service.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port of the HTTP API and monitoring server.
// - Provider: The preferred geocoding provider (nominatim, locationiq, google); empty selects by available keys.
// - LocationIQKey, GoogleKey: Fallback API keys used when the settings store has none.
// - CountiesFile: Path to the JSON county dataset.
// - RadiusMiles: Search radius around the origin point.
// - UserAgent: User-Agent sent to Nominatim.
// - MaxRetries: Attempts per provider call, first call included.
// - CORSOrigins: Origins allowed to call the API from a browser.
// - Database: Configuration settings for the PostgreSQL settings store.
type Config struct {
	Env           string         `mapstructure:"env"`
	Port          int            `mapstructure:"port"`
	Provider      string         `mapstructure:"provider"`
	LocationIQKey string         `mapstructure:"locationiq_key"`
	GoogleKey     string         `mapstructure:"google_key"`
	CountiesFile  string         `mapstructure:"counties_file"`
	RadiusMiles   float64        `mapstructure:"radius_miles"`
	UserAgent     string         `mapstructure:"user_agent"`
	MaxRetries    int            `mapstructure:"max_retries"`
	CORSOrigins   []string       `mapstructure:"cors_origins"`
	Database      PostgresConfig `mapstructure:"db"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"`     // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"name"`     // Name is the name of the database.
}

// Enabled reports whether a settings database is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

var knownProviders = []string{"", "nominatim", "locationiq", "google"}

// MustLoad reads the configuration from the environment, after loading an
// optional .env file. It panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCOUT")
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("port", "8080")
	v.SetDefault("provider", "")
	v.SetDefault("counties_file", "data/counties.json")
	v.SetDefault("radius_miles", "20")
	v.SetDefault("user_agent", "")
	v.SetDefault("max_retries", "3")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("db.port", "5432")

	for key, env := range map[string]string{
		"db.host":     "DB_HOST",
		"db.port":     "DB_PORT",
		"db.user":     "DB_USERNAME",
		"db.password": "DB_PASSWORD",
		"db.name":     "DB_NAME",
	} {
		_ = v.BindEnv(key, env)
	}

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil || port <= 0 || port > 65535 {
		panic("failed to parse port from configuration")
	}

	radius, err := strconv.ParseFloat(v.GetString("radius_miles"), 64)
	if err != nil || radius <= 0 {
		panic("failed to parse radius from configuration, must be a positive number of miles")
	}

	retries, err := strconv.Atoi(v.GetString("max_retries"))
	if err != nil || retries < 1 {
		panic("failed to parse max retries from configuration, must be a positive integer")
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("provider")))
	if !slices.Contains(knownProviders, provider) {
		panic("unknown geocoding provider in configuration, use nominatim, locationiq or google")
	}

	return &Config{
		Env:           v.GetString("env"),
		Port:          port,
		Provider:      provider,
		LocationIQKey: v.GetString("locationiq_key"),
		GoogleKey:     v.GetString("google_key"),
		CountiesFile:  v.GetString("counties_file"),
		RadiusMiles:   radius,
		UserAgent:     v.GetString("user_agent"),
		MaxRetries:    retries,
		CORSOrigins:   splitList(v.GetString("cors_origins")),
		Database: PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
		},
	}
}

func splitList(raw string) []string {
	var items []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
