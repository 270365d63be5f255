package main

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/scout/internal/counties"
	"github.com/UnknownOlympus/scout/internal/metrics"
	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/repository"
	"github.com/UnknownOlympus/scout/internal/service"
	"github.com/UnknownOlympus/scout/internal/throttle"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is the wired service graph shared by all commands.
type app struct {
	reg      *prometheus.Registry
	pool     *pgxpool.Pool
	settings repository.Interface
	service  *service.GeocodingService
}

func (c *cli) buildApp(ctx context.Context) (*app, error) {
	// Create a separate registry for metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dataset, err := counties.Load(c.cfg.CountiesFile)
	if err != nil {
		return nil, err
	}
	c.log.InfoContext(ctx, "County dataset loaded", "path", c.cfg.CountiesFile, "states", len(dataset.States()))

	a := &app{reg: reg}

	var settings repository.Interface = repository.NewEnvSettings(models.GeocodingSettings{
		Provider:      c.cfg.Provider,
		LocationIQKey: c.cfg.LocationIQKey,
		GoogleKey:     c.cfg.GoogleKey,
	})
	if c.cfg.Database.Enabled() {
		db := c.cfg.Database
		a.pool, err = repository.NewDatabase(db.Host, db.Port, db.User, db.Password, db.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		settings = repository.NewLayeredSettings(repository.NewRepository(a.pool, c.log), settings)
		c.log.InfoContext(ctx, "Using database settings store", "host", db.Host)
	}
	a.settings = settings

	exec := throttle.NewExecutor(c.log,
		throttle.WithMaxRetries(c.cfg.MaxRetries),
		throttle.WithMetrics(appMetrics),
	)
	a.service = service.NewGeocodingService(c.log, dataset, settings, exec, appMetrics,
		service.WithRadius(c.cfg.RadiusMiles),
		service.WithUserAgent(c.cfg.UserAgent),
	)

	return a, nil
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
