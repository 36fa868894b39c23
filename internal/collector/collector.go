// Package collector assembles one persistable reading per district from the
// shared fire dataset and the per-district weather providers.
package collector

import (
	"context"
	"log/slog"

	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/smogwatch/smog-ingest/internal/observability"
)

// ParticulateProvider fetches pm2_5/pm10 concentrations for a point.
type ParticulateProvider interface {
	FetchParticulates(ctx context.Context, lat, lon float64) (domain.Particulates, error)
}

// WindProvider fetches current wind conditions for a point, in km/h.
type WindProvider interface {
	FetchWind(ctx context.Context, lat, lon float64) (domain.Wind, error)
}

// Collector produces a complete reading for a single district. It never
// fails: every upstream error degrades to a null or documented default so
// each district contributes exactly one row to the cycle batch.
type Collector struct {
	particulates ParticulateProvider
	primaryWind  WindProvider
	fallbackWind WindProvider
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// New creates a Collector. fallbackWind may equal primaryWind in tests but
// is normally a distinct provider.
func New(particulates ParticulateProvider, primaryWind, fallbackWind WindProvider, metrics *observability.Metrics, logger *slog.Logger) *Collector {
	return &Collector{
		particulates: particulates,
		primaryWind:  primaryWind,
		fallbackWind: fallbackWind,
		metrics:      metrics,
		logger:       logger,
	}
}

// Collect gathers local fire impact, particulates, and wind for one
// district and returns a complete reading stamped with the current
// wall-clock time. Flooring to the hour happens at batch level, not here.
func (c *Collector) Collect(ctx context.Context, d domain.District, fires []domain.FireDetection, provincialLoadMW float64) domain.Reading {
	impact := domain.LocalImpact(d.Lat, d.Lon, fires)

	reading := domain.Reading{
		Timestamp:            domain.Now(),
		District:             d.Name,
		ProvincialFireLoadMW: provincialLoadMW,
		LocalFireCount:       impact.Count,
		LocalFireIntensityMW: impact.IntensityMW,
	}

	particulates, err := c.particulates.FetchParticulates(ctx, d.Lat, d.Lon)
	if err != nil {
		// No safe substitute exists for a missing pollutant reading;
		// the fields stay null.
		c.logger.Warn("particulate fetch failed", "district", d.Name, "error", err)
	} else {
		reading.PM25 = particulates.PM25
		reading.PM10 = particulates.PM10
	}

	wind, err := c.fetchWind(ctx, d)
	if err != nil {
		// Downstream directional binning cannot tolerate a null direction,
		// so a fully failed wind lookup persists as 0.0/0.0.
		c.logger.Warn("wind unavailable from all providers, using defaults",
			"district", d.Name, "error", err)
	} else {
		reading.WindSpeedKmh = wind.SpeedKmh
		reading.WindDirectionDeg = wind.DirectionDeg
	}

	c.metrics.DistrictsCollected.Inc()
	return reading
}

// fetchWind tries the primary provider (which applies its own bounded
// retry), then the secondary.
func (c *Collector) fetchWind(ctx context.Context, d domain.District) (domain.Wind, error) {
	wind, err := c.primaryWind.FetchWind(ctx, d.Lat, d.Lon)
	if err == nil {
		return wind, nil
	}

	c.metrics.WindFallbacks.Inc()
	c.logger.Warn("primary wind provider failed, falling back",
		"district", d.Name, "error", err)

	return c.fallbackWind.FetchWind(ctx, d.Lat, d.Lon)
}
