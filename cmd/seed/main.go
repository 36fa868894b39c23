// Command seed populates the store with synthetic hourly readings so the
// analytical dashboard can be developed without waiting for real cycles.
// It writes through the same staging+merge protocol as the pipeline, so
// re-running it against the same hours is a no-op.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/seed -hours 72 -seed 1
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/smogwatch/smog-ingest/internal/observability"
	"github.com/smogwatch/smog-ingest/internal/registry"
	"github.com/smogwatch/smog-ingest/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	hours := flag.Int("hours", 48, "number of past hours to backfill")
	seed := flag.Int64("seed", 1, "random seed for reproducible data")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	logger := observability.NewLogger("info", "text")

	store, err := postgres.Connect(databaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))
	end := domain.FloorHour(time.Now())

	var total int64
	for h := *hours; h > 0; h-- {
		hour := end.Add(-time.Duration(h) * time.Hour)
		batch := synthesizeCycle(rng, hour)

		merged, err := store.MergeBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("merge hour %s: %w", hour.Format(time.RFC3339), err)
		}
		total += merged
	}

	logger.Info("seed complete", "hours", *hours, "rows_merged", total)
	return nil
}

// synthesizeCycle fabricates one cycle's batch for the given hour. Winter
// smog conditions: high particulates, light winds, occasional crop fires.
func synthesizeCycle(rng *rand.Rand, hour time.Time) []domain.Reading {
	provincialLoad := rng.Float64() * 400

	districts := registry.Districts()
	batch := make([]domain.Reading, 0, len(districts))
	for _, d := range districts {
		pm25 := 80 + rng.Float64()*220
		pm10 := pm25 * (1.1 + rng.Float64()*0.4)

		r := domain.Reading{
			Timestamp:            hour,
			District:             d.Name,
			PM25:                 &pm25,
			PM10:                 &pm10,
			WindSpeedKmh:         rng.Float64() * 20,
			WindDirectionDeg:     rng.Float64() * 360,
			ProvincialFireLoadMW: provincialLoad,
			LocalFireCount:       rng.Intn(4),
			LocalFireIntensityMW: rng.Float64() * 40,
		}
		// A few districts per cycle lose their concentration reading,
		// matching real provider behavior.
		if rng.Intn(20) == 0 {
			r.PM25 = nil
			r.PM10 = nil
		}
		batch = append(batch, r)
	}
	return batch
}
