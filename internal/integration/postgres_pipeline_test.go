//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/smogwatch/smog-ingest/internal/observability"
	"github.com/smogwatch/smog-ingest/internal/pipeline"
	"github.com/smogwatch/smog-ingest/internal/registry"
	"github.com/smogwatch/smog-ingest/internal/store/postgres"
)

// startPostgres launches a disposable Postgres and returns a connected,
// schema-initialized store.
func startPostgres(ctx context.Context, t *testing.T) *postgres.Store {
	t.Helper()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("smog"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := postgres.Connect(connStr, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- pipeline stubs: deterministic providers, no external HTTP ---

type staticFires struct{ fires []domain.FireDetection }

func (s *staticFires) FetchRegionFires(context.Context, string) ([]domain.FireDetection, error) {
	return s.fires, nil
}

type staticCollector struct{}

func (staticCollector) Collect(_ context.Context, d domain.District, fires []domain.FireDetection, load float64) domain.Reading {
	impact := domain.LocalImpact(d.Lat, d.Lon, fires)
	pm25 := 150.0
	return domain.Reading{
		Timestamp:            domain.Now(),
		District:             d.Name,
		PM25:                 &pm25,
		WindSpeedKmh:         12.0,
		WindDirectionDeg:     270,
		ProvincialFireLoadMW: load,
		LocalFireCount:       impact.Count,
		LocalFireIntensityMW: impact.IntensityMW,
	}
}

func newPipeline(store *postgres.Store, fires []domain.FireDetection) *pipeline.Pipeline {
	return pipeline.New(&staticFires{fires: fires}, staticCollector{}, store, nil,
		registry.Districts(), registry.MacroBBox, 0,
		discardLogger(), observability.NewMetricsForTesting())
}

// TestMergeIdempotence runs two full cycles within the same frozen hour
// and verifies the second is a complete no-op at the row level.
func TestMergeIdempotence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := startPostgres(ctx, t)

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 11, 12, 10, 7, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	p := newPipeline(store, nil)
	require.NoError(t, p.RunCycle(ctx))

	// Second run, 40 minutes later but inside the same hour.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 11, 12, 10, 47, 0, 0, time.UTC)))
	require.NoError(t, p.RunCycle(ctx))

	hour := time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC)
	rows, err := store.ReadRange(ctx, "", hour, hour.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, rows, registry.Count(), "duplicate cycle must not add rows")
}

func TestMergeAcrossHours(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := startPostgres(ctx, t)
	p := newPipeline(store, []domain.FireDetection{{Lat: 31.9, Lon: 74.3, FRP: 25}})

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 11, 12, 10, 7, 0, 0, time.UTC)))
	defer domain.SetClock(nil)
	require.NoError(t, p.RunCycle(ctx))

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 11, 12, 11, 7, 0, 0, time.UTC)))
	require.NoError(t, p.RunCycle(ctx))

	from := time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC)
	rows, err := store.ReadRange(ctx, "", from, from.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, rows, 2*registry.Count())

	// Newest first per the consumer read contract.
	assert.Equal(t, time.Date(2025, 11, 12, 11, 0, 0, 0, time.UTC), rows[0].Timestamp.UTC())
}

func TestRoundTripPreservesNullsAndValues(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := startPostgres(ctx, t)

	hour := time.Date(2025, 11, 12, 9, 0, 0, 0, time.UTC)
	pm25 := 187.4
	batch := []domain.Reading{
		{Timestamp: hour, District: "Lahore", PM25: &pm25, WindSpeedKmh: 18, WindDirectionDeg: 90, ProvincialFireLoadMW: 12.5, LocalFireCount: 1, LocalFireIntensityMW: 12.5},
		{Timestamp: hour, District: "Multan", WindSpeedKmh: 0, WindDirectionDeg: 0},
	}

	merged, err := store.MergeBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), merged)

	rows, err := store.ReadRange(ctx, "Lahore", hour, hour.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].PM25)
	assert.Equal(t, 187.4, *rows[0].PM25)
	assert.Nil(t, rows[0].PM10)

	rows, err = store.ReadRange(ctx, "Multan", hour, hour.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PM25)
	assert.Equal(t, 0.0, rows[0].WindSpeedKmh)
	assert.Equal(t, 0.0, rows[0].WindDirectionDeg)
}

func TestRecentLimit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := startPostgres(ctx, t)
	p := newPipeline(store, nil)

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 11, 12, 10, 7, 0, 0, time.UTC)))
	defer domain.SetClock(nil)
	require.NoError(t, p.RunCycle(ctx))

	rows, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}
