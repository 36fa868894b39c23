package collector_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smogwatch/smog-ingest/internal/collector"
	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/smogwatch/smog-ingest/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stubs ---

type stubParticulates struct {
	result domain.Particulates
	err    error
}

func (s *stubParticulates) FetchParticulates(_ context.Context, _, _ float64) (domain.Particulates, error) {
	return s.result, s.err
}

type stubWind struct {
	result domain.Wind
	err    error
	calls  int
}

func (s *stubWind) FetchWind(_ context.Context, _, _ float64) (domain.Wind, error) {
	s.calls++
	return s.result, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

var lahore = domain.District{Name: "Lahore", Lat: 31.5204, Lon: 74.3587}

func newCollector(p collector.ParticulateProvider, primary, fallback collector.WindProvider) *collector.Collector {
	return collector.New(p, primary, fallback, observability.NewMetricsForTesting(), discardLogger())
}

// --- tests ---

func TestCollect_AllSourcesHealthy(t *testing.T) {
	frozen := time.Date(2025, 11, 12, 10, 37, 12, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	defer domain.SetClock(nil)

	particulates := &stubParticulates{result: domain.Particulates{PM25: ptr(187.4), PM10: ptr(221.9)}}
	primary := &stubWind{result: domain.Wind{SpeedKmh: 14.2, DirectionDeg: 275}}
	fallback := &stubWind{}

	fires := []domain.FireDetection{
		{Lat: 31.9, Lon: 74.3, FRP: 12.5}, // inside the Lahore box
		{Lat: 33.0, Lon: 74.0, FRP: 99.0}, // outside
	}

	c := newCollector(particulates, primary, fallback)
	reading := c.Collect(context.Background(), lahore, fires, 111.5)

	assert.Equal(t, frozen, reading.Timestamp) // un-floored at this stage
	assert.Equal(t, "Lahore", reading.District)
	require.NotNil(t, reading.PM25)
	assert.Equal(t, 187.4, *reading.PM25)
	assert.Equal(t, 14.2, reading.WindSpeedKmh)
	assert.Equal(t, 275.0, reading.WindDirectionDeg)
	assert.Equal(t, 111.5, reading.ProvincialFireLoadMW)
	assert.Equal(t, 1, reading.LocalFireCount)
	assert.Equal(t, 12.5, reading.LocalFireIntensityMW)
	assert.Equal(t, 0, fallback.calls, "fallback should not be consulted when primary succeeds")
}

func TestCollect_PrimaryWindFailsFallbackSucceeds(t *testing.T) {
	particulates := &stubParticulates{result: domain.Particulates{}}
	primary := &stubWind{err: errors.New("malformed payload")}
	// Secondary reported 5.0 m/s which its client already converted to km/h.
	fallback := &stubWind{result: domain.Wind{SpeedKmh: 18.0, DirectionDeg: 90}}

	c := newCollector(particulates, primary, fallback)
	reading := c.Collect(context.Background(), lahore, nil, 0)

	assert.Equal(t, 18.0, reading.WindSpeedKmh)
	assert.Equal(t, 90.0, reading.WindDirectionDeg)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestCollect_TotalProviderFailureStillProducesRow(t *testing.T) {
	particulates := &stubParticulates{err: errors.New("timeout")}
	primary := &stubWind{err: errors.New("unreachable")}
	fallback := &stubWind{err: errors.New("unreachable")}

	c := newCollector(particulates, primary, fallback)
	reading := c.Collect(context.Background(), lahore, nil, 0)

	assert.Equal(t, "Lahore", reading.District)
	assert.Nil(t, reading.PM25)
	assert.Nil(t, reading.PM10)
	assert.Equal(t, 0.0, reading.WindSpeedKmh)
	assert.Equal(t, 0.0, reading.WindDirectionDeg)
	assert.Equal(t, 0, reading.LocalFireCount)
}

func TestCollect_ParticulateFailureLeavesWindIntact(t *testing.T) {
	particulates := &stubParticulates{err: errors.New("non-200")}
	primary := &stubWind{result: domain.Wind{SpeedKmh: 7.7, DirectionDeg: 45}}
	fallback := &stubWind{}

	c := newCollector(particulates, primary, fallback)
	reading := c.Collect(context.Background(), lahore, nil, 0)

	assert.Nil(t, reading.PM25)
	assert.Nil(t, reading.PM10)
	assert.Equal(t, 7.7, reading.WindSpeedKmh)
	assert.Equal(t, 45.0, reading.WindDirectionDeg)
}

func TestCollect_EmptyFireSetYieldsZeroImpact(t *testing.T) {
	c := newCollector(&stubParticulates{}, &stubWind{}, &stubWind{})
	reading := c.Collect(context.Background(), lahore, nil, 0)

	assert.Equal(t, 0, reading.LocalFireCount)
	assert.Equal(t, 0.0, reading.LocalFireIntensityMW)
}
