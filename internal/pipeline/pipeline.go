// Package pipeline drives the hourly collection cycle: one bulk fire
// fetch, a sequential per-district collection loop, timestamp
// normalization, and the idempotent merge into the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/smogwatch/smog-ingest/internal/observability"
)

// FireFetcher performs the once-per-cycle bulk hotspot query.
type FireFetcher interface {
	FetchRegionFires(ctx context.Context, bbox string) ([]domain.FireDetection, error)
}

// DistrictCollector produces one complete reading for a district.
type DistrictCollector interface {
	Collect(ctx context.Context, d domain.District, fires []domain.FireDetection, provincialLoadMW float64) domain.Reading
}

// BatchMerger persists a cycle batch through the staging+merge protocol.
type BatchMerger interface {
	MergeBatch(ctx context.Context, readings []domain.Reading) (int64, error)
}

// CyclePublisher forwards a merged cycle to downstream consumers.
type CyclePublisher interface {
	PublishCycle(ctx context.Context, readings []domain.Reading) error
}

// Pipeline orchestrates collection cycles across all districts.
type Pipeline struct {
	fires     FireFetcher
	collector DistrictCollector
	store     BatchMerger
	publisher CyclePublisher // nil when publishing is disabled

	districts []domain.District
	bbox      string
	delay     time.Duration

	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline. publisher may be nil.
func New(fires FireFetcher, collector DistrictCollector, store BatchMerger, publisher CyclePublisher,
	districts []domain.District, bbox string, delay time.Duration,
	logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fires:     fires,
		collector: collector,
		store:     store,
		publisher: publisher,
		districts: districts,
		bbox:      bbox,
		delay:     delay,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one cycle has been persisted.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no collection cycle has completed yet")
	}
	return nil
}

// Run executes cycles at the configured interval until the context is
// cancelled. The first cycle starts immediately.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.logger.Info("pipeline started", "districts", len(p.districts), "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			// Persistence failures are non-fatal: the next scheduled
			// cycle retries naturally.
			p.logger.Error("cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle performs one full collection cycle: fetch fires, collect every
// district sequentially, floor timestamps, merge the batch, and publish.
// Provider failures degrade per-field and never abort the cycle; only
// context cancellation and persistence errors surface to the caller.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.logger.Info("cycle starting", "districts", len(p.districts))

	// One bulk call for the whole region; a failed fire fetch is a zero
	// fire signal, not an aborted cycle.
	fires, err := p.fires.FetchRegionFires(ctx, p.bbox)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("fire fetch failed, continuing with zero fire signal", "error", err)
		fires = nil
	}

	provincialLoad := domain.ProvincialLoad(fires)
	p.metrics.FiresDetected.Set(float64(len(fires)))
	p.metrics.ProvincialFireLoadMW.Set(provincialLoad)
	p.logger.Info("provincial fire context",
		"detections", len(fires), "load_mw", provincialLoad)

	batch, err := p.collectAll(ctx, fires, provincialLoad)
	if err != nil {
		return err
	}

	// Flooring here is what makes (timestamp, district) a dedup key: every
	// run within the same hour produces identical keys and the store's
	// conflict policy drops the duplicates.
	for i := range batch {
		batch[i].Timestamp = domain.FloorHour(batch[i].Timestamp)
	}

	merged, err := p.store.MergeBatch(ctx, batch)
	if err != nil {
		p.metrics.CyclesTotal.WithLabelValues("persist_failed").Inc()
		return fmt.Errorf("persist batch: %w", err)
	}

	p.metrics.RowsMerged.Add(float64(merged))
	p.metrics.CyclesTotal.WithLabelValues("completed").Inc()
	p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("cycle completed",
		"rows", len(batch), "merged", merged, "duration", time.Since(start))

	p.publish(ctx, batch)
	return nil
}

// collectAll walks the registry in fixed order with a courtesy delay
// between districts. Every district contributes exactly one reading no
// matter how its providers fared.
func (p *Pipeline) collectAll(ctx context.Context, fires []domain.FireDetection, provincialLoad float64) ([]domain.Reading, error) {
	batch := make([]domain.Reading, 0, len(p.districts))
	for i, d := range p.districts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		p.logger.Debug("collecting district", "district", d.Name)
		batch = append(batch, p.collector.Collect(ctx, d, fires, provincialLoad))

		if i < len(p.districts)-1 {
			if !sleepWithContext(ctx, p.delay) {
				return nil, ctx.Err()
			}
		}
	}
	return batch, nil
}

// publish forwards the merged cycle to the optional downstream sink.
// Publish failures are logged and dropped; the store is the system of
// record.
func (p *Pipeline) publish(ctx context.Context, batch []domain.Reading) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishCycle(ctx, batch); err != nil {
		p.logger.Warn("cycle publish failed", "error", err)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
