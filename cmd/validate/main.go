// Command validate checks the integrity of recently ingested rows: hour
// alignment, per-hour row completeness, wind bounds, and the broadcast
// invariant on provincial fire load. Run it after a pipeline change or
// against a store that has been receiving scheduled cycles.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/validate -since 24h
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/smogwatch/smog-ingest/internal/observability"
	"github.com/smogwatch/smog-ingest/internal/registry"
	"github.com/smogwatch/smog-ingest/internal/store/postgres"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	since := flag.Duration("since", 24*time.Hour, "how far back to validate")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	if code := run(databaseURL, *since); code != 0 {
		os.Exit(code)
	}
}

func run(databaseURL string, since time.Duration) int {
	logger := observability.NewLogger("warn", "text")

	store, err := postgres.Connect(databaseURL, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	readings, err := store.ReadRange(ctx, "", now.Add(-since), now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		return 1
	}

	fmt.Printf("validating %d rows from the last %s\n\n", len(readings), since)

	phases := []*phase{
		validateHourAlignment(readings),
		validateKnownDistricts(readings),
		validateHourCompleteness(readings),
		validateWindBounds(readings),
		validateBroadcastLoad(readings),
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d phases failed\n", failed, len(phases))
		return 1
	}
	fmt.Printf("\nall %d phases passed\n", len(phases))
	return 0
}

func validateHourAlignment(readings []domain.Reading) *phase {
	p := &phase{name: "hour alignment"}
	for _, r := range readings {
		if !r.Timestamp.Equal(domain.FloorHour(r.Timestamp)) {
			p.errorf("%s/%s: timestamp not hour-aligned", r.District, r.Timestamp.Format(time.RFC3339))
		}
	}
	return p
}

func validateKnownDistricts(readings []domain.Reading) *phase {
	p := &phase{name: "known districts"}
	for _, r := range readings {
		if _, err := registry.Lookup(r.District); err != nil {
			p.errorf("row for unknown district %q", r.District)
		}
	}
	return p
}

// validateHourCompleteness checks that no hour exceeds the district count
// (the primary key forbids it, belt and braces) and flags partially
// ingested hours, which indicate failed merges.
func validateHourCompleteness(readings []domain.Reading) *phase {
	p := &phase{name: "per-hour completeness"}

	perHour := make(map[time.Time]int)
	for _, r := range readings {
		perHour[r.Timestamp]++
	}
	for hour, count := range perHour {
		if count > registry.Count() {
			p.errorf("%s: %d rows exceeds district count %d", hour.Format(time.RFC3339), count, registry.Count())
		}
		if count < registry.Count() {
			p.errorf("%s: only %d of %d districts present", hour.Format(time.RFC3339), count, registry.Count())
		}
	}
	return p
}

func validateWindBounds(readings []domain.Reading) *phase {
	p := &phase{name: "wind bounds"}
	for _, r := range readings {
		if r.WindSpeedKmh < 0 {
			p.errorf("%s/%s: negative wind speed %.1f", r.District, r.Timestamp.Format(time.RFC3339), r.WindSpeedKmh)
		}
		if r.WindDirectionDeg < 0 || r.WindDirectionDeg > 360 {
			p.errorf("%s/%s: wind direction %.1f outside [0,360]", r.District, r.Timestamp.Format(time.RFC3339), r.WindDirectionDeg)
		}
		// Every direction must land in a cardinal bucket.
		if s := domain.CardinalSector(r.WindDirectionDeg); s == "" {
			p.errorf("%s/%s: no cardinal sector for %.1f", r.District, r.Timestamp.Format(time.RFC3339), r.WindDirectionDeg)
		}
	}
	return p
}

// validateBroadcastLoad verifies provincial_fire_load is identical across
// all districts within the same hour.
func validateBroadcastLoad(readings []domain.Reading) *phase {
	p := &phase{name: "provincial load broadcast"}

	perHour := make(map[time.Time]float64)
	seen := make(map[time.Time]bool)
	for _, r := range readings {
		if !seen[r.Timestamp] {
			seen[r.Timestamp] = true
			perHour[r.Timestamp] = r.ProvincialFireLoadMW
			continue
		}
		if r.ProvincialFireLoadMW != perHour[r.Timestamp] {
			p.errorf("%s: district %s has load %.2f, expected %.2f",
				r.Timestamp.Format(time.RFC3339), r.District, r.ProvincialFireLoadMW, perHour[r.Timestamp])
		}
	}
	return p
}
