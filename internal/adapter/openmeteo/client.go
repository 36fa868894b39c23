// Package openmeteo implements the primary wind provider against the
// Open-Meteo forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/smogwatch/smog-ingest/internal/observability"
)

const (
	defaultBaseURL = "https://api.open-meteo.com"

	providerName = "openmeteo"
)

// Client fetches current wind conditions with a bounded retry policy:
// a small fixed number of attempts with exponential backoff, and a longer
// wait after a rate-limit response. Callers fall back to the secondary
// provider when every attempt fails.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retries    int
	backoff    time.Duration
	rateWait   time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client. retries must be at least 1.
func NewClient(timeout time.Duration, retries int, backoff, rateWait time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  defaultBaseURL,
		retries:  retries,
		backoff:  backoff,
		rateWait: rateWait,
		metrics:  metrics,
		logger:   logger,
	}
}

// FetchWind queries current 10m wind speed and direction for a point.
// Speed is requested in km/h so no unit conversion is needed on this path.
func (c *Client) FetchWind(ctx context.Context, lat, lon float64) (domain.Wind, error) {
	var lastErr error

	backoff := c.backoff
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			if !sleepWithContext(ctx, backoff) {
				return domain.Wind{}, ctx.Err()
			}
			backoff *= 2
		}

		wind, rateLimited, err := c.fetchOnce(ctx, lat, lon)
		if err == nil {
			c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
			return wind, nil
		}
		lastErr = err
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("wind fetch attempt failed",
			"attempt", attempt, "lat", lat, "lon", lon, "error", err)

		if ctx.Err() != nil {
			return domain.Wind{}, ctx.Err()
		}
		if rateLimited {
			// 429: wait out the limiter before the regular backoff resumes.
			if !sleepWithContext(ctx, c.rateWait) {
				return domain.Wind{}, ctx.Err()
			}
		}
	}

	return domain.Wind{}, fmt.Errorf("wind fetch failed after %d attempts: %w", c.retries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, lat, lon float64) (domain.Wind, bool, error) {
	params := url.Values{
		"latitude":        {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":       {strconv.FormatFloat(lon, 'f', 4, 64)},
		"current":         {"wind_speed_10m,wind_direction_10m"},
		"wind_speed_unit": {"kmh"},
	}
	u := c.baseURL + "/v1/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Wind{}, false, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Wind{}, false, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Wind{}, true, fmt.Errorf("open-meteo rate limited: status 429")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Wind{}, false, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Wind{}, false, fmt.Errorf("decode response: %w", err)
	}
	if payload.Current == nil {
		return domain.Wind{}, false, fmt.Errorf("open-meteo response missing current conditions")
	}

	return domain.Wind{
		SpeedKmh:     payload.Current.WindSpeed10m,
		DirectionDeg: payload.Current.WindDirection10m,
	}, false, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
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

// Open-Meteo API response types.

type response struct {
	Current *current `json:"current"`
}

type current struct {
	WindSpeed10m     float64 `json:"wind_speed_10m"`
	WindDirection10m float64 `json:"wind_direction_10m"`
}
