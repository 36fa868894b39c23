// Package openweather implements the particulate-concentration provider and
// the secondary (fallback) wind provider against the OpenWeatherMap API.
package openweather

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
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"

	airProvider  = "openweather_air"
	windProvider = "openweather_wind"
)

// Client issues point queries against the OpenWeatherMap API. Both calls
// are single-attempt: the pipeline treats any failure as a null reading
// (particulates) or falls through to the wind default (wind).
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchParticulates queries the air_pollution endpoint for pm2_5 and pm10
// at a point.
func (c *Client) FetchParticulates(ctx context.Context, lat, lon float64) (domain.Particulates, error) {
	body, err := c.get(ctx, "/air_pollution", lat, lon, airProvider)
	if err != nil {
		return domain.Particulates{}, err
	}

	var payload airPollutionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.metrics.ProviderRequests.WithLabelValues(airProvider, "error").Inc()
		return domain.Particulates{}, fmt.Errorf("decode air pollution response: %w", err)
	}
	if len(payload.List) == 0 {
		c.metrics.ProviderRequests.WithLabelValues(airProvider, "error").Inc()
		return domain.Particulates{}, fmt.Errorf("air pollution response has no entries")
	}

	c.metrics.ProviderRequests.WithLabelValues(airProvider, "success").Inc()
	comp := payload.List[0].Components
	c.logger.Debug("fetched particulates", "lat", lat, "lon", lon,
		"has_pm25", comp.PM25 != nil, "has_pm10", comp.PM10 != nil)
	return domain.Particulates{PM25: comp.PM25, PM10: comp.PM10}, nil
}

// FetchWind queries the general weather endpoint and converts the reported
// m/s speed to km/h to satisfy the primary provider's unit contract.
func (c *Client) FetchWind(ctx context.Context, lat, lon float64) (domain.Wind, error) {
	body, err := c.get(ctx, "/weather", lat, lon, windProvider)
	if err != nil {
		return domain.Wind{}, err
	}

	var payload weatherResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.metrics.ProviderRequests.WithLabelValues(windProvider, "error").Inc()
		return domain.Wind{}, fmt.Errorf("decode weather response: %w", err)
	}
	if payload.Wind == nil {
		c.metrics.ProviderRequests.WithLabelValues(windProvider, "error").Inc()
		return domain.Wind{}, fmt.Errorf("weather response missing wind")
	}

	c.metrics.ProviderRequests.WithLabelValues(windProvider, "success").Inc()
	return domain.Wind{
		SpeedKmh:     domain.MSToKmh(payload.Wind.Speed),
		DirectionDeg: payload.Wind.Deg,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, lat, lon float64, provider string) ([]byte, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', 4, 64)},
		"appid": {c.apiKey},
	}
	u := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(provider, "error").Inc()
		return nil, fmt.Errorf("openweather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.ProviderRequests.WithLabelValues(provider, "error").Inc()
		return nil, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	return io.ReadAll(resp.Body)
}

// OpenWeatherMap API response types. Components are pointers so a missing
// field is distinguishable from a reported zero.

type airPollutionResponse struct {
	List []struct {
		Components struct {
			PM25 *float64 `json:"pm2_5"`
			PM10 *float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}

type weatherResponse struct {
	Wind *struct {
		Speed float64 `json:"speed"` // m/s
		Deg   float64 `json:"deg"`
	} `json:"wind"`
}
