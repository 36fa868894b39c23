// Package firms fetches satellite hotspot detections from the NASA FIRMS
// area API.
package firms

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/smogwatch/smog-ingest/internal/observability"
)

const (
	defaultBaseURL = "https://firms.modaps.eosdis.nasa.gov"

	// product is the near-real-time VIIRS feed from the NOAA-20 satellite.
	product = "VIIRS_NOAA20_NRT"

	// dayRange keeps the query to the most recent day of detections.
	dayRange = 1

	providerName = "firms"
)

// Client fetches fire detections for a bounding box in one bulk request.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FIRMS area API client.
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

// FetchRegionFires issues a single CSV query for the given macro bounding
// box (W,S,E,N) and returns the confident detections. Low-confidence rows
// are dropped; rows with unparseable coordinates or FRP are skipped.
func (c *Client) FetchRegionFires(ctx context.Context, bbox string) ([]domain.FireDetection, error) {
	u := fmt.Sprintf("%s/api/area/csv/%s/%s/%s/%d", c.baseURL, c.apiKey, product, bbox, dayRange)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("firms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("firms API error: status %d: %s", resp.StatusCode, body)
	}

	fires, err := parseDetections(resp.Body)
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}

	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	c.logger.Debug("firms detections fetched", "bbox", bbox, "count", len(fires))
	return fires, nil
}

// parseDetections reads the FIRMS CSV payload. Column positions are taken
// from the header row, so reordered or extended upstream schemas still parse.
func parseDetections(r io.Reader) ([]domain.FireDetection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read firms header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"latitude", "longitude", "confidence", "frp"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("firms response missing column %q", required)
		}
	}

	var fires []domain.FireDetection
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read firms row: %w", err)
		}

		f, ok := parseRow(record, cols)
		if !ok {
			continue
		}
		if f.Confidence == domain.ConfidenceLow {
			continue
		}
		fires = append(fires, f)
	}

	return fires, nil
}

func parseRow(record []string, cols map[string]int) (domain.FireDetection, bool) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	lat, errLat := strconv.ParseFloat(field("latitude"), 64)
	lon, errLon := strconv.ParseFloat(field("longitude"), 64)
	frp, errFRP := strconv.ParseFloat(field("frp"), 64)
	if errLat != nil || errLon != nil || errFRP != nil {
		return domain.FireDetection{}, false
	}

	return domain.FireDetection{
		Lat:        lat,
		Lon:        lon,
		Confidence: domain.Confidence(strings.ToLower(field("confidence"))),
		FRP:        frp,
	}, true
}
