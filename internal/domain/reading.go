package domain

import "time"

// District is an administrative region with a fixed representative
// centroid. Loaded once at process start; never mutated.
type District struct {
	Name string
	Lat  float64
	Lon  float64
}

// Reading is the unit persisted: one district's telemetry for one hour.
// PM fields are pointers because a failed concentration fetch has no safe
// substitute; wind fields are plain floats because they are defaulted to
// 0.0 before persistence when every wind source failed.
type Reading struct {
	Timestamp            time.Time `json:"timestamp"`
	District             string    `json:"district"`
	PM25                 *float64  `json:"pm2_5"`
	PM10                 *float64  `json:"pm10"`
	WindSpeedKmh         float64   `json:"wind_speed"`
	WindDirectionDeg     float64   `json:"wind_dir"`
	ProvincialFireLoadMW float64   `json:"provincial_fire_load"`
	LocalFireCount       int       `json:"local_fire_count"`
	LocalFireIntensityMW float64   `json:"local_fire_frp"`
}

// Particulates is one point-query result from the concentration provider.
// Values are µg/m³; nil means the provider did not report the component.
type Particulates struct {
	PM25 *float64
	PM10 *float64
}

// FloorHour truncates t to the top of its hour in UTC. 10:05:00 and
// 10:59:59 both map to 10:00:00, which is what makes (timestamp, district)
// a deduplication key across runs within the same hour.
func FloorHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
