// Package domain models hourly environmental telemetry for Punjab districts.
//
// # Data Sources
//
// Three independent upstream feeds contribute to each district reading:
//
// NASA FIRMS (Fire Information for Resource Management System) provides
// satellite hotspot detections as CSV for a bounding-box query against the
// VIIRS_NOAA20_NRT product. One bulk request covers the whole province
// (macro box 69.0,27.5,75.5,34.5 in W,S,E,N order) per cycle, deliberately,
// to stay inside the feed's rate limits. Each detection carries a
// latitude/longitude, a confidence letter (l/n/h), and a fire radiative
// power (FRP) value in megawatts. Low-confidence detections are discarded.
//
// OpenWeatherMap's air_pollution endpoint provides point-query particulate
// concentrations (pm2_5, pm10 in µg/m³). Its general weather endpoint
// doubles as the fallback wind source, reporting speed in m/s, which is
// converted to km/h (×3.6) to match the primary's unit contract.
//
// Open-Meteo's forecast endpoint is the primary wind source, queried with
// current=wind_speed_10m,wind_direction_10m and wind_speed_unit=kmh.
//
// # Fire Aggregation
//
// Individual detections are never persisted. Two aggregates are derived per
// cycle: the provincial fire load (sum of FRP across every detection in the
// macro box, broadcast identically to all districts) and the local impact
// (count and summed FRP of detections inside a ±0.5° axis-aligned box
// around the district centroid, roughly a 55 km half-width). The box is an
// approximation, not a great-circle radius.
//
// # Null Policy
//
// A reading is always persistable. Wind speed and direction default to 0.0
// when every wind source failed, because downstream directional binning
// cannot tolerate a null direction. Particulate fields stay null on
// failure; there is no safe substitute for a missing pollutant value.
//
// # Deduplication
//
// Timestamps are floored to the top of the hour before persistence, making
// (timestamp, district) a meaningful uniqueness key. The store's primary
// key rejects duplicates, so overlapping pipeline runs within the same
// clock hour are safe without application-level coordination.
//
// # Wind Cardinals
//
// Downstream source-attribution analysis buckets wind_direction_deg into
// eight 45°-wide sectors (N, NE, E, SE, S, SW, W, NW), lower bound
// inclusive, with 360 wrapping to N. [CardinalSector] is the single
// definition of those boundaries; consumers depend on them exactly.
package domain
