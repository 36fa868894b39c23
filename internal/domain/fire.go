package domain

// Confidence is the detection confidence reported by the FIRMS feed.
// VIIRS products encode it as a single letter: l, n, or h.
type Confidence string

const (
	ConfidenceLow     Confidence = "l"
	ConfidenceNominal Confidence = "n"
	ConfidenceHigh    Confidence = "h"
)

// FireDetection is one satellite hotspot from the provincial bulk query.
// Detections live only for the duration of a collection cycle; they are
// aggregated into per-district impact figures and never persisted.
type FireDetection struct {
	Lat        float64
	Lon        float64
	Confidence Confidence
	FRP        float64 // fire radiative power, MW
}

// Impact aggregates the detections falling inside one district's catchment.
type Impact struct {
	Count       int
	IntensityMW float64
}

// catchmentHalfWidthDeg is the half-width of the axis-aligned box around a
// district centroid, ~55 km at Punjab latitudes.
const catchmentHalfWidthDeg = 0.5

// LocalImpact filters the provincial fire set down to detections within
// ±0.5° of the district centroid and returns their count and summed FRP.
// Pure and deterministic; an empty fire set yields a zero Impact.
func LocalImpact(lat, lon float64, fires []FireDetection) Impact {
	var impact Impact
	for _, f := range fires {
		if f.Lat < lat-catchmentHalfWidthDeg || f.Lat > lat+catchmentHalfWidthDeg {
			continue
		}
		if f.Lon < lon-catchmentHalfWidthDeg || f.Lon > lon+catchmentHalfWidthDeg {
			continue
		}
		impact.Count++
		impact.IntensityMW += f.FRP
	}
	return impact
}

// ProvincialLoad sums FRP across every detection in the macro box. The
// result is broadcast unchanged to every district row of the cycle.
func ProvincialLoad(fires []FireDetection) float64 {
	var total float64
	for _, f := range fires {
		total += f.FRP
	}
	return total
}
