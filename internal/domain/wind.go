package domain

import "math"

// Wind is one successful wind observation, already normalized to km/h.
type Wind struct {
	SpeedKmh     float64
	DirectionDeg float64
}

// MSToKmh converts a wind speed from m/s (secondary provider units) to
// km/h (the unit contract of the primary provider and the store).
func MSToKmh(ms float64) float64 {
	return ms * 3.6
}

// cardinals in bin order: [0,45)=N, [45,90)=NE, ... [315,360)=NW.
var cardinals = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CardinalSector buckets a wind direction into one of eight 45°-wide
// sectors, lower bound inclusive. 360 wraps to N. Downstream
// source-attribution aggregation depends on exactly these boundaries.
func CardinalSector(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return cardinals[int(deg/45)]
}
