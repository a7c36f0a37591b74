package eta

import (
	"math"
	"time"

	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/transit"
)

// travelMinutes converts a distance to whole minutes using the reported speed
// when positive and the policy default otherwise, floored at MinimumMinutes.
func (p Policy) travelMinutes(distanceKm, speedKmh float64) int {
	if speedKmh <= 0 || math.IsNaN(speedKmh) || math.IsInf(speedKmh, 0) {
		speedKmh = p.DefaultSpeedKmh
	}
	minutes := int(math.Round(distanceKm / speedKmh * 60))
	if minutes < p.MinimumMinutes {
		minutes = p.MinimumMinutes
	}
	return minutes
}

// RealTimeETA returns the soonest arrival in minutes of any fresh report at
// stop, or nil when no fresh report remains. Reports are expected to belong to
// the route being queried; the caller filters by route.
func RealTimeETA(reports []transit.PositionReport, stop transit.Stop, now time.Time, policy Policy) *int {
	policy = policy.withDefaults()

	var best *int
	for _, report := range reports {
		if !policy.IsFresh(report.Timestamp, now) {
			continue
		}
		if report.Location.Validate() != nil {
			continue
		}
		distance := geo.Haversine(report.Location.Lat, report.Location.Lon, stop.Location.Lat, stop.Location.Lon)
		minutes := policy.travelMinutes(distance, report.Speed)
		if best == nil || minutes < *best {
			m := minutes
			best = &m
		}
	}
	return best
}
