package eta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/transit"
)

var (
	baseStop = transit.Stop{ID: "B", Name: "Science Hill", Location: geo.Point{Lat: 36.9916, Lon: -122.0584}, Active: true}
	farPoint = geo.Point{Lat: 36.9741, Lon: -122.0308}
)

func report(vehicleID string, p geo.Point, speed float64, ts time.Time) transit.PositionReport {
	return transit.PositionReport{VehicleID: vehicleID, RouteID: "R1", Location: p, Speed: speed, Timestamp: ts}
}

func TestRealTimeETA(t *testing.T) {
	now := at(14, 12, 0)
	policy := DefaultPolicy()

	t.Run("nil when no reports", func(t *testing.T) {
		assert.Nil(t, RealTimeETA(nil, baseStop, now, policy))
	})

	t.Run("nil when every report is stale", func(t *testing.T) {
		reports := []transit.PositionReport{report("bus-1", farPoint, 20, now.Add(-15*time.Minute))}
		assert.Nil(t, RealTimeETA(reports, baseStop, now, policy))
	})

	t.Run("report exactly at the window edge is fresh", func(t *testing.T) {
		reports := []transit.PositionReport{report("bus-1", farPoint, 20, now.Add(-policy.FreshnessWindow))}
		assert.NotNil(t, RealTimeETA(reports, baseStop, now, policy))

		reports[0].Timestamp = now.Add(-policy.FreshnessWindow - time.Second)
		assert.Nil(t, RealTimeETA(reports, baseStop, now, policy))
	})

	t.Run("vehicle at the stop reports the floor", func(t *testing.T) {
		reports := []transit.PositionReport{report("bus-1", baseStop.Location, 30, now)}
		eta := RealTimeETA(reports, baseStop, now, policy)
		require.NotNil(t, eta)
		assert.Equal(t, 1, *eta)

		custom := policy
		custom.MinimumMinutes = 2
		eta = RealTimeETA(reports, baseStop, now, custom)
		require.NotNil(t, eta)
		assert.Equal(t, 2, *eta)
	})

	t.Run("uses reported speed", func(t *testing.T) {
		distance := geo.Haversine(farPoint.Lat, farPoint.Lon, baseStop.Location.Lat, baseStop.Location.Lon)
		reports := []transit.PositionReport{report("bus-1", farPoint, 30, now)}
		eta := RealTimeETA(reports, baseStop, now, policy)
		require.NotNil(t, eta)
		assert.Equal(t, int(distance/30*60+0.5), *eta)
	})

	t.Run("falls back to default speed when stationary", func(t *testing.T) {
		distance := geo.Haversine(farPoint.Lat, farPoint.Lon, baseStop.Location.Lat, baseStop.Location.Lon)
		reports := []transit.PositionReport{report("bus-1", farPoint, 0, now)}
		eta := RealTimeETA(reports, baseStop, now, policy)
		require.NotNil(t, eta)
		assert.Equal(t, int(distance/DefaultSpeedKmh*60+0.5), *eta)
	})

	t.Run("returns the soonest vehicle and skips stale ones", func(t *testing.T) {
		near := geo.Point{Lat: 36.9900, Lon: -122.0570}
		reports := []transit.PositionReport{
			report("bus-far", farPoint, 25, now.Add(-time.Minute)),
			report("bus-near-stale", baseStop.Location, 25, now.Add(-20*time.Minute)),
			report("bus-near", near, 25, now.Add(-2*time.Minute)),
		}
		eta := RealTimeETA(reports, baseStop, now, policy)
		require.NotNil(t, eta)

		distance := geo.Haversine(near.Lat, near.Lon, baseStop.Location.Lat, baseStop.Location.Lon)
		expected := int(distance/25*60 + 0.5)
		if expected < 1 {
			expected = 1
		}
		assert.Equal(t, expected, *eta)
	})

	t.Run("never negative", func(t *testing.T) {
		reports := []transit.PositionReport{
			report("bus-1", baseStop.Location, 1000, now),
			report("bus-2", farPoint, 1e9, now),
		}
		eta := RealTimeETA(reports, baseStop, now, policy)
		require.NotNil(t, eta)
		assert.GreaterOrEqual(t, *eta, 1)
	})

	t.Run("zero policy uses defaults", func(t *testing.T) {
		reports := []transit.PositionReport{report("bus-1", baseStop.Location, 0, now)}
		eta := RealTimeETA(reports, baseStop, now, Policy{})
		require.NotNil(t, eta)
		assert.Equal(t, DefaultMinimumMinutes, *eta)
	})
}
