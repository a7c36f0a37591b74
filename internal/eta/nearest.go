package eta

import (
	"sort"
	"time"

	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/transit"
)

// NearestStop returns the active stop closest to the rider and its distance in km.
func NearestStop(riderLat, riderLon float64, stops []transit.Stop) (transit.Stop, float64, error) {
	rider := geo.Point{Lat: riderLat, Lon: riderLon}
	if err := rider.Validate(); err != nil {
		return transit.Stop{}, 0, err
	}

	found := false
	var closest transit.Stop
	var closestDistance float64
	for _, stop := range stops {
		if !stop.Active {
			continue
		}
		d := geo.Haversine(rider.Lat, rider.Lon, stop.Location.Lat, stop.Location.Lon)
		if !found || d < closestDistance {
			closest, closestDistance, found = stop, d, true
		}
	}

	if !found {
		return transit.Stop{}, 0, transit.ErrNoStopsAvailable
	}
	return closest, closestDistance, nil
}

// RankedVehicle is one entry of the rider's nearby-vehicle list.
type RankedVehicle struct {
	VehicleID     string    `json:"vehicleId"`
	RouteID       string    `json:"routeId"`
	ETAMinutes    int       `json:"etaMinutes"`
	Distance      float64   `json:"distance"`
	DistanceMiles float64   `json:"distanceMiles"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	Heading       *float64  `json:"heading,omitempty"`
	Direction     string    `json:"direction,omitempty"`
	LastUpdate    time.Time `json:"lastUpdate"`
}

// RankVehiclesByETA orders fresh reports by their estimated arrival at the
// rider. Equal ETAs keep their input order. Speeds follow RealTimeETA unless
// policy.RankAtDefaultSpeed pins every vehicle to the default speed.
func RankVehiclesByETA(rider geo.Point, reports []transit.PositionReport, now time.Time, policy Policy) ([]RankedVehicle, error) {
	if err := rider.Validate(); err != nil {
		return nil, err
	}
	policy = policy.withDefaults()

	ranked := make([]RankedVehicle, 0, len(reports))
	for _, report := range reports {
		speed := report.Speed
		if policy.RankAtDefaultSpeed {
			speed = policy.DefaultSpeedKmh
		}
		if !policy.IsFresh(report.Timestamp, now) || report.Location.Validate() != nil {
			continue
		}
		distance := geo.Haversine(report.Location.Lat, report.Location.Lon, rider.Lat, rider.Lon)
		entry := RankedVehicle{
			VehicleID:     report.VehicleID,
			RouteID:       report.RouteID,
			ETAMinutes:    policy.travelMinutes(distance, speed),
			Distance:      distance,
			DistanceMiles: geo.KmToMiles(distance),
			Lat:           report.Location.Lat,
			Lon:           report.Location.Lon,
			Heading:       report.Heading,
			LastUpdate:    report.Timestamp,
		}
		if report.Heading != nil {
			entry.Direction = geo.BearingToCompass(*report.Heading)
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ETAMinutes < ranked[j].ETAMinutes
	})
	return ranked, nil
}
