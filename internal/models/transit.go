package models

import (
	"time"

	"slugstop.org/tracker/internal/eta"
	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/transit"
)

// Stop is a stop as riders see it.
type Stop struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Description string  `json:"description,omitempty"`
	Active      bool    `json:"active"`
}

func NewStop(s transit.Stop) Stop {
	return Stop{
		ID:          s.ID,
		Name:        s.Name,
		Lat:         s.Location.Lat,
		Lon:         s.Location.Lon,
		Description: s.Description,
		Active:      s.Active,
	}
}

// RouteSummary is one row of the route list.
type RouteSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StopCount      int    `json:"stopCount"`
	CurrentHeadway int    `json:"currentHeadway"`
	InService      bool   `json:"inService"`
}

// RouteStop is a stop placed on a route with its cumulative scheduled travel time.
type RouteStop struct {
	Stop
	Sequence               int `json:"sequence"`
	TravelTimeFromPrevious int `json:"travelTimeFromPrevious"`
	MinutesFromStart       int `json:"minutesFromStart"`
}

// RouteDetail is the full route with its geometry as an encoded polyline.
type RouteDetail struct {
	RouteSummary
	Headway        int                    `json:"headway"`
	PeakHeadway    int                    `json:"peakHeadway,omitempty"`
	OffPeakHeadway int                    `json:"offPeakHeadway,omitempty"`
	OperatingHours transit.OperatingHours `json:"operatingHours"`
	Stops          []RouteStop            `json:"stops"`
	Polyline       string                 `json:"polyline"`
}

// Vehicle is a live vehicle position.
type Vehicle struct {
	VehicleID  string    `json:"vehicleId"`
	RouteID    string    `json:"routeId"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	SpeedKmh   float64   `json:"speedKmh"`
	Heading    *float64  `json:"heading"`
	Direction  string    `json:"direction,omitempty"`
	LastUpdate time.Time `json:"lastUpdate"`
	AgeSeconds int64     `json:"ageSeconds"`
}

func NewVehicle(r transit.PositionReport, now time.Time) Vehicle {
	v := Vehicle{
		VehicleID:  r.VehicleID,
		RouteID:    r.RouteID,
		Lat:        r.Location.Lat,
		Lon:        r.Location.Lon,
		SpeedKmh:   r.Speed,
		Heading:    r.Heading,
		LastUpdate: r.Timestamp,
		AgeSeconds: int64(r.Age(now).Seconds()),
	}
	if r.Heading != nil {
		v.Direction = geo.BearingToCompass(*r.Heading)
	}
	return v
}

// ClosestStop answers the rider closest-stop query.
type ClosestStop struct {
	Stop          Stop    `json:"stop"`
	DistanceKm    float64 `json:"distanceKm"`
	DistanceMiles float64 `json:"distanceMiles"`
}

func NewClosestStop(s transit.Stop, distanceKm float64) ClosestStop {
	return ClosestStop{
		Stop:          NewStop(s),
		DistanceKm:    distanceKm,
		DistanceMiles: geo.KmToMiles(distanceKm),
	}
}

// NearbyVehicles is the rider's ranked vehicle list. NearestStop is null when
// no stop is active.
type NearbyVehicles struct {
	Vehicles    []eta.RankedVehicle `json:"vehicles"`
	NearestStop *ClosestStop        `json:"nearestStop"`
}

// StopETA is the estimate for one stop on one route.
type StopETA struct {
	RouteID string `json:"routeId"`
	StopID  string `json:"stopId"`
	eta.Estimate
}
