// Package geo holds the great-circle math shared by the ETA engine.
// All distances are kilometres; convert with KmToMiles only when rendering.
package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used for every distance in the service.
	EarthRadiusKm = 6371.0088

	kmPerMile = 1.609344
)

// ErrInvalidCoordinate is returned when a latitude or longitude is out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a WGS-84 position. Latitude always comes first.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90.0 || lat > 90.0 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidCoordinate)
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if math.IsNaN(lon) || lon < -180.0 || lon > 180.0 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidCoordinate)
	}
	return nil
}

// Validate checks both components of p.
func (p Point) Validate() error {
	if err := ValidateLatitude(p.Lat); err != nil {
		return err
	}
	return ValidateLongitude(p.Lon)
}

// Distance returns the Haversine distance between a and b in kilometres.
func Distance(a, b Point) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon), nil
}

// Haversine is the unchecked form of Distance. Callers must validate input.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	deltaPhi := toRadians(lat2 - lat1)
	deltaLambda := toRadians(lon2 - lon1)

	sinPhi := math.Sin(deltaPhi / 2)
	sinLambda := math.Sin(deltaLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Rounding can push h a hair above 1 for antipodal points.
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// KmToMiles converts kilometres to statute miles.
func KmToMiles(km float64) float64 {
	return km / kmPerMile
}

// Bearing calculates the initial bearing in degrees from a to b.
func Bearing(a, b Point) float64 {
	phi1 := toRadians(a.Lat)
	phi2 := toRadians(b.Lat)
	deltaLon := toRadians(b.Lon - a.Lon)

	y := math.Sin(deltaLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLon)

	theta := math.Atan2(y, x)
	return math.Mod(theta*180/math.Pi+360, 360)
}

// BearingToCompass converts a bearing (0-360°) to 8-point compass direction
func BearingToCompass(bearing float64) string {
	directions := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	bearing = math.Mod(bearing, 360)
	if bearing < 0 {
		bearing += 360
	}
	index := int((bearing+22.5)/45.0) % 8
	return directions[index]
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
