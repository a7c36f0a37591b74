// Package transit defines the stop, route and position types the ETA engine
// works on, and the error kinds every layer reports.
package transit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"slugstop.org/tracker/internal/geo"
)

// Stop is a boarding location. Deactivated stops stay referenced by routes.
type Stop struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Location    geo.Point `json:"location" yaml:"location"`
	Active      bool      `json:"active" yaml:"active"`
	Description string    `json:"description,omitempty" yaml:"description"`
}

// Validate checks the fields a writer needs before persisting a stop.
func (s Stop) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(s.ID) == "" {
		verr.Add("id", "id cannot be empty")
	}
	if strings.TrimSpace(s.Name) == "" {
		verr.Add("name", "name cannot be empty")
	} else if len(s.Name) > 100 {
		verr.Add("name", "name too long (max 100 characters)")
	}
	if len(s.Description) > 200 {
		verr.Add("description", "description too long (max 200 characters)")
	}
	if err := geo.ValidateLatitude(s.Location.Lat); err != nil {
		verr.Add("latitude", err.Error())
	}
	if err := geo.ValidateLongitude(s.Location.Lon); err != nil {
		verr.Add("longitude", err.Error())
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// RouteStop places a stop on a route.
type RouteStop struct {
	StopID string `json:"stopId" yaml:"stopId"`
	// Sequence is dense and starts at 1.
	Sequence int `json:"sequence" yaml:"sequence"`
	// TravelTimeFromPrevious is in minutes.
	TravelTimeFromPrevious int `json:"travelTimeFromPrevious" yaml:"travelTimeFromPrevious"`
}

// ServiceWindow is a daily "HH:MM"-"HH:MM" window. End before start wraps midnight.
type ServiceWindow struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// OperatingHours splits service windows by weekday and weekend.
type OperatingHours struct {
	Weekday ServiceWindow `json:"weekday" yaml:"weekday"`
	Weekend ServiceWindow `json:"weekend" yaml:"weekend"`
}

// Route is a route definition with its ordered stops and headway configuration.
type Route struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Stops          []RouteStop    `json:"stops" yaml:"stops"`
	Headway        int            `json:"headway" yaml:"headway"`
	PeakHeadway    int            `json:"peakHeadway,omitempty" yaml:"peakHeadway"`
	OffPeakHeadway int            `json:"offPeakHeadway,omitempty" yaml:"offPeakHeadway"`
	OperatingHours OperatingHours `json:"operatingHours" yaml:"operatingHours"`
	Active         bool           `json:"active" yaml:"active"`
}

// Validate enforces the route invariants: a positive headway, sequences that are
// dense from 1, non-negative travel times and no stop listed twice.
func (r Route) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(r.ID) == "" {
		verr.Add("id", "id cannot be empty")
	}
	if strings.TrimSpace(r.Name) == "" {
		verr.Add("name", "name cannot be empty")
	}
	if r.Headway <= 0 {
		verr.Add("headway", "headway must be greater than 0")
	}
	if r.PeakHeadway < 0 {
		verr.Add("peakHeadway", "peakHeadway cannot be negative")
	}
	if r.OffPeakHeadway < 0 {
		verr.Add("offPeakHeadway", "offPeakHeadway cannot be negative")
	}

	seen := make(map[string]bool, len(r.Stops))
	for i, rs := range r.Stops {
		if rs.Sequence != i+1 {
			verr.Add("stops", fmt.Sprintf("stop %d has sequence %d, expected %d", i, rs.Sequence, i+1))
		}
		if rs.TravelTimeFromPrevious < 0 {
			verr.Add("stops", fmt.Sprintf("stop %d has negative travel time", i))
		}
		if rs.StopID == "" {
			verr.Add("stops", fmt.Sprintf("stop %d has no stop id", i))
		} else if seen[rs.StopID] {
			verr.Add("stops", fmt.Sprintf("stop %s listed more than once", rs.StopID))
		}
		seen[rs.StopID] = true
	}

	for field, window := range map[string]ServiceWindow{
		"operatingHours.weekday": r.OperatingHours.Weekday,
		"operatingHours.weekend": r.OperatingHours.Weekend,
	} {
		if window == (ServiceWindow{}) {
			continue
		}
		if _, err := parseClock(window.Start); err != nil {
			verr.Add(field, err.Error())
		}
		if _, err := parseClock(window.End); err != nil {
			verr.Add(field, err.Error())
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// SequenceOf returns the sequence index of stopID on the route.
func (r Route) SequenceOf(stopID string) (int, error) {
	for _, rs := range r.Stops {
		if rs.StopID == stopID {
			return rs.Sequence, nil
		}
	}
	return 0, fmt.Errorf("%w: stop %s on route %s", ErrStopNotOnRoute, stopID, r.ID)
}

// TravelTimeTo sums TravelTimeFromPrevious for every stop up to and including sequence.
func (r Route) TravelTimeTo(sequence int) (int, error) {
	total := 0
	for _, rs := range r.Stops {
		total += rs.TravelTimeFromPrevious
		if rs.Sequence == sequence {
			return total, nil
		}
	}
	return 0, fmt.Errorf("%w: sequence %d on route %s", ErrStopNotOnRoute, sequence, r.ID)
}

// InService reports whether now falls inside the route's operating hours.
// A route with no configured window for the day is considered in service.
func (r Route) InService(now time.Time) bool {
	window := r.OperatingHours.Weekday
	if day := now.Weekday(); day == time.Saturday || day == time.Sunday {
		window = r.OperatingHours.Weekend
	}
	if window == (ServiceWindow{}) {
		return true
	}

	start, err := parseClock(window.Start)
	if err != nil {
		return true
	}
	end, err := parseClock(window.End)
	if err != nil {
		return true
	}

	minute := now.Hour()*60 + now.Minute()
	if start <= end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// parseClock converts "HH:MM" to minutes after midnight. "24:00" is accepted as end of day.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	return h*60 + m, nil
}

// PositionReport is one GPS fix pushed by a vehicle. Speed is km/h.
type PositionReport struct {
	VehicleID string    `json:"vehicleId"`
	RouteID   string    `json:"routeId"`
	Location  geo.Point `json:"location"`
	Speed     float64   `json:"speed"`
	Heading   *float64  `json:"heading,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Age returns how old the report is relative to now.
func (p PositionReport) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}
