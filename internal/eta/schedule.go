package eta

import (
	"fmt"
	"time"

	"slugstop.org/tracker/internal/transit"
)

// ClockWindow is a daily window in minutes after midnight, [Start, End).
// End before Start wraps midnight.
type ClockWindow struct {
	Start int
	End   int
}

func (w ClockWindow) contains(minute int) bool {
	if w.Start <= w.End {
		return minute >= w.Start && minute < w.End
	}
	return minute >= w.Start || minute < w.End
}

// HeadwayPolicy defines when peak and off-peak headways apply.
type HeadwayPolicy struct {
	// PeakWindows apply on weekdays only.
	PeakWindows []ClockWindow
	// OffPeakWindow applies every day.
	OffPeakWindow ClockWindow
}

// DefaultHeadwayPolicy is peak 07:00-09:59 and 16:00-18:59 on weekdays,
// off-peak 21:00-06:59.
func DefaultHeadwayPolicy() HeadwayPolicy {
	return HeadwayPolicy{
		PeakWindows: []ClockWindow{
			{Start: 7 * 60, End: 10 * 60},
			{Start: 16 * 60, End: 19 * 60},
		},
		OffPeakWindow: ClockWindow{Start: 21 * 60, End: 7 * 60},
	}
}

func (hp HeadwayPolicy) isPeak(now time.Time) bool {
	if day := now.Weekday(); day == time.Saturday || day == time.Sunday {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	for _, w := range hp.PeakWindows {
		if w.contains(minute) {
			return true
		}
	}
	return false
}

func (hp HeadwayPolicy) isOffPeak(now time.Time) bool {
	return hp.OffPeakWindow.contains(now.Hour()*60 + now.Minute())
}

// CurrentHeadway returns the headway in minutes that applies to route at now.
// now should already be in the campus time zone.
func (hp HeadwayPolicy) CurrentHeadway(route transit.Route, now time.Time) int {
	if route.PeakHeadway > 0 && hp.isPeak(now) {
		return route.PeakHeadway
	}
	if route.OffPeakHeadway > 0 && hp.isOffPeak(now) {
		return route.OffPeakHeadway
	}
	return route.Headway
}

// ScheduledETA returns the minutes until the next scheduled bus reaches the
// stop with the given sequence. Buses leave the head of the route every
// headway minutes counted from the top of the hour.
func (hp HeadwayPolicy) ScheduledETA(route *transit.Route, sequence int, now time.Time) (int, error) {
	if route == nil {
		return 0, transit.ErrRouteNotFound
	}

	travel, err := route.TravelTimeTo(sequence)
	if err != nil {
		return 0, err
	}

	headway := hp.CurrentHeadway(*route, now)
	if headway <= 0 {
		return 0, fmt.Errorf("route %s has no usable headway", route.ID)
	}

	nextDeparture := headway - now.Minute()%headway
	return nextDeparture + travel, nil
}

// CurrentHeadway applies DefaultHeadwayPolicy.
func CurrentHeadway(route transit.Route, now time.Time) int {
	return DefaultHeadwayPolicy().CurrentHeadway(route, now)
}

// ScheduledETA applies DefaultHeadwayPolicy.
func ScheduledETA(route *transit.Route, sequence int, now time.Time) (int, error) {
	return DefaultHeadwayPolicy().ScheduledETA(route, sequence, now)
}
