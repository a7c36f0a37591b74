// Package eta estimates arrival times from the static schedule and from live
// vehicle positions, and reconciles the two into the number a rider sees.
package eta

import "time"

// Source tags which estimate was chosen.
type Source string

const (
	SourceRealTime  Source = "real-time"
	SourceScheduled Source = "scheduled"
)

// Defaults for Policy. Speeds are km/h, matching geo distances in km.
const (
	DefaultFreshnessWindow = 10 * time.Minute
	DefaultSpeedKmh        = 25.0
	DefaultMinimumMinutes  = 1
	DefaultTolerance       = 1.5
)

// Policy holds the tunable constants of the estimator.
type Policy struct {
	// FreshnessWindow excludes any report older than this.
	FreshnessWindow time.Duration
	// DefaultSpeedKmh is used when a vehicle reports no speed.
	DefaultSpeedKmh float64
	// MinimumMinutes floors live estimates so a bus at the stop reads as
	// arriving rather than 0. Values below 1 fall back to the default.
	MinimumMinutes int
	// Tolerance is the multiple of the scheduled estimate beyond which a live
	// estimate is distrusted.
	Tolerance float64
	// RankAtDefaultSpeed makes rider ranking ignore reported speeds and use
	// DefaultSpeedKmh for every vehicle.
	RankAtDefaultSpeed bool
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		FreshnessWindow: DefaultFreshnessWindow,
		DefaultSpeedKmh: DefaultSpeedKmh,
		MinimumMinutes:  DefaultMinimumMinutes,
		Tolerance:       DefaultTolerance,
	}
}

// withDefaults fills zero fields so a partially configured Policy is usable.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.FreshnessWindow <= 0 {
		p.FreshnessWindow = d.FreshnessWindow
	}
	if p.DefaultSpeedKmh <= 0 {
		p.DefaultSpeedKmh = d.DefaultSpeedKmh
	}
	if p.MinimumMinutes <= 0 {
		p.MinimumMinutes = d.MinimumMinutes
	}
	if p.Tolerance <= 0 {
		p.Tolerance = d.Tolerance
	}
	return p
}

// IsFresh reports whether a report captured at ts may be used at now.
func (p Policy) IsFresh(ts, now time.Time) bool {
	return now.Sub(ts) <= p.withDefaults().FreshnessWindow
}
