package eta

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/transit"
)

// NetworkReader is the read side of the stop/route store.
type NetworkReader interface {
	GetRoute(ctx context.Context, routeID string) (*transit.Route, error)
	GetStop(ctx context.Context, stopID string) (*transit.Stop, error)
	ListActiveStops(ctx context.Context) ([]transit.Stop, error)
	ListActiveRoutes(ctx context.Context) ([]transit.Route, error)
}

// PositionReader returns the latest report of each vehicle captured at or after since.
type PositionReader interface {
	RecentForRoute(ctx context.Context, routeID string, since time.Time) ([]transit.PositionReport, error)
	Recent(ctx context.Context, since time.Time) ([]transit.PositionReport, error)
}

// DefaultNearbyLimit caps NearbyVehicles when the caller passes no limit.
const DefaultNearbyLimit = 10

// Service answers ETA and proximity queries over the injected stores.
type Service struct {
	network   NetworkReader
	positions PositionReader
	policy    Policy
	headways  HeadwayPolicy
	location  *time.Location
	clock     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithPolicy overrides the estimator constants.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p.withDefaults() }
}

// WithHeadwayPolicy overrides the peak/off-peak windows.
func WithHeadwayPolicy(hp HeadwayPolicy) Option {
	return func(s *Service) { s.headways = hp }
}

// WithLocation sets the campus time zone used by the headway model.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService wires the estimator to its stores.
func NewService(network NetworkReader, positions PositionReader, opts ...Option) *Service {
	s := &Service{
		network:   network,
		positions: positions,
		policy:    DefaultPolicy(),
		headways:  DefaultHeadwayPolicy(),
		location:  time.Local,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the estimator constants in use.
func (s *Service) Policy() Policy {
	return s.policy
}

// Now is the current time in the campus time zone.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) now() time.Time {
	return s.clock().In(s.location)
}

// CurrentHeadway returns the headway of route at the current campus time.
func (s *Service) CurrentHeadway(route transit.Route) int {
	return s.headways.CurrentHeadway(route, s.now())
}

// BestETA returns the reconciled estimate for stopID on routeID.
func (s *Service) BestETA(ctx context.Context, routeID, stopID string) (Estimate, error) {
	route, err := s.network.GetRoute(ctx, routeID)
	if err != nil {
		return Estimate{}, err
	}
	sequence, err := route.SequenceOf(stopID)
	if err != nil {
		return Estimate{}, err
	}
	stop, err := s.network.GetStop(ctx, stopID)
	if err != nil {
		return Estimate{}, err
	}

	now := s.now()
	reports, err := s.positions.RecentForRoute(ctx, routeID, now.Add(-s.policy.FreshnessWindow))
	if err != nil {
		return Estimate{}, fmt.Errorf("loading positions for route %s: %w", routeID, err)
	}
	return s.estimate(route, sequence, *stop, reports, now)
}

func (s *Service) estimate(route *transit.Route, sequence int, stop transit.Stop, reports []transit.PositionReport, now time.Time) (Estimate, error) {
	scheduled, err := s.headways.ScheduledETA(route, sequence, now)
	if err != nil {
		return Estimate{}, err
	}
	realTime := RealTimeETA(reports, stop, now, s.policy)
	return Reconcile(realTime, &scheduled, s.policy.Tolerance), nil
}

// StopSummary identifies a stop inside a route ETA listing.
type StopSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Sequence int     `json:"sequence"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// StopETA pairs a stop with its estimate.
type StopETA struct {
	Stop StopSummary `json:"stop"`
	ETA  Estimate    `json:"eta"`
}

// RouteETAs is the full-route dashboard payload.
type RouteETAs struct {
	RouteID   string    `json:"routeId"`
	RouteName string    `json:"routeName"`
	InService bool      `json:"inService"`
	Headway   int       `json:"headway"`
	Stops     []StopETA `json:"stops"`
}

// RouteETAs estimates every stop on routeID in sequence order. Positions are
// loaded once for the whole route.
func (s *Service) RouteETAs(ctx context.Context, routeID string) (RouteETAs, error) {
	route, err := s.network.GetRoute(ctx, routeID)
	if err != nil {
		return RouteETAs{}, err
	}

	now := s.now()
	reports, err := s.positions.RecentForRoute(ctx, routeID, now.Add(-s.policy.FreshnessWindow))
	if err != nil {
		return RouteETAs{}, fmt.Errorf("loading positions for route %s: %w", routeID, err)
	}

	result := RouteETAs{
		RouteID:   route.ID,
		RouteName: route.Name,
		InService: route.InService(now),
		Headway:   s.headways.CurrentHeadway(*route, now),
		Stops:     make([]StopETA, 0, len(route.Stops)),
	}

	ordered := append([]transit.RouteStop(nil), route.Stops...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	for _, rs := range ordered {
		stop, err := s.network.GetStop(ctx, rs.StopID)
		if err != nil {
			return RouteETAs{}, fmt.Errorf("route %s references stop %s: %w", routeID, rs.StopID, err)
		}
		est, err := s.estimate(route, rs.Sequence, *stop, reports, now)
		if err != nil {
			return RouteETAs{}, err
		}
		result.Stops = append(result.Stops, StopETA{
			Stop: StopSummary{
				ID:       stop.ID,
				Name:     stop.Name,
				Sequence: rs.Sequence,
				Lat:      stop.Location.Lat,
				Lon:      stop.Location.Lon,
			},
			ETA: est,
		})
	}

	return result, nil
}

// ClosestStop returns the nearest active stop to the rider with its distance in km.
func (s *Service) ClosestStop(ctx context.Context, lat, lon float64) (transit.Stop, float64, error) {
	if err := (geo.Point{Lat: lat, Lon: lon}).Validate(); err != nil {
		return transit.Stop{}, 0, err
	}
	stops, err := s.network.ListActiveStops(ctx)
	if err != nil {
		return transit.Stop{}, 0, fmt.Errorf("listing stops: %w", err)
	}
	return NearestStop(lat, lon, stops)
}

// NearbyVehicles ranks every fresh vehicle by ETA to the rider and keeps the top limit.
func (s *Service) NearbyVehicles(ctx context.Context, lat, lon float64, limit int) ([]RankedVehicle, error) {
	rider := geo.Point{Lat: lat, Lon: lon}
	if err := rider.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	now := s.now()
	reports, err := s.positions.Recent(ctx, now.Add(-s.policy.FreshnessWindow))
	if err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}
	sortByVehicle(reports)

	ranked, err := RankVehiclesByETA(rider, reports, now, s.policy)
	if err != nil {
		return nil, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// ActiveVehicles lists the fresh reports on routeID, newest first.
func (s *Service) ActiveVehicles(ctx context.Context, routeID string) ([]transit.PositionReport, error) {
	if _, err := s.network.GetRoute(ctx, routeID); err != nil {
		return nil, err
	}
	now := s.now()
	reports, err := s.positions.RecentForRoute(ctx, routeID, now.Add(-s.policy.FreshnessWindow))
	if err != nil {
		return nil, fmt.Errorf("loading positions for route %s: %w", routeID, err)
	}

	fresh := make([]transit.PositionReport, 0, len(reports))
	for _, r := range reports {
		if s.policy.IsFresh(r.Timestamp, now) {
			fresh = append(fresh, r)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Timestamp.After(fresh[j].Timestamp) })
	return fresh, nil
}

// IsNotFound reports whether err names a missing route, stop or stop set.
func IsNotFound(err error) bool {
	return errors.Is(err, transit.ErrRouteNotFound) ||
		errors.Is(err, transit.ErrStopNotFound) ||
		errors.Is(err, transit.ErrStopNotOnRoute) ||
		errors.Is(err, transit.ErrNoStopsAvailable)
}

// sortByVehicle gives stores without a natural order a deterministic one, so
// ties in the ranking resolve the same way on every request.
func sortByVehicle(reports []transit.PositionReport) {
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].VehicleID < reports[j].VehicleID })
}
