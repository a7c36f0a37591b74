// Package tracking validates incoming vehicle position reports and hands them
// to the position store.
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/positions"
	"slugstop.org/tracker/internal/transit"
)

// MaxClockSkew is how far in the future a report timestamp may be.
const MaxClockSkew = 2 * time.Minute

const (
	ResultAccepted   = "accepted"
	ResultSuperseded = "superseded"
	ResultRejected   = "rejected"
)

// Payload is the wire shape of a position push.
type Payload struct {
	VehicleID string     `json:"vehicleId"`
	RouteID   string     `json:"routeId"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Speed     *float64   `json:"speed,omitempty"`
	Heading   *float64   `json:"heading,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type RouteLookup interface {
	GetRoute(ctx context.Context, routeID string) (*transit.Route, error)
}

type Publisher interface {
	PublishPosition(report transit.PositionReport) error
}

type Metrics interface {
	IngestResult(result string)
}

// Result describes what happened to an accepted payload.
type Result struct {
	Report transit.PositionReport `json:"report"`
	// Stored is false when a newer report for the vehicle was already held.
	Stored bool `json:"stored"`
}

type Ingestor struct {
	routes    RouteLookup
	store     positions.Store
	publisher Publisher
	metrics   Metrics
	logger    *slog.Logger
	clock     func() time.Time
}

type Option func(*Ingestor)

func WithPublisher(p Publisher) Option {
	return func(i *Ingestor) { i.publisher = p }
}

func WithMetrics(m Metrics) Option {
	return func(i *Ingestor) { i.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Ingestor) {
		if l != nil {
			i.logger = l
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(i *Ingestor) {
		if clock != nil {
			i.clock = clock
		}
	}
}

func NewIngestor(routes RouteLookup, store positions.Store, opts ...Option) *Ingestor {
	i := &Ingestor{
		routes: routes,
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.Component(i.logger, "tracking")
	return i
}

// Ingest validates p, checks the route exists and stores the report.
func (i *Ingestor) Ingest(ctx context.Context, p Payload) (Result, error) {
	now := i.clock()

	report, err := i.toReport(p, now)
	if err != nil {
		i.record(ResultRejected)
		return Result{}, err
	}

	if _, err := i.routes.GetRoute(ctx, report.RouteID); err != nil {
		i.record(ResultRejected)
		return Result{}, err
	}

	stored, err := i.store.Save(ctx, report)
	if err != nil {
		return Result{}, fmt.Errorf("saving position for %s: %w", report.VehicleID, err)
	}
	if !stored {
		i.record(ResultSuperseded)
		return Result{Report: report, Stored: false}, nil
	}
	i.record(ResultAccepted)

	if i.publisher != nil {
		if err := i.publisher.PublishPosition(report); err != nil {
			logging.LogError(i.logger, "failed to publish position", err,
				slog.String("vehicle_id", report.VehicleID),
				slog.String("route_id", report.RouteID))
		}
	}
	return Result{Report: report, Stored: true}, nil
}

func (i *Ingestor) toReport(p Payload, now time.Time) (transit.PositionReport, error) {
	verr := transit.NewValidationError()
	vehicleID := strings.TrimSpace(p.VehicleID)
	routeID := strings.TrimSpace(p.RouteID)

	if vehicleID == "" {
		verr.Add("vehicleId", "vehicleId is required")
	}
	if routeID == "" {
		verr.Add("routeId", "routeId is required")
	}
	if p.Latitude == nil {
		verr.Add("latitude", "latitude is required")
	}
	if p.Longitude == nil {
		verr.Add("longitude", "longitude is required")
	}
	if p.Speed != nil && *p.Speed < 0 {
		verr.Add("speed", "speed cannot be negative")
	}
	if p.Heading != nil && (*p.Heading < 0 || *p.Heading > 360) {
		verr.Add("heading", "heading must be between 0 and 360")
	}
	ts := now
	if p.Timestamp != nil && !p.Timestamp.IsZero() {
		ts = *p.Timestamp
		if ts.Sub(now) > MaxClockSkew {
			verr.Add("timestamp", "timestamp is too far in the future")
		}
	}
	if verr.HasErrors() {
		return transit.PositionReport{}, verr
	}

	loc := geo.Point{Lat: *p.Latitude, Lon: *p.Longitude}
	if err := loc.Validate(); err != nil {
		return transit.PositionReport{}, err
	}

	report := transit.PositionReport{
		VehicleID: vehicleID,
		RouteID:   routeID,
		Location:  loc,
		Heading:   p.Heading,
		Timestamp: ts,
	}
	if p.Speed != nil {
		report.Speed = *p.Speed
	}
	return report, nil
}

func (i *Ingestor) record(result string) {
	if i.metrics != nil {
		i.metrics.IngestResult(result)
	}
}
