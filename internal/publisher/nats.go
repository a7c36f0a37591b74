// Package publisher fans accepted position reports out to NATS subscribers.
package publisher

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/transit"
)

// SubjectPrefix is the first token of every position subject.
const SubjectPrefix = "positions"

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// conn is the slice of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

type NATSPublisher struct {
	nc      conn
	logger  *slog.Logger
	metrics PublisherMetrics
}

// NewNATSPublisher connects to url. m may be nil.
func NewNATSPublisher(url string, logger *slog.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	logger = logging.Component(logger, "nats_publisher")
	nc, err := nats.Connect(url,
		nats.Name("slugstop-tracker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			if err != nil {
				logging.LogError(logger, "nats disconnected", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return newPublisher(nc, logger, m), nil
}

func newPublisher(nc conn, logger *slog.Logger, m PublisherMetrics) *NATSPublisher {
	return &NATSPublisher{nc: nc, logger: logger, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			logging.LogError(p.logger, "nats drain failed", err)
		}
		p.nc.Close()
	}
}

// PositionMessage is the JSON body published for each accepted report.
type PositionMessage struct {
	VehicleID string    `json:"vehicleId"`
	RouteID   string    `json:"routeId"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	SpeedKmh  float64   `json:"speedKmh"`
	Heading   *float64  `json:"heading,omitempty"`
}

// Subject returns positions.{route}.{vehicle} with both tokens sanitised.
func Subject(routeID, vehicleID string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, subjectToken(routeID), subjectToken(vehicleID))
}

// PublishPosition publishes report on its route/vehicle subject.
func (p *NATSPublisher) PublishPosition(report transit.PositionReport) error {
	msg := PositionMessage{
		VehicleID: report.VehicleID,
		RouteID:   report.RouteID,
		Timestamp: report.Timestamp.UTC(),
		Lat:       report.Location.Lat,
		Lon:       report.Location.Lon,
		SpeedKmh:  report.Speed,
		Heading:   report.Heading,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	subject := Subject(report.RouteID, report.VehicleID)
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	if err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	p.logger.Debug("position published", slog.String("subject", subject))
	return nil
}

var tokenReplacer = strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")

func subjectToken(s string) string {
	// NATS tokens cannot contain spaces, '>', '*' or '.'
	s = tokenReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		s = "_"
	}
	return s
}
