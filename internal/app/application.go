// Package app wires the tracker's long-lived dependencies together for the
// HTTP layer.
package app

import (
	"context"
	"log/slog"

	"slugstop.org/tracker/internal/appconf"
	"slugstop.org/tracker/internal/eta"
	"slugstop.org/tracker/internal/metrics"
	"slugstop.org/tracker/internal/network"
	"slugstop.org/tracker/internal/positions"
	"slugstop.org/tracker/internal/tracking"
)

// NetworkStore is a network store the API can read and administer.
type NetworkStore interface {
	eta.NetworkReader
	network.Writer
}

// HealthCheck probes one backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config    appconf.Config
	Logger    *slog.Logger
	Network   NetworkStore
	Positions positions.Store
	ETA       *eta.Service
	Ingestor  *tracking.Ingestor
	Metrics   *metrics.Collector
	Health    []HealthCheck
}
