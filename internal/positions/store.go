// Package positions keeps the latest position report of every vehicle for as
// long as the freshness window allows.
package positions

import (
	"context"
	"time"

	"slugstop.org/tracker/internal/transit"
)

// Store holds the latest report per vehicle.
type Store interface {
	// Save stores report unless a newer report for the same vehicle is already
	// held. It returns false when the report was ignored as out of date.
	Save(ctx context.Context, report transit.PositionReport) (bool, error)
	RecentForRoute(ctx context.Context, routeID string, since time.Time) ([]transit.PositionReport, error)
	Recent(ctx context.Context, since time.Time) ([]transit.PositionReport, error)
	Ping(ctx context.Context) error
}
