// Package gtfs polls a GTFS-realtime vehicle positions feed and feeds the
// vehicles into the tracking pipeline.
package gtfs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/tracking"
	"slugstop.org/tracker/internal/transit"
)

type Ingester interface {
	Ingest(ctx context.Context, p tracking.Payload) (tracking.Result, error)
}

type PollMetrics interface {
	FeedPolled(err error, vehicles int)
}

// Poller downloads the vehicle feed on an interval until Shutdown.
type Poller struct {
	config       Config
	ingester     Ingester
	client       *http.Client
	metrics      PollMetrics
	logger       *slog.Logger
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	startOnce    sync.Once
}

// NewPoller returns a poller. metrics may be nil.
func NewPoller(config Config, ingester Ingester, metrics PollMetrics, logger *slog.Logger) *Poller {
	return &Poller{
		config:       config.withDefaults(),
		ingester:     ingester,
		client:       &http.Client{},
		metrics:      metrics,
		logger:       logging.Component(logger, "gtfs_realtime"),
		shutdownChan: make(chan struct{}),
	}
}

// Start runs one poll immediately and then polls in the background.
// It does nothing when no feed URL is configured.
func (p *Poller) Start() {
	if !p.config.realTimeDataEnabled() {
		return
	}
	p.startOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.config.PollTimeout)
		defer cancel()
		_, _ = p.PollOnce(ctx)

		p.wg.Add(1)
		go p.pollPeriodically()
	})
}

// Shutdown stops the background goroutine and waits for it to exit.
func (p *Poller) Shutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdownChan)
		p.wg.Wait()
	})
}

// PollOnce fetches the feed and ingests every usable vehicle. It returns the
// number of reports the store accepted.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	data, err := loadRealtimeData(ctx, p.client, p.config.VehiclePositionsURL, p.config.headers())
	if err != nil {
		logging.LogError(p.logger, "Error loading GTFS-RT vehicle positions data", err,
			slog.String("url", p.config.VehiclePositionsURL))
		if p.metrics != nil {
			p.metrics.FeedPolled(err, 0)
		}
		return 0, err
	}

	accepted, skipped, failed := 0, 0, 0
	for _, v := range data.Vehicles {
		payload, ok := vehiclePayload(v, p.config.RouteIDs)
		if !ok {
			skipped++
			continue
		}
		res, err := p.ingester.Ingest(ctx, payload)
		switch {
		case err == nil:
			if res.Stored {
				accepted++
			}
		case errors.Is(err, transit.ErrRouteNotFound), errors.Is(err, transit.ErrValidationFailed),
			errors.Is(err, transit.ErrInvalidCoordinate):
			skipped++
			p.logger.Debug("skipping feed vehicle",
				slog.String("vehicle_id", payload.VehicleID),
				slog.String("reason", err.Error()))
		default:
			failed++
			logging.LogError(p.logger, "failed to ingest feed vehicle", err,
				slog.String("vehicle_id", payload.VehicleID))
		}
	}

	if p.metrics != nil {
		p.metrics.FeedPolled(nil, accepted)
	}
	logging.LogOperation(p.logger, "gtfs_realtime_vehicles_ingested",
		slog.Int("vehicles", len(data.Vehicles)),
		slog.Int("accepted", accepted),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed))
	return accepted, nil
}

func (p *Poller) pollPeriodically() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.config.PollTimeout)
			ctx = logging.WithLogger(ctx, p.logger)
			_, _ = p.PollOnce(ctx)
			cancel()
		case <-p.shutdownChan:
			logging.LogOperation(p.logger, "shutting_down_realtime_updates")
			return
		}
	}
}
