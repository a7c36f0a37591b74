package main

import (
	"context"
	"fmt"
	"log/slog"

	"slugstop.org/tracker/internal/app"
	"slugstop.org/tracker/internal/appconf"
	"slugstop.org/tracker/internal/eta"
	"slugstop.org/tracker/internal/gtfs"
	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/metrics"
	"slugstop.org/tracker/internal/network"
	"slugstop.org/tracker/internal/positions"
	"slugstop.org/tracker/internal/publisher"
	"slugstop.org/tracker/internal/tracking"
	"slugstop.org/tracker/transitdb"
)

// services is everything run needs, plus the resources to release on exit.
type services struct {
	app     *app.Application
	poller  *gtfs.Poller
	closers []func()
}

// Close stops the poller and releases connections in reverse order of creation.
func (s *services) Close() {
	if s.poller != nil {
		s.poller.Shutdown()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildApplication(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (_ *services, err error) {
	svc := &services{}
	defer func() {
		if err != nil {
			svc.Close()
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	collector := metrics.NewCollector()
	var health []app.HealthCheck

	store, err := openNetwork(ctx, cfg, logger, svc)
	if err != nil {
		return nil, err
	}
	if cfg.NetworkFile != "" {
		def, err := network.LoadFile(cfg.NetworkFile)
		if err != nil {
			return nil, err
		}
		if err := network.Seed(ctx, store, def); err != nil {
			return nil, err
		}
		logging.LogOperation(logger, "network_seeded",
			slog.String("file", cfg.NetworkFile),
			slog.Int("stops", len(def.Stops)),
			slog.Int("routes", len(def.Routes)))
	}
	if db, ok := store.(*transitdb.Client); ok {
		health = append(health, app.HealthCheck{Name: "database", Check: db.Ping})
	}

	posStore, err := openPositions(cfg, svc, logger)
	if err != nil {
		return nil, err
	}
	health = append(health, app.HealthCheck{Name: "positions", Check: posStore.Ping})

	ingestOpts := []tracking.Option{
		tracking.WithMetrics(collector),
		tracking.WithLogger(logger),
	}
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, logger, collector)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, pub.Close)
		ingestOpts = append(ingestOpts, tracking.WithPublisher(pub))
	}
	ingestor := tracking.NewIngestor(store, posStore, ingestOpts...)

	etaService := eta.NewService(store, posStore,
		eta.WithLocation(loc),
		eta.WithPolicy(eta.Policy{
			FreshnessWindow: cfg.FreshnessWindow,
			DefaultSpeedKmh: cfg.DefaultSpeedKmh,
			MinimumMinutes:  cfg.MinimumMinutes,
			Tolerance:       cfg.Tolerance,

			RankAtDefaultSpeed: cfg.RankAtDefaultSpeed,
		}))

	svc.poller = gtfs.NewPoller(gtfs.Config{
		VehiclePositionsURL:     cfg.VehiclePositionsURL,
		RealTimeAuthHeaderKey:   cfg.RealTimeAuthHeaderKey,
		RealTimeAuthHeaderValue: cfg.RealTimeAuthHeaderValue,
		PollInterval:            cfg.FeedPollInterval,
	}, ingestor, collector, logger)

	svc.app = &app.Application{
		Config:    cfg,
		Logger:    logger,
		Network:   store,
		Positions: posStore,
		ETA:       etaService,
		Ingestor:  ingestor,
		Metrics:   collector,
		Health:    health,
	}
	return svc, nil
}

// openNetwork returns the SQL store when a database URL is configured and
// the in-memory store otherwise.
func openNetwork(ctx context.Context, cfg appconf.Config, logger *slog.Logger, svc *services) (app.NetworkStore, error) {
	if cfg.DatabaseURL == "" {
		return network.NewMemoryStore(), nil
	}
	client, err := transitdb.NewClient(ctx, transitdb.NewConfig(cfg.DatabaseDriver, cfg.DatabaseURL, logger))
	if err != nil {
		return nil, fmt.Errorf("opening network database: %w", err)
	}
	svc.closers = append(svc.closers, func() {
		logging.SafeCloseWithLogging(client, logger, "network_database")
	})
	return client, nil
}

// openPositions keeps reports for one freshness window, in Redis when configured.
func openPositions(cfg appconf.Config, svc *services, logger *slog.Logger) (positions.Store, error) {
	if cfg.RedisURL == "" {
		return positions.NewMemoryStore(cfg.FreshnessWindow), nil
	}
	rdb, err := positions.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, func() { _ = rdb.Close() })
	return positions.NewRedisStore(rdb, cfg.FreshnessWindow, logger), nil
}
