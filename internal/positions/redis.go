package positions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/transit"
)

const allVehiclesKey = "vehicles:active"

// maxSaveAttempts bounds optimistic retries when another writer touches the
// same vehicle between WATCH and EXEC.
const maxSaveAttempts = 16

func positionKey(vehicleID string) string {
	return fmt.Sprintf("position:%s", vehicleID)
}

func routeVehiclesKey(routeID string) string {
	return fmt.Sprintf("route:%s:vehicles", routeID)
}

// RedisStore keeps one JSON document per vehicle that expires after the
// retention window, plus sets indexing vehicles by route.
type RedisStore struct {
	rdb       *redis.Client
	retention time.Duration
	logger    *slog.Logger
}

// NewRedisStore returns a Store backed by rdb.
func NewRedisStore(rdb *redis.Client, retention time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{rdb: rdb, retention: retention, logger: logging.Component(logger, "positions")}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Save is last-write-wins on report timestamp. The vehicle key is watched so
// a concurrent write between the read and the EXEC aborts and retries.
func (s *RedisStore) Save(ctx context.Context, report transit.PositionReport) (bool, error) {
	key := positionKey(report.VehicleID)
	b, err := json.Marshal(report)
	if err != nil {
		return false, err
	}

	var saved bool
	txf := func(tx *redis.Tx) error {
		saved = false
		current, err := s.get(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != nil && current.Timestamp.After(report.Timestamp) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.retention)
			pipe.SAdd(ctx, routeVehiclesKey(report.RouteID), report.VehicleID)
			pipe.SAdd(ctx, allVehiclesKey, report.VehicleID)
			if current != nil && current.RouteID != report.RouteID {
				pipe.SRem(ctx, routeVehiclesKey(current.RouteID), report.VehicleID)
			}
			return nil
		})
		if err == nil {
			saved = true
		}
		return err
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("saving position for %s: %w", report.VehicleID, err)
		}
		return saved, nil
	}
	return false, fmt.Errorf("saving position for %s: gave up after %d attempts: %w", report.VehicleID, maxSaveAttempts, redis.TxFailedErr)
}

func (s *RedisStore) RecentForRoute(ctx context.Context, routeID string, since time.Time) ([]transit.PositionReport, error) {
	return s.collect(ctx, routeVehiclesKey(routeID), routeID, since)
}

func (s *RedisStore) Recent(ctx context.Context, since time.Time) ([]transit.PositionReport, error) {
	return s.collect(ctx, allVehiclesKey, "", since)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// collect loads every member of setKey. Members whose document expired, or
// that moved to another route, are removed from the set.
func (s *RedisStore) collect(ctx context.Context, setKey, routeID string, since time.Time) ([]transit.PositionReport, error) {
	ids, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", setKey, err)
	}
	out := make([]transit.PositionReport, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = positionKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}

	var gone []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			gone = append(gone, ids[i])
			continue
		}
		var report transit.PositionReport
		if err := json.Unmarshal([]byte(raw), &report); err != nil {
			logging.LogError(s.logger, "corrupt position document", err, slog.String("vehicle_id", ids[i]))
			gone = append(gone, ids[i])
			continue
		}
		if routeID != "" && report.RouteID != routeID {
			gone = append(gone, ids[i])
			continue
		}
		if report.Timestamp.Before(since) {
			continue
		}
		out = append(out, report)
	}

	if len(gone) > 0 {
		if err := s.rdb.SRem(ctx, setKey, gone...).Err(); err != nil {
			logging.LogError(s.logger, "failed to prune vehicle index", err, slog.String("set", setKey))
		}
	}

	sortReports(out)
	return out, nil
}

// get reads one position document. A document that no longer decodes is
// logged and treated as absent so the next report replaces it.
func (s *RedisStore) get(ctx context.Context, rdb redis.Cmdable, key string) (*transit.PositionReport, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	var report transit.PositionReport
	if err := json.Unmarshal(raw, &report); err != nil {
		logging.LogError(s.logger, "corrupt position document", err, slog.String("key", key))
		return nil, nil
	}
	return &report, nil
}
