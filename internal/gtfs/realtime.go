package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jamespfennell/gtfs"

	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/tracking"
)

// metersPerSecondToKmh converts GTFS-realtime speeds to the km/h the tracker stores.
const metersPerSecondToKmh = 3.6

func loadRealtimeData(ctx context.Context, client *http.Client, source string, headers map[string]string) (*gtfs.Realtime, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Add(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "gtfs_realtime_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, source)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return gtfs.ParseRealtime(b, &gtfs.ParseRealtimeOptions{})
}

type float interface {
	~float32 | ~float64
}

func deref[T float](p *T) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return float64(*p), true
}

// vehiclePayload converts a feed vehicle into an ingestion payload. Vehicles
// without an id, a trip route or a position are skipped.
func vehiclePayload(v gtfs.Vehicle, routeIDs map[string]string) (tracking.Payload, bool) {
	if v.ID == nil || v.ID.ID == "" || v.Trip == nil || v.Trip.ID.RouteID == "" || v.Position == nil {
		return tracking.Payload{}, false
	}
	lat, ok := deref(v.Position.Latitude)
	if !ok {
		return tracking.Payload{}, false
	}
	lon, ok := deref(v.Position.Longitude)
	if !ok {
		return tracking.Payload{}, false
	}

	routeID := v.Trip.ID.RouteID
	if mapped, ok := routeIDs[routeID]; ok {
		routeID = mapped
	}

	p := tracking.Payload{
		VehicleID: v.ID.ID,
		RouteID:   routeID,
		Latitude:  &lat,
		Longitude: &lon,
	}
	if speed, ok := deref(v.Position.Speed); ok && speed >= 0 {
		kmh := speed * metersPerSecondToKmh
		p.Speed = &kmh
	}
	if bearing, ok := deref(v.Position.Bearing); ok && bearing >= 0 && bearing <= 360 {
		p.Heading = &bearing
	}
	if v.Timestamp != nil && !v.Timestamp.IsZero() {
		ts := v.Timestamp.UTC().Truncate(time.Second)
		p.Timestamp = &ts
	}
	return p, true
}
