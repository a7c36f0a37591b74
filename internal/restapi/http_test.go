package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"slugstop.org/tracker/internal/app"
	"slugstop.org/tracker/internal/appconf"
	"slugstop.org/tracker/internal/eta"
	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/metrics"
	"slugstop.org/tracker/internal/models"
	"slugstop.org/tracker/internal/network"
	"slugstop.org/tracker/internal/positions"
	"slugstop.org/tracker/internal/tracking"
	"slugstop.org/tracker/internal/transit"
)

func testStop(id, name string, lat, lon float64) transit.Stop {
	return transit.Stop{ID: id, Name: name, Location: geo.Point{Lat: lat, Lon: lon}, Active: true}
}

// testNetwork is a three stop loop plus a library stop that no route serves.
func testNetwork() *network.Definition {
	return &network.Definition{
		Stops: []transit.Stop{
			testStop("main", "Main Gate", 36.9776, -122.0536),
			testStop("quarry", "Quarry Plaza", 36.9975, -122.0555),
			testStop("science", "Science Hill", 36.9999, -122.0620),
			testStop("library", "McHenry Library", 36.9959, -122.0590),
		},
		Routes: []transit.Route{{
			ID:      "LOOP",
			Name:    "Campus Loop",
			Headway: 15,
			Active:  true,
			Stops: []transit.RouteStop{
				{StopID: "main", Sequence: 1},
				{StopID: "quarry", Sequence: 2, TravelTimeFromPrevious: 3},
				{StopID: "science", Sequence: 3, TravelTimeFromPrevious: 4},
			},
		}},
	}
}

// createTestApi creates a RestAPI over in-memory stores seeded with testNetwork.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewStructuredLogger(io.Discard, slog.LevelError)

	net := network.NewMemoryStore()
	require.NoError(t, network.Seed(ctx, net, testNetwork()))
	pos := positions.NewMemoryStore(10 * time.Minute)
	collector := metrics.NewCollector()

	application := &app.Application{
		Config: appconf.Config{
			Env:         appconf.EnvFlagToEnvironment("test"),
			ApiKeys:     []string{"TEST"},
			AdminKeys:   []string{"ADMIN"},
			RateLimit:   100,
			CORSOrigins: []string{"*"},
		},
		Logger:    logger,
		Network:   net,
		Positions: pos,
		ETA:       eta.NewService(net, pos, eta.WithLocation(time.UTC)),
		Ingestor:  tracking.NewIngestor(net, pos, tracking.WithMetrics(collector), tracking.WithLogger(logger)),
		Metrics:   collector,
		Health:    []app.HealthCheck{{Name: "positions", Check: pos.Ping}},
	}

	return NewRestAPI(application)
}

// serveAndRetrieveEndpoint sets up a test server, makes a request to the specified endpoint, and returns the response
// and decoded model.
func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	return requestEndpoint(t, api, http.MethodGet, endpoint, nil)
}

// requestEndpoint sends body, JSON encoded when not nil, through the full handler stack.
func requestEndpoint(t *testing.T, api *RestAPI, method, endpoint string, body any) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, server.URL+endpoint, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var response models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	return resp, response
}

func dataOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object, got %T", model.Data)
	return data
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	entry, ok := dataOf(t, model)["entry"].(map[string]interface{})
	require.True(t, ok, "data.entry should be an object")
	return entry
}

func listOf(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	list, ok := dataOf(t, model)["list"].([]interface{})
	require.True(t, ok, "data.list should be an array")
	return list
}

// postPosition pushes a report for vehicleID stamped now.
func postPosition(t *testing.T, api *RestAPI, vehicleID string, lat, lon, speed float64) {
	t.Helper()
	resp, _ := requestEndpoint(t, api, http.MethodPost, "/api/positions?key=TEST", map[string]any{
		"vehicleId": vehicleID,
		"routeId":   "LOOP",
		"latitude":  lat,
		"longitude": lon,
		"speed":     speed,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
