package transitdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slugstop.org/tracker/internal/geo"
	"slugstop.org/tracker/internal/transit"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), NewConfig(DriverSQLite, ":memory:", nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newStop(id, name string, lat, lon float64) transit.Stop {
	return transit.Stop{ID: id, Name: name, Location: geo.Point{Lat: lat, Lon: lon}, Active: true}
}

func campusLoop() transit.Route {
	return transit.Route{
		ID:          "LOOP",
		Name:        "Campus Loop",
		Headway:     15,
		PeakHeadway: 10,
		Active:      true,
		OperatingHours: transit.OperatingHours{
			Weekday: transit.ServiceWindow{Start: "07:00", End: "23:00"},
		},
		Stops: []transit.RouteStop{
			{StopID: "main", Sequence: 1},
			{StopID: "science", Sequence: 2, TravelTimeFromPrevious: 4},
			{StopID: "east", Sequence: 3, TravelTimeFromPrevious: 6},
		},
	}
}

func seedCampus(t *testing.T, c *Client) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.UpsertStop(ctx, newStop("main", "Main Gate", 36.9776, -122.0536)))
	require.NoError(t, c.UpsertStop(ctx, newStop("science", "Science Hill", 36.9999, -122.0620)))
	require.NoError(t, c.UpsertStop(ctx, newStop("east", "East Remote", 36.9912, -122.0532)))
	require.NoError(t, c.UpsertRoute(ctx, campusLoop()))
}

func TestNewClient(t *testing.T) {
	t.Run("in-memory sqlite", func(t *testing.T) {
		c := newTestClient(t)
		assert.NoError(t, c.Ping(context.Background()))
		assert.Equal(t, 1, c.DB.Stats().MaxOpenConnections)
	})

	t.Run("migration is idempotent", func(t *testing.T) {
		c := newTestClient(t)
		assert.NoError(t, c.migrate(context.Background()))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewClient(context.Background(), NewConfig("oracle", "x", nil))
		assert.Error(t, err)
	})

	t.Run("default driver is sqlite", func(t *testing.T) {
		assert.Equal(t, DriverSQLite, NewConfig("", ":memory:", nil).Driver)
	})
}

func TestRebind(t *testing.T) {
	pg := &Client{config: Config{Driver: DriverPostgres}}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &Client{config: Config{Driver: DriverSQLite}}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestStops(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	seedCampus(t, c)

	t.Run("get", func(t *testing.T) {
		s, err := c.GetStop(ctx, "science")
		require.NoError(t, err)
		assert.Equal(t, "Science Hill", s.Name)
		assert.InDelta(t, 36.9999, s.Location.Lat, 1e-9)
		assert.True(t, s.Active)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := c.GetStop(ctx, "ghost")
		assert.ErrorIs(t, err, transit.ErrStopNotFound)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		stops, err := c.ListActiveStops(ctx)
		require.NoError(t, err)
		require.Len(t, stops, 3)
		assert.Equal(t, []string{"East Remote", "Main Gate", "Science Hill"},
			[]string{stops[0].Name, stops[1].Name, stops[2].Name})
	})

	t.Run("update in place", func(t *testing.T) {
		updated := newStop("east", "East Remote Lot", 36.9913, -122.0533)
		updated.Description = "Shuttle shelter"
		require.NoError(t, c.UpsertStop(ctx, updated))

		s, err := c.GetStop(ctx, "east")
		require.NoError(t, err)
		assert.Equal(t, "East Remote Lot", s.Name)
		assert.Equal(t, "Shuttle shelter", s.Description)
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := c.UpsertStop(ctx, newStop("other", "Main Gate", 36.98, -122.05))
		require.ErrorIs(t, err, transit.ErrValidationFailed)
		var verr *transit.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.FieldErrors, "name")
	})

	t.Run("invalid stop", func(t *testing.T) {
		err := c.UpsertStop(ctx, newStop("", "", 200, 0))
		assert.ErrorIs(t, err, transit.ErrValidationFailed)
	})

	t.Run("deactivate", func(t *testing.T) {
		require.NoError(t, c.DeactivateStop(ctx, "east"))

		stops, err := c.ListActiveStops(ctx)
		require.NoError(t, err)
		assert.Len(t, stops, 2)

		s, err := c.GetStop(ctx, "east")
		require.NoError(t, err)
		assert.False(t, s.Active)

		r, err := c.GetRoute(ctx, "LOOP")
		require.NoError(t, err)
		assert.Len(t, r.Stops, 3)
	})

	t.Run("deactivate unknown", func(t *testing.T) {
		assert.ErrorIs(t, c.DeactivateStop(ctx, "ghost"), transit.ErrStopNotFound)
	})
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	seedCampus(t, c)

	t.Run("get with stops in order", func(t *testing.T) {
		r, err := c.GetRoute(ctx, "LOOP")
		require.NoError(t, err)
		assert.Equal(t, campusLoop(), *r)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := c.GetRoute(ctx, "NOPE")
		assert.ErrorIs(t, err, transit.ErrRouteNotFound)
	})

	t.Run("replace stop list", func(t *testing.T) {
		r := campusLoop()
		r.Stops = r.Stops[:2]
		r.Headway = 20
		require.NoError(t, c.UpsertRoute(ctx, r))

		got, err := c.GetRoute(ctx, "LOOP")
		require.NoError(t, err)
		assert.Equal(t, 20, got.Headway)
		assert.Len(t, got.Stops, 2)
	})

	t.Run("unknown stop rolls back", func(t *testing.T) {
		r := campusLoop()
		r.Name = "Should Not Persist"
		r.Stops = append(r.Stops, transit.RouteStop{StopID: "ghost", Sequence: 4, TravelTimeFromPrevious: 1})
		require.ErrorIs(t, c.UpsertRoute(ctx, r), transit.ErrStopNotFound)

		got, err := c.GetRoute(ctx, "LOOP")
		require.NoError(t, err)
		assert.NotEqual(t, "Should Not Persist", got.Name)
	})

	t.Run("invalid route", func(t *testing.T) {
		r := campusLoop()
		r.Stops[1].Sequence = 5
		assert.ErrorIs(t, c.UpsertRoute(ctx, r), transit.ErrValidationFailed)
	})

	t.Run("list hides inactive routes", func(t *testing.T) {
		night := transit.Route{
			ID: "NIGHT", Name: "Night Owl", Headway: 30, Active: true,
			Stops: []transit.RouteStop{{StopID: "main", Sequence: 1}},
		}
		retired := transit.Route{ID: "OLD", Name: "Retired", Headway: 30, Active: false}
		require.NoError(t, c.UpsertRoute(ctx, night))
		require.NoError(t, c.UpsertRoute(ctx, retired))

		routes, err := c.ListActiveRoutes(ctx)
		require.NoError(t, err)
		require.Len(t, routes, 2)
		assert.Equal(t, "LOOP", routes[0].ID)
		assert.Equal(t, "NIGHT", routes[1].ID)
		assert.Len(t, routes[1].Stops, 1)

		_, err = c.GetRoute(ctx, "OLD")
		assert.ErrorIs(t, err, transit.ErrRouteNotFound)
	})
}
