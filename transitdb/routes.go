package transitdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/transit"
)

const routeColumns = `route_id, name, headway, peak_headway, off_peak_headway,
	weekday_start, weekday_end, weekend_start, weekend_end, active`

func scanRoute(row rowScanner) (transit.Route, error) {
	var (
		r      transit.Route
		active int
	)
	err := row.Scan(&r.ID, &r.Name, &r.Headway, &r.PeakHeadway, &r.OffPeakHeadway,
		&r.OperatingHours.Weekday.Start, &r.OperatingHours.Weekday.End,
		&r.OperatingHours.Weekend.Start, &r.OperatingHours.Weekend.End, &active)
	if err != nil {
		return transit.Route{}, err
	}
	r.Active = active != 0
	r.Stops = []transit.RouteStop{}
	return r, nil
}

// GetRoute returns an active route with its ordered stops.
func (c *Client) GetRoute(ctx context.Context, routeID string) (*transit.Route, error) {
	row := c.DB.QueryRowContext(ctx,
		c.rebind(`SELECT `+routeColumns+` FROM routes WHERE route_id = ? AND active = 1`), routeID)
	r, err := scanRoute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", transit.ErrRouteNotFound, routeID)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying route %s: %w", routeID, err)
	}

	byRoute, err := c.routeStops(ctx, `WHERE route_id = ?`, routeID)
	if err != nil {
		return nil, err
	}
	if stops, ok := byRoute[r.ID]; ok {
		r.Stops = stops
	}
	return &r, nil
}

// ListActiveRoutes returns active routes ordered by id.
func (c *Client) ListActiveRoutes(ctx context.Context) ([]transit.Route, error) {
	routes, err := c.activeRoutes(ctx)
	if err != nil {
		return nil, err
	}

	byRoute, err := c.routeStops(ctx, ``)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		if stops, ok := byRoute[routes[i].ID]; ok {
			routes[i].Stops = stops
		}
	}
	return routes, nil
}

func (c *Client) activeRoutes(ctx context.Context) (routes []transit.Route, err error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE active = 1 ORDER BY route_id`)
	if err != nil {
		return nil, fmt.Errorf("error querying routes: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close_route_rows")

	routes = []transit.Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

// routeStops loads route_stops rows grouped by route and ordered by sequence.
func (c *Client) routeStops(ctx context.Context, where string, args ...any) (byRoute map[string][]transit.RouteStop, err error) {
	query := `SELECT route_id, stop_id, sequence, travel_time_from_previous FROM route_stops ` +
		where + ` ORDER BY route_id, sequence`
	rows, err := c.DB.QueryContext(ctx, c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying route stops: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close_route_stop_rows")

	byRoute = make(map[string][]transit.RouteStop)
	for rows.Next() {
		var (
			routeID string
			rs      transit.RouteStop
		)
		if err := rows.Scan(&routeID, &rs.StopID, &rs.Sequence, &rs.TravelTimeFromPrevious); err != nil {
			return nil, fmt.Errorf("error scanning route stop: %w", err)
		}
		byRoute[routeID] = append(byRoute[routeID], rs)
	}
	return byRoute, rows.Err()
}

// UpsertRoute replaces a route and its stop list in one transaction.
func (c *Client) UpsertRoute(ctx context.Context, route transit.Route) error {
	if err := route.Validate(); err != nil {
		return err
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "upsert_route")

	for _, rs := range route.Stops {
		var n int
		if err := tx.QueryRowContext(ctx, c.rebind(`SELECT COUNT(*) FROM stops WHERE stop_id = ?`), rs.StopID).Scan(&n); err != nil {
			return fmt.Errorf("error checking stop %s: %w", rs.StopID, err)
		}
		if n == 0 {
			return fmt.Errorf("route %s: %w: %s", route.ID, transit.ErrStopNotFound, rs.StopID)
		}
	}

	hours := route.OperatingHours
	_, err = tx.ExecContext(ctx, c.rebind(`
		INSERT INTO routes (route_id, name, headway, peak_headway, off_peak_headway,
			weekday_start, weekday_end, weekend_start, weekend_end, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (route_id) DO UPDATE SET
			name = excluded.name,
			headway = excluded.headway,
			peak_headway = excluded.peak_headway,
			off_peak_headway = excluded.off_peak_headway,
			weekday_start = excluded.weekday_start,
			weekday_end = excluded.weekday_end,
			weekend_start = excluded.weekend_start,
			weekend_end = excluded.weekend_end,
			active = excluded.active
	`), route.ID, route.Name, route.Headway, route.PeakHeadway, route.OffPeakHeadway,
		hours.Weekday.Start, hours.Weekday.End, hours.Weekend.Start, hours.Weekend.End,
		boolToInt(route.Active))
	if err != nil {
		return fmt.Errorf("error upserting route %s: %w", route.ID, err)
	}

	if _, err := tx.ExecContext(ctx, c.rebind(`DELETE FROM route_stops WHERE route_id = ?`), route.ID); err != nil {
		return fmt.Errorf("error clearing stops for route %s: %w", route.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, c.rebind(`
		INSERT INTO route_stops (route_id, stop_id, sequence, travel_time_from_previous)
		VALUES (?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.SafeCloseWithLogging(stmt, c.logger, "close_route_stop_stmt")

	for _, rs := range route.Stops {
		if _, err := stmt.ExecContext(ctx, route.ID, rs.StopID, rs.Sequence, rs.TravelTimeFromPrevious); err != nil {
			return fmt.Errorf("error inserting stop %s for route %s: %w", rs.StopID, route.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
