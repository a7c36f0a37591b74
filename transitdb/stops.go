package transitdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/transit"
)

const stopColumns = `stop_id, name, description, lat, lon, active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStop(row rowScanner) (transit.Stop, error) {
	var (
		s      transit.Stop
		active int
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Location.Lat, &s.Location.Lon, &active); err != nil {
		return transit.Stop{}, err
	}
	s.Active = active != 0
	return s, nil
}

// GetStop returns a stop by id, active or not.
func (c *Client) GetStop(ctx context.Context, stopID string) (*transit.Stop, error) {
	row := c.DB.QueryRowContext(ctx, c.rebind(`SELECT `+stopColumns+` FROM stops WHERE stop_id = ?`), stopID)
	s, err := scanStop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", transit.ErrStopNotFound, stopID)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying stop %s: %w", stopID, err)
	}
	return &s, nil
}

// ListActiveStops returns active stops ordered by name.
func (c *Client) ListActiveStops(ctx context.Context) (stops []transit.Stop, err error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT `+stopColumns+` FROM stops WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error querying stops: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close_stop_rows")

	stops = []transit.Stop{}
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning stop: %w", err)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// UpsertStop inserts or replaces a stop. Names are unique across stops.
func (c *Client) UpsertStop(ctx context.Context, stop transit.Stop) error {
	if err := stop.Validate(); err != nil {
		return err
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "upsert_stop")

	var other string
	err = tx.QueryRowContext(ctx,
		c.rebind(`SELECT stop_id FROM stops WHERE name = ? AND stop_id <> ? LIMIT 1`),
		stop.Name, stop.ID,
	).Scan(&other)
	switch {
	case err == nil:
		verr := transit.NewValidationError()
		verr.Add("name", fmt.Sprintf("name %q already used by stop %s", stop.Name, other))
		return verr
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("error checking stop name: %w", err)
	}

	_, err = tx.ExecContext(ctx, c.rebind(`
		INSERT INTO stops (stop_id, name, description, lat, lon, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (stop_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			lat = excluded.lat,
			lon = excluded.lon,
			active = excluded.active
	`), stop.ID, stop.Name, stop.Description, stop.Location.Lat, stop.Location.Lon, boolToInt(stop.Active))
	if err != nil {
		return fmt.Errorf("error upserting stop %s: %w", stop.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// DeactivateStop soft-deletes a stop so routes keep their references.
func (c *Client) DeactivateStop(ctx context.Context, stopID string) error {
	res, err := c.DB.ExecContext(ctx, c.rebind(`UPDATE stops SET active = 0 WHERE stop_id = ?`), stopID)
	if err != nil {
		return fmt.Errorf("error deactivating stop %s: %w", stopID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deactivating stop %s: %w", stopID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", transit.ErrStopNotFound, stopID)
	}
	return nil
}
