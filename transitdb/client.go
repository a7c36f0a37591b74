// Package transitdb persists the campus network (stops, routes and their
// ordered stop lists) in SQLite or Postgres.
package transitdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // Pure Go SQLite driver

	"slugstop.org/tracker/internal/logging"
)

//go:embed schema.sql
var ddl string

// Client is a network store backed by database/sql.
type Client struct {
	config Config
	DB     *sql.DB
	logger *slog.Logger
}

// NewClient opens the database and applies the schema.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	switch config.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if config.Driver == DriverSQLite && (config.DSN == ":memory:" || strings.Contains(config.DSN, "mode=memory")) {
		// every sqlite connection gets its own in-memory database
		db.SetMaxOpenConns(1)
	} else if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{config: config, DB: db, logger: logging.Component(logger, "transitdb")}

	if err := c.migrate(ctx); err != nil {
		logging.SafeCloseWithLogging(db, c.logger, "close_after_failed_migration")
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}
	return c, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// Ping checks the database connection with the caller's deadline.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if _, err := c.DB.ExecContext(ctx, trimmed); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmed, err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (c *Client) rebind(query string) string {
	if c.config.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
