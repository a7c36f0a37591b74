package transitdb

import "log/slog"

const (
	// DriverSQLite selects the pure Go SQLite driver.
	DriverSQLite = "sqlite"
	// DriverPostgres selects pgx through database/sql.
	DriverPostgres = "pgx"
)

// Config holds configuration options for the Client
type Config struct {
	Driver string // DriverSQLite or DriverPostgres
	DSN    string // file path or ":memory:" for sqlite, connection URL for postgres

	MaxOpenConns int
	Logger       *slog.Logger
}

// NewConfig returns a Config with pool defaults filled in.
func NewConfig(driver, dsn string, logger *slog.Logger) Config {
	if driver == "" {
		driver = DriverSQLite
	}
	return Config{
		Driver:       driver,
		DSN:          dsn,
		MaxOpenConns: 25,
		Logger:       logger,
	}
}
