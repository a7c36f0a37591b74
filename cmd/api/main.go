package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slugstop.org/tracker/internal/appconf"
	"slugstop.org/tracker/internal/logging"
	"slugstop.org/tracker/internal/restapi"
)

func main() {
	if err := appconf.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := appconf.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logging.LogError(logger, "tracker stopped", err)
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled, then shuts everything down.
func run(ctx context.Context, cfg appconf.Config, logger *slog.Logger) error {
	svc, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.poller.Start()

	api := restapi.NewRestAPI(svc.app)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "starting_server",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env.String()))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.LogOperation(logger, "shutting_down_server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
