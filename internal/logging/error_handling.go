package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// SafeCloseWithLogging closes a resource and logs any errors that occur
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		LogError(logger, "failed to close resource", err,
			slog.String("operation", operation),
			slog.String("component", "resource_management"))
	}
}

// SafeRollbackWithLogging rolls back a transaction and logs failures.
// sql.ErrTxDone is ignored so the call can be deferred ahead of Commit.
func SafeRollbackWithLogging(tx interface{ Rollback() error }, logger *slog.Logger, operation string) {
	if tx == nil {
		return
	}

	if err := tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return
		}
		LogError(logger, "failed to rollback transaction", err,
			slog.String("operation", operation),
			slog.String("component", "database"))
	}
}

// HandleDeferredError runs deferredOp and, when it fails, logs the failure and
// reports it through originalErr unless an earlier error is already set.
func HandleDeferredError(originalErr *error, deferredOp func() error, logger *slog.Logger, operation string) {
	if deferredOp == nil {
		return
	}

	if err := deferredOp(); err != nil {
		LogError(logger, "deferred operation failed", err,
			slog.String("operation", operation),
			slog.String("component", "deferred_cleanup"))

		if *originalErr == nil {
			*originalErr = fmt.Errorf("%s failed: %w", operation, err)
		}
	}
}
