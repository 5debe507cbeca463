package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/persistence"
	"github.com/myrjola/totem/internal/postgres"
	"github.com/myrjola/totem/internal/sheets"
	"github.com/myrjola/totem/internal/sqlite"
)

var errUnknownGateway = errors.NewSentinel("unknown gateway")

// openAppender connects the response store selected by cfg.Gateway. A store that cannot be opened is replaced
// with [persistence.Unavailable] so that the kiosk keeps running and every save ends in the error status.
// The returned func releases the store.
func openAppender(ctx context.Context, cfg config, logger *slog.Logger) (persistence.Appender, func()) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()
	logger = logger.With(slog.String("gateway", cfg.Gateway))

	var (
		appender persistence.Appender
		closer   func() error
		err      error
	)
	switch cfg.Gateway {
	case "sheets":
		appender, err = sheets.New(ctx, sheets.Config{
			ServiceAccountEmail: cfg.ServiceAccountEmail,
			PrivateKey:          cfg.PrivateKey,
			SpreadsheetID:       cfg.SheetID,
			Range:               cfg.SheetRange,
		})
	case "sqlite":
		var db *sqlite.Database
		if db, err = sqlite.NewDatabase(openCtx, cfg.SQLiteURL, logger); err == nil {
			appender, closer = db, db.Close
			go db.StartOptimizer(ctx, time.Hour)
		}
	case "postgres":
		if cfg.PostgresURL == "" {
			err = persistence.ErrNotConfigured
			break
		}
		var store *postgres.Store
		if store, err = postgres.Open(openCtx, cfg.PostgresURL, logger); err == nil {
			appender, closer = store, store.Close
		}
	default:
		err = errUnknownGateway
	}
	if err != nil {
		err = errors.Wrap(err, "open appender", slog.String("gateway", cfg.Gateway))
		logger.LogAttrs(ctx, slog.LevelError, "responses will not be saved", errors.SlogError(err))
		return persistence.Unavailable{Err: err}, func() {}
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "opened response store")
	return appender, func() {
		if closer == nil {
			return
		}
		if closeErr := closer(); closeErr != nil {
			closeErr = errors.Wrap(closeErr, "close appender")
			logger.LogAttrs(context.Background(), slog.LevelError, "failed to close response store",
				errors.SlogError(closeErr))
		}
	}
}
