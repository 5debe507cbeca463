// Command migratetest migrates a copy of the production database to the embedded schema and checks that the
// stored responses survived.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/sqlite"
	"github.com/myrjola/totem/internal/testhelpers"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		sqliteURL string
		ok        bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd // 5 seconds
	defer cancel()

	if sqliteURL, ok = os.LookupEnv("KIOSK_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "KIOSK_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	count, err := db.CountResponses(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error counting responses", errors.SlogError(err))
		os.Exit(1)
	}
	if count == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no responses found, something is likely wrong")
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "response count", slog.Int("count", count))

	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
}
