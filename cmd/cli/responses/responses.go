// Package responses holds the commands that read responses kept in the local SQLite store.
package responses

import (
	"encoding/csv"
	"log/slog"
	"os"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/persistence"
	"github.com/myrjola/totem/internal/sqlite"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "responses",
	Title: "Stored responses",
}

func init() {
	List.Flags().String("db", "./kiosk.sqlite3", "path to the SQLite database")
	List.Flags().Int("limit", 100, "maximum number of responses") //nolint:mnd // default page
}

var List = &cobra.Command{
	Use:     "list",
	GroupID: "responses",
	Short:   "Print responses as CSV",
	Long:    "Prints the most recent responses of the SQLite store as CSV, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("db")
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			AddSource:   false,
			Level:       slog.LevelWarn,
			ReplaceAttr: nil,
		}))
		// Opening creates missing files, which would hide a mistyped path behind an empty listing.
		if _, err := os.Stat(path); err != nil {
			return errors.Wrap(err, "stat database", slog.String("path", path))
		}
		db, err := sqlite.NewDatabase(ctx, path, logger)
		if err != nil {
			return errors.Wrap(err, "open database", slog.String("path", path))
		}
		defer func() { _ = db.Close() }()

		records, err := db.ListResponses(ctx, limit)
		if err != nil {
			return errors.Wrap(err, "list responses")
		}
		w := csv.NewWriter(cmd.OutOrStdout())
		if err = w.Write(persistence.Header); err != nil {
			return errors.Wrap(err, "write header")
		}
		for _, rec := range records {
			if err = w.Write(rec.Values()); err != nil {
				return errors.Wrap(err, "write record")
			}
		}
		w.Flush()
		return errors.Wrap(w.Error(), "flush csv")
	},
}
