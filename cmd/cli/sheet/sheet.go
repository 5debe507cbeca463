// Package sheet holds the commands that prepare and verify the response spreadsheet.
package sheet

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/myrjola/totem/internal/envstruct"
	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/sheets"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "sheet",
	Title: "Response spreadsheet",
}

type config struct {
	ServiceAccountEmail string `env:"GOOGLE_SERVICE_ACCOUNT_EMAIL" envDefault:""`
	PrivateKey          string `env:"GOOGLE_PRIVATE_KEY" envDefault:""`
	SheetID             string `env:"GOOGLE_SHEET_ID" envDefault:""`
	SheetRange          string `env:"GOOGLE_SHEET_RANGE" envDefault:"A:F"`
}

func open(ctx context.Context) (*sheets.Appender, error) {
	var cfg config
	if err := envstruct.Populate(&cfg, os.LookupEnv); err != nil {
		return nil, errors.Wrap(err, "populate config")
	}
	appender, err := sheets.New(ctx, sheets.Config{
		ServiceAccountEmail: cfg.ServiceAccountEmail,
		PrivateKey:          cfg.PrivateKey,
		SpreadsheetID:       cfg.SheetID,
		Range:               cfg.SheetRange,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open spreadsheet")
	}
	return appender, nil
}

func timeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second) //nolint:mnd // 30 seconds
}

var Header = &cobra.Command{
	Use:     "header",
	GroupID: "sheet",
	Short:   "Write the column titles",
	Long:    "Writes the column titles to the first row of the response sheet, overwriting what is there",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := timeout(cmd)
		defer cancel()
		appender, err := open(ctx)
		if err != nil {
			return err
		}
		if err = appender.WriteHeader(ctx); err != nil {
			return errors.Wrap(err, "write header")
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "header written")
		return nil
	},
}

var Check = &cobra.Command{
	Use:     "check",
	GroupID: "sheet",
	Short:   "Verify spreadsheet access",
	Long:    "Fetches the spreadsheet title with the configured service account to verify the credentials",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := timeout(cmd)
		defer cancel()
		appender, err := open(ctx)
		if err != nil {
			return err
		}
		title, err := appender.Check(ctx)
		if err != nil {
			return errors.Wrap(err, "check spreadsheet")
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "spreadsheet %q is reachable\n", title)
		return nil
	},
}
