package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/totem/cmd/cli/responses"
	"github.com/myrjola/totem/cmd/cli/sheet"
	"github.com/myrjola/totem/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(sheet.Group)
	rootCmd.AddCommand(sheet.Header, sheet.Check)
	rootCmd.AddGroup(responses.Group)
	rootCmd.AddCommand(responses.List)
}

var rootCmd = &cobra.Command{
	Use:  "totem-cli",
	Long: `Command line utilities for the Totem satisfaction survey kiosk`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
