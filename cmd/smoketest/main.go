// Command smoketest walks a deployed kiosk through its welcome screen and back.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/totem/internal/e2etest"
	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/logging"
)

var errUnexpectedScreen = errors.NewSentinel("unexpected screen")

func expectScreen(client *e2etest.Client, ctx context.Context, action, want string) error {
	doc, err := client.SubmitForm(ctx, "/", action, nil)
	if err != nil {
		return errors.Wrap(err, "submit form", slog.String("action", action))
	}
	if got := doc.Find("main#screen").AttrOr("data-screen", ""); got != want {
		return errors.Wrap(errUnexpectedScreen, "check screen",
			slog.String("action", action), slog.String("want", want), slog.String("got", got))
	}
	return nil
}

// TestFlow opens the questionnaire and cancels it. Nothing is submitted so the response store stays untouched.
func TestFlow(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return errors.Wrap(err, "wait for ready")
	}
	if err := expectScreen(client, ctx, "/start", "form"); err != nil {
		return err
	}
	return expectScreen(client, ctx, "/reset", "welcome")
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only the base URL to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <base-url>")
		os.Exit(1)
	}

	var (
		url    = os.Args[1]
		client *e2etest.Client
		err    error
	)
	ctx = logging.WithAttrs(ctx, slog.String("url", url))

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestFlow(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing kiosk flow", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
}
