package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/myrjola/totem/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil))).With("source", "test")

	ctx := logging.WithAttrs(context.Background(), slog.String("kiosk_id", "k1"))
	sibling := logging.WithAttrs(ctx, slog.String("screen", "form"))
	_ = logging.WithAttrs(ctx, slog.String("screen", "welcome"))

	logger.InfoContext(sibling, "transition")

	out := buf.String()
	require.Contains(t, out, "kiosk_id=k1")
	require.Contains(t, out, "screen=form")
	require.Contains(t, out, "source=test")
	require.NotContains(t, out, "screen=welcome")
}
