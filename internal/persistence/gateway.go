// Package persistence appends completed questionnaires to an external row store.
//
// The [Gateway] is the only boundary the kiosk session talks to. It never returns an error or lets a panic
// escape: every failure is folded into a [Result] so that a broken network or a missing credential can only
// ever change the thank-you message, never the flow.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/logging"
	"github.com/myrjola/totem/internal/models"
	"k8s.io/utils/clock"
)

var ErrNotConfigured = errors.NewSentinel("persistence is not configured")

// Appender writes a single row to a store. Implementations must not retry.
type Appender interface {
	AppendRow(ctx context.Context, rec Record) error
}

// Result is the outcome of one submission.
type Result struct {
	Success bool
	Reason  string
}

// Gateway maps answer sets to records and hands them to an [Appender].
type Gateway struct {
	appender Appender
	location *time.Location
	clock    clock.PassiveClock
	logger   *slog.Logger
}

// NewGateway creates a Gateway. loc is the time zone of the submission timestamp; nil means UTC.
func NewGateway(appender Appender, loc *time.Location, clk clock.PassiveClock, logger *slog.Logger) *Gateway {
	return &Gateway{
		appender: appender,
		location: loc,
		clock:    clk,
		logger:   logger.With("source", "persistence.Gateway"),
	}
}

// Submit performs exactly one append of answers.
func (g *Gateway) Submit(ctx context.Context, answers models.AnswerSet) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.New("appender panicked", slog.String("panic", fmt.Sprint(r)))
			g.logger.LogAttrs(ctx, slog.LevelError, "save failed", errors.SlogError(err))
			res = Result{Success: false, Reason: err.Error()}
		}
	}()

	start := g.clock.Now()
	rec := NewRecord(answers, start, g.location)
	if err := g.appender.AppendRow(ctx, rec); err != nil {
		err = errors.Wrap(err, "append row")
		g.logger.LogAttrs(ctx, slog.LevelError, "save failed", errors.SlogError(err))
		return Result{Success: false, Reason: err.Error()}
	}
	ctx = logging.WithAttrs(ctx, slog.Duration("duration", g.clock.Since(start)))
	g.logger.LogAttrs(ctx, slog.LevelInfo, "saved response")
	return Result{Success: true, Reason: ""}
}

// Unavailable is the appender used when the store could not be configured. Every append fails with Err.
type Unavailable struct {
	Err error
}

func (u Unavailable) AppendRow(_ context.Context, _ Record) error {
	if u.Err == nil {
		return ErrNotConfigured
	}
	return errors.Wrap(u.Err, "store unavailable")
}
