package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/donseba/go-htmx"
	htmxmw "github.com/donseba/go-htmx/middleware"
	"github.com/myrjola/totem/internal/contexthelpers"
	"github.com/myrjola/totem/internal/kiosk"
	"github.com/myrjola/totem/internal/models"
	"github.com/myrjola/totem/internal/persistence"
	"github.com/myrjola/totem/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type discardSubmitter struct{}

func (discardSubmitter) Submit(context.Context, models.AnswerSet) persistence.Result {
	return persistence.Result{Success: true}
}

func Test_application_closedSession(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	logger := testhelpers.NewLogger(io.Discard)
	kiosks := kiosk.NewRegistry(kiosk.DefaultConfig(), clk, discardSubmitter{}, nil, logger)
	t.Cleanup(kiosks.Close)
	app := &application{logger: logger, sessionManager: nil, kiosks: kiosks, htmx: htmx.New()}

	// A session closed while its browser still holds the binding.
	s := kiosks.Get("")
	s.Close()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
		htmx    bool
	}{
		{name: "home", handler: app.home, target: "/"},
		{name: "screen", handler: app.screen, target: "/screen?current=welcome"},
		{name: "screen htmx", handler: app.screen, target: "/screen?current=welcome", htmx: true},
		{name: "start htmx", handler: app.command(kioskStart), target: "/start", htmx: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequestWithContext(context.Background(), http.MethodGet, tt.target, nil)
			if tt.htmx {
				r.Header.Set("HX-Request", "true")
			}
			r = contexthelpers.SetKioskID(r, s.ID())
			w := httptest.NewRecorder()
			htmxmw.MiddleWare(tt.handler).ServeHTTP(w, r)
			if tt.htmx {
				assert.Equal(t, http.StatusNoContent, w.Code)
				assert.Equal(t, "/", w.Header().Get("HX-Redirect"))
				return
			}
			require.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/", w.Header().Get("Location"))
		})
	}

	t.Run("evicted", func(t *testing.T) {
		r := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/", nil)
		r = contexthelpers.SetKioskID(r, "evicted")
		w := httptest.NewRecorder()
		app.home(w, r)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, 1, kiosks.Len(), "handlers never open sessions")
	})
}
