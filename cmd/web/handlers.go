package main

import (
	"context"
	"net/http"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/kiosk"
	"github.com/myrjola/totem/internal/models"
	"github.com/myrjola/totem/internal/questionnaire"
)

// kioskCommand is a session operation triggered by a button press.
type kioskCommand func(s *kiosk.Session, ctx context.Context) (kiosk.View, error)

var (
	kioskStart   kioskCommand = (*kiosk.Session).Start
	kioskAdvance kioskCommand = (*kiosk.Session).Advance
	kioskBack    kioskCommand = (*kiosk.Session).Back
	kioskSubmit  kioskCommand = (*kiosk.Session).Submit
	kioskReset   kioskCommand = (*kiosk.Session).Reset
)

// view reads the current view of the kiosk session bound to the request.
func (app *application) view(r *http.Request) (kiosk.View, error) {
	s, err := app.kioskSession(r)
	if err != nil {
		return kiosk.View{}, err
	}
	return s.View(r.Context())
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	view, err := app.view(r)
	if errors.Is(err, kiosk.ErrClosed) {
		app.sessionGone(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "base", view)
}

// screen answers the poll of the kiosk page. The fragment is only re-sent when the screen changed or the
// thank-you countdown is running, otherwise 204 tells htmx to keep what it has. Polling does not count as
// visitor activity.
func (app *application) screen(w http.ResponseWriter, r *http.Request) {
	view, err := app.view(r)
	if errors.Is(err, kiosk.ErrClosed) {
		app.sessionGone(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if r.URL.Query().Get("current") == view.Key() && view.Screen != kiosk.ScreenThankYou {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	app.render(w, r, http.StatusOK, "screen", view)
}

func (app *application) command(cmd kioskCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := app.kioskSession(r)
		if err != nil {
			app.respond(w, r, kiosk.View{}, err)
			return
		}
		view, err := cmd(s, r.Context())
		app.respond(w, r, view, err)
	}
}

func (app *application) setField(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, errors.Wrap(err, "parse form"))
		return
	}
	s, err := app.kioskSession(r)
	if err != nil {
		app.respond(w, r, kiosk.View{}, err)
		return
	}
	field := models.Field(r.PostForm.Get("field"))
	view, err := s.SetField(r.Context(), field, r.PostForm.Get("value"))
	if errors.Is(err, questionnaire.ErrUnknownField) || errors.Is(err, questionnaire.ErrInvalidOption) {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	app.respond(w, r, view, err)
}

// activity records a touch on the kiosk to keep the inactivity watchdog from firing.
func (app *application) activity(w http.ResponseWriter, r *http.Request) {
	s, err := app.kioskSession(r)
	if err == nil {
		_, err = s.Touch(r.Context())
	}
	if err != nil && !errors.Is(err, kiosk.ErrClosed) {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
