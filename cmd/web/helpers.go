package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/totem/internal/contexthelpers"
	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/kiosk"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()), errors.SlogError(err))
	http.Error(w, http.StatusText(status), status)
}

// kioskSession returns the session bound to the request by bindKiosk or requireKiosk. It fails with
// kiosk.ErrClosed when the session was evicted in the meantime.
func (app *application) kioskSession(r *http.Request) (*kiosk.Session, error) {
	s, ok := app.kiosks.Lookup(contexthelpers.KioskID(r.Context()))
	if !ok {
		return nil, kiosk.ErrClosed
	}
	return s, nil
}

func (app *application) isHTMX(w http.ResponseWriter, r *http.Request) bool {
	return app.htmx.NewHandler(w, r).Request().HxRequest
}

// sessionGone sends a browser whose kiosk session is missing or closed back to the kiosk page, which binds a new
// one. htmx follows HX-Redirect with a full page load.
func (app *application) sessionGone(w http.ResponseWriter, r *http.Request) {
	if app.isHTMX(w, r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// respond finishes a kiosk command. htmx requests get the new screen fragment; plain form posts are redirected
// to the full page so that reloads do not repeat the command.
func (app *application) respond(w http.ResponseWriter, r *http.Request, view kiosk.View, err error) {
	if errors.Is(err, kiosk.ErrClosed) {
		app.sessionGone(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if !app.isHTMX(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	app.render(w, r, http.StatusOK, "screen", view)
}
