package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
	"github.com/myrjola/totem/internal/contexthelpers"
	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/logging"
	"github.com/myrjola/totem/internal/random"
)

// kioskIDSessionKey is the scs session key holding the id of the kiosk session bound to the browser.
const kioskIDSessionKey = "kioskID"

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var nonceLength uint = 24
		nonce, err := random.Letters(nonceLength)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		r = contexthelpers.SetCSPNonce(r, nonce)

		w.Header().Set("Content-Security-Policy",
			fmt.Sprintf("script-src 'nonce-%s' 'strict-dynamic' https: http:; object-src 'none'; base-uri 'none';",
				nonce))
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "received request",
			slog.String("proto", r.Proto),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
		)
		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, errors.New("recovered from panic", slog.String("panic", fmt.Sprint(err))))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = contexthelpers.SetCSRFToken(r, nosurf.Token(r))
		next.ServeHTTP(w, r)
	})
}

// bindKiosk attaches the browser to its kiosk session, opening a new one when the browser has none or its session
// was evicted. Only the kiosk page itself opens sessions.
func (app *application) bindKiosk(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := app.sessionManager.GetString(ctx, kioskIDSessionKey)
		s := app.kiosks.Get(id)
		if s.ID() != id {
			if err := app.sessionManager.RenewToken(ctx); err != nil {
				app.serverError(w, r, errors.Wrap(err, "renew session token"))
				return
			}
			app.sessionManager.Put(ctx, kioskIDSessionKey, s.ID())
		}
		r = contexthelpers.SetKioskID(r, s.ID())
		r = r.WithContext(logging.WithAttrs(r.Context(), slog.String("kiosk_id", s.ID())))
		next.ServeHTTP(w, r)
	})
}

// requireKiosk attaches the browser to its existing kiosk session. Browsers without one are sent back to the
// kiosk page instead of opening a session per request.
func (app *application) requireKiosk(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := app.sessionManager.GetString(ctx, kioskIDSessionKey)
		if _, ok := app.kiosks.Lookup(id); !ok {
			app.sessionGone(w, r)
			return
		}
		r = contexthelpers.SetKioskID(r, id)
		r = r.WithContext(logging.WithAttrs(r.Context(), slog.String("kiosk_id", id)))
		next.ServeHTTP(w, r)
	})
}

// noSurf implements CSRF protection using https://github.com/justinas/nosurf
func noSurf(next http.Handler) http.Handler {
	csrfHandler := nosurf.New(next)
	csrfHandler.SetBaseCookie(http.Cookie{ //nolint:exhaustruct // defaults for the rest
		HttpOnly: true,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	csrfHandler.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Default().LogAttrs(r.Context(), slog.LevelDebug, "csrf check failed",
			slog.String("reason", fmt.Sprint(nosurf.Reason(r))))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	}))
	return csrfHandler
}
