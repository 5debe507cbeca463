package main

import (
	"io/fs"
	"net/http"

	htmxmw "github.com/donseba/go-htmx/middleware"
	"github.com/justinas/alice"
	"github.com/myrjola/totem/ui"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(ui.Files, "static")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	mux.Handle("GET /static/", http.StripPrefix("/static", http.FileServerFS(static)))

	base := alice.New(app.sessionManager.LoadAndSave, noSurf, commonContext, htmxmw.MiddleWare)
	kioskChain := base.Append(app.requireKiosk)

	mux.Handle("GET /{$}", base.Append(app.bindKiosk).ThenFunc(app.home))
	mux.Handle("GET /screen", kioskChain.ThenFunc(app.screen))
	mux.Handle("POST /start", kioskChain.ThenFunc(app.command(kioskStart)))
	mux.Handle("POST /form/field", kioskChain.ThenFunc(app.setField))
	mux.Handle("POST /form/next", kioskChain.ThenFunc(app.command(kioskAdvance)))
	mux.Handle("POST /form/back", kioskChain.ThenFunc(app.command(kioskBack)))
	mux.Handle("POST /form/submit", kioskChain.ThenFunc(app.command(kioskSubmit)))
	mux.Handle("POST /reset", kioskChain.ThenFunc(app.command(kioskReset)))
	mux.Handle("POST /activity", kioskChain.ThenFunc(app.activity))

	mux.HandleFunc("GET /api/healthy", app.healthy)

	common := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	return common.Then(timeoutHandler(mux, defaultTimeout))
}
