package main

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/myrjola/totem/internal/contexthelpers"
	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/kiosk"
	"github.com/myrjola/totem/internal/models"
	"github.com/myrjola/totem/internal/questionnaire"
	"github.com/myrjola/totem/ui"
)

var fieldLabels = map[models.Field]string{
	models.FieldCPF:          "CPF",
	models.FieldGender:       "Sexo",
	models.FieldProfessional: "Profissional",
	models.FieldHasPlan:      "Possui plano de saúde?",
	models.FieldFrequency:    "Frequência das consultas",
}

var saveMessages = map[kiosk.SaveStatus]string{
	kiosk.SaveIdle:    "",
	kiosk.SaveSaving:  "Salvando sua resposta...",
	kiosk.SaveSuccess: "Sua resposta foi registrada.",
	kiosk.SaveError:   "Não foi possível registrar sua resposta, mas agradecemos a participação.",
}

type fieldData struct {
	Name    models.Field
	Label   string
	Value   string
	Error   string
	Options []models.Option
}

type screenTemplateData struct {
	View        kiosk.View
	Fields      []fieldData
	StepCount   int
	SaveMessage string
}

func newScreenTemplateData(view kiosk.View) screenTemplateData {
	data := screenTemplateData{
		View:        view,
		Fields:      nil,
		StepCount:   int(questionnaire.StepConsultation),
		SaveMessage: saveMessages[view.SaveStatus],
	}
	if view.Screen == kiosk.ScreenForm {
		for _, field := range questionnaire.FieldsOf(view.Step) {
			data.Fields = append(data.Fields, fieldData{
				Name:    field,
				Label:   fieldLabels[field],
				Value:   view.Answers.Get(field),
				Error:   view.Errors[field],
				Options: models.OptionsFor(field),
			})
		}
	}
	return data
}

// parseTemplates parses the embedded templates. They are parsed per render, which keeps handlers free of
// shared mutable template state when the per-request funcs are installed.
func parseTemplates() (*template.Template, error) {
	// The FuncMap has to be in place before parsing. The real funcs are installed in render.
	t, err := template.New("kiosk").Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr {
			panic("not implemented")
		},
		"csrf": func() template.HTML {
			panic("not implemented")
		},
		"csrfToken": func() string {
			panic("not implemented")
		},
	}).ParseFS(ui.Files, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return t, nil
}

// render executes the named template with the view of the kiosk. Use "base" for full pages and "screen" for
// htmx swaps.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, name string, view kiosk.View) {
	var (
		err error
		t   *template.Template
	)

	if t, err = parseTemplates(); err != nil {
		app.serverError(w, r, err)
		return
	}

	buf := new(bytes.Buffer)
	ctx := r.Context()
	token := contexthelpers.CSRFToken(ctx)
	nonce := fmt.Sprintf("nonce=%q", contexthelpers.CSPNonce(ctx))
	csrf := fmt.Sprintf("<input type=\"hidden\" name=\"csrf_token\" value=\"%s\"/>", template.HTMLEscapeString(token))
	t.Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // generated by secureHeaders
		},
		"csrf": func() template.HTML {
			return template.HTML(csrf) //nolint:gosec // escaped above
		},
		"csrfToken": func() string {
			return token
		},
	})
	if err = t.ExecuteTemplate(buf, name, newScreenTemplateData(view)); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template", slog.String("template", name)))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
