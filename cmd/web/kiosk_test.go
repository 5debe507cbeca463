package main

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/totem/internal/e2etest"
	"github.com/myrjola/totem/internal/persistence"
	"github.com/myrjola/totem/internal/pgtest"
	"github.com/myrjola/totem/internal/postgres"
	"github.com/myrjola/totem/internal/sqlite"
	"github.com/myrjola/totem/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 5 * time.Second
	tick    = 50 * time.Millisecond
)

// testLookupEnv returns a lookupEnv for a server on a random port that stores responses in a fresh SQLite file.
// overrides take precedence.
func testLookupEnv(t *testing.T, overrides map[string]string) func(string) (string, bool) {
	t.Helper()
	env := map[string]string{
		"KIOSK_ADDR":       "localhost:0",
		"KIOSK_DEBUG_ADDR": "",
		"KIOSK_GATEWAY":    "sqlite",
		"KIOSK_SQLITE_URL": filepath.Join(t.TempDir(), "kiosk.sqlite3"),
		"KIOSK_TIMEZONE":   "UTC",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func startKiosk(t *testing.T, lookupEnv func(string) (string, bool)) (*e2etest.Server, *e2etest.Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, lookupEnv, run)
	require.NoError(t, err)
	client, err := server.Client()
	require.NoError(t, err)
	return server, client
}

func screenOf(doc *goquery.Document) string {
	return doc.Find("main#screen").AttrOr("data-screen", "")
}

func submit(t *testing.T, client *e2etest.Client, action string, values map[string]string) *goquery.Document {
	t.Helper()
	doc, err := client.SubmitForm(context.Background(), "/", action, values)
	require.NoError(t, err)
	return doc
}

func setField(t *testing.T, client *e2etest.Client, field, value string) *goquery.Document {
	t.Helper()
	return submit(t, client, "/form/field", map[string]string{"field": field, "value": value})
}

func fillQuestionnaire(t *testing.T, client *e2etest.Client) *goquery.Document {
	t.Helper()
	doc := submit(t, client, "/start", nil)
	require.Equal(t, "form", screenOf(doc))
	setField(t, client, "cpf", "012.345.678-90")
	setField(t, client, "gender", "feminino")
	doc = submit(t, client, "/form/next", nil)
	require.Equal(t, "2", doc.Find("section.questionnaire").AttrOr("data-step", ""))
	setField(t, client, "professional", "dra-santos")
	setField(t, client, "hasPlan", "nao")
	return setField(t, client, "frequency", "anual")
}

func Test_kiosk_happyPath(t *testing.T) {
	sqliteURL := filepath.Join(t.TempDir(), "responses.sqlite3")
	_, client := startKiosk(t, testLookupEnv(t, map[string]string{"KIOSK_SQLITE_URL": sqliteURL}))
	ctx := context.Background()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, "welcome", screenOf(doc))

	doc = fillQuestionnaire(t, client)
	_, checked := doc.Find("#input-frequency-anual").Attr("checked")
	assert.True(t, checked)

	doc = submit(t, client, "/form/submit", nil)
	require.Equal(t, "thank-you", screenOf(doc))

	require.Eventually(t, func() bool {
		doc, err = client.GetDoc(ctx, "/")
		return err == nil && doc.Find("[data-save-status]").AttrOr("data-save-status", "") == "success"
	}, waitFor, tick)
	assert.Contains(t, doc.Find(".save-message").Text(), "registrada")

	db, err := sqlite.NewDatabase(ctx, sqliteURL, testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	records, err := db.ListResponses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	got := records[0]
	assert.Equal(t, "01234567890", got.CPF)
	assert.Equal(t, "Feminino", got.Gender)
	assert.Equal(t, "Dra. Santos - Cardiologista", got.Professional)
	assert.Equal(t, "Não", got.HasPlan)
	assert.Equal(t, "Anualmente", got.Frequency)
	_, err = time.Parse(persistence.TimestampLayout, got.SubmittedAt)
	require.NoError(t, err)

	doc = submit(t, client, "/reset", nil)
	require.Equal(t, "welcome", screenOf(doc))
}

func Test_kiosk_postgresGateway(t *testing.T) {
	dsn := pgtest.DSN(t)
	_, client := startKiosk(t, testLookupEnv(t, map[string]string{
		"KIOSK_GATEWAY":      "postgres",
		"KIOSK_POSTGRES_URL": dsn,
	}))
	ctx := context.Background()

	store, err := postgres.Open(ctx, dsn, testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	before, err := store.CountResponses(ctx)
	require.NoError(t, err)

	fillQuestionnaire(t, client)
	submit(t, client, "/form/submit", nil)
	require.Eventually(t, func() bool {
		doc, docErr := client.GetDoc(ctx, "/")
		return docErr == nil && doc.Find("[data-save-status]").AttrOr("data-save-status", "") == "success"
	}, waitFor, tick)

	after, err := store.CountResponses(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func Test_kiosk_validation(t *testing.T) {
	_, client := startKiosk(t, testLookupEnv(t, nil))

	submit(t, client, "/start", nil)
	doc := submit(t, client, "/form/next", nil)
	require.Equal(t, "form", screenOf(doc))
	require.Equal(t, "1", doc.Find("section.questionnaire").AttrOr("data-step", ""))
	assert.Equal(t, 2, doc.Find("form.field.invalid").Length())
	assert.Equal(t, 1, doc.Find("form[data-field=cpf] p.error").Length())

	// The error of a field disappears as soon as it is edited.
	doc = setField(t, client, "cpf", "123")
	assert.Equal(t, 0, doc.Find("form[data-field=cpf] p.error").Length())
	assert.Equal(t, "123", doc.Find("#input-cpf").AttrOr("value", ""))

	doc = submit(t, client, "/form/next", nil)
	assert.Equal(t, 1, doc.Find("form[data-field=cpf] p.error").Length())
	assert.Equal(t, 1, doc.Find("form[data-field=gender] p.error").Length())

	setField(t, client, "cpf", "12345678901")
	setField(t, client, "gender", "outro")
	doc = submit(t, client, "/form/next", nil)
	require.Equal(t, "2", doc.Find("section.questionnaire").AttrOr("data-step", ""))

	doc = submit(t, client, "/form/submit", nil)
	require.Equal(t, "form", screenOf(doc))
	assert.Equal(t, 3, doc.Find("form.field.invalid").Length())

	doc = submit(t, client, "/form/back", nil)
	require.Equal(t, "1", doc.Find("section.questionnaire").AttrOr("data-step", ""))
	assert.Equal(t, "12345678901", doc.Find("#input-cpf").AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find("p.error").Length())
}

func Test_kiosk_htmx(t *testing.T) {
	_, client := startKiosk(t, testLookupEnv(t, nil))
	ctx := context.Background()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	token, err := e2etest.ExtractCSRFToken(doc, "/start")
	require.NoError(t, err)

	resp, err := client.PostHTMX(ctx, "/start", token, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fragment, err := goquery.NewDocumentFromReader(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, "form", screenOf(fragment))
	assert.Equal(t, 0, fragment.Find("html head title").Length(), "htmx gets the fragment, not the page")

	resp, err = client.PostHTMX(ctx, "/form/field", token, map[string]string{"field": "gender", "value": "robot"})
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = client.PostHTMX(ctx, "/form/field", token, map[string]string{"field": "email", "value": "x"})
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = client.PostHTMX(ctx, "/activity", token, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func Test_kiosk_screenPolling(t *testing.T) {
	_, client := startKiosk(t, testLookupEnv(t, nil))
	ctx := context.Background()
	_, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)

	tests := []struct {
		name    string
		current string
		want    int
	}{
		{name: "unchanged", current: "welcome", want: http.StatusNoContent},
		{name: "changed", current: "form-2", want: http.StatusOK},
		{name: "first poll", current: "", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.GetHTMX(ctx, "/screen?current="+tt.current)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func Test_kiosk_saveFailureStillThanks(t *testing.T) {
	// Without credentials the spreadsheet cannot be opened and every save fails.
	_, client := startKiosk(t, testLookupEnv(t, map[string]string{"KIOSK_GATEWAY": "sheets"}))
	ctx := context.Background()

	fillQuestionnaire(t, client)
	doc := submit(t, client, "/form/submit", nil)
	require.Equal(t, "thank-you", screenOf(doc))

	require.Eventually(t, func() bool {
		var err error
		doc, err = client.GetDoc(ctx, "/")
		return err == nil && doc.Find("[data-save-status]").AttrOr("data-save-status", "") == "error"
	}, waitFor, tick)
	assert.Equal(t, "thank-you", screenOf(doc))
	assert.Contains(t, doc.Find(".save-message").Text(), "agradecemos")
}

func Test_kiosk_inactivityReturnsToWelcome(t *testing.T) {
	_, client := startKiosk(t, testLookupEnv(t, map[string]string{"KIOSK_INACTIVITY_TIMEOUT": "300ms"}))
	ctx := context.Background()

	doc := submit(t, client, "/start", nil)
	require.Equal(t, "form", screenOf(doc))

	require.Eventually(t, func() bool {
		resp, err := client.GetHTMX(ctx, "/screen?current=form-1")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		fragment, err := goquery.NewDocumentFromReader(resp.Body)
		return err == nil && resp.StatusCode == http.StatusOK && screenOf(fragment) == "welcome"
	}, waitFor, tick)
}

func Test_kiosk_countdownReturnsToWelcome(t *testing.T) {
	_, client := startKiosk(t, testLookupEnv(t, map[string]string{"KIOSK_COUNTDOWN": "1"}))
	ctx := context.Background()

	fillQuestionnaire(t, client)
	doc := submit(t, client, "/form/submit", nil)
	require.Equal(t, "thank-you", screenOf(doc))
	assert.Equal(t, "1", strings.TrimSpace(doc.Find(".countdown span").Text()))

	require.Eventually(t, func() bool {
		doc, err := client.GetDoc(ctx, "/")
		return err == nil && screenOf(doc) == "welcome"
	}, waitFor, tick)
}

func Test_kiosk_separateBrowsers(t *testing.T) {
	server, first := startKiosk(t, testLookupEnv(t, nil))
	ctx := context.Background()
	second, err := server.Client()
	require.NoError(t, err)

	submit(t, first, "/start", nil)

	doc, err := second.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "welcome", screenOf(doc))
	doc, err = first.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "form", screenOf(doc))
}

func Test_kiosk_securityHeaders(t *testing.T) {
	_, client := startKiosk(t, testLookupEnv(t, nil))
	ctx := context.Background()

	resp, err := client.Get(ctx, "/")
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	nonce, ok := doc.Find("script").Attr("nonce")
	require.True(t, ok)
	require.NotEmpty(t, nonce)
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "'nonce-"+nonce+"'")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	// Posting without the CSRF token is rejected.
	resp, err = client.PostHTMX(ctx, "/start", "", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = client.Get(ctx, "/static/kiosk.css")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ctx, "/api/healthy")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","sessions":1}`, string(body))
}

func Test_kiosk_requestsWithoutSessionAreRedirected(t *testing.T) {
	server, client := startKiosk(t, testLookupEnv(t, nil))
	ctx := context.Background()
	noRedirects := &http.Client{ //nolint:exhaustruct // defaults for the rest
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	for range 20 {
		// A fresh client carries no cookies.
		stranger, err := server.Client()
		require.NoError(t, err)
		resp, err := stranger.GetHTMX(ctx, "/screen?current=welcome")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("HX-Redirect"))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL()+"/screen", nil)
		require.NoError(t, err)
		resp, err = noRedirects.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	}

	resp, err := client.Get(ctx, "/api/healthy")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, string(body), "only the kiosk page opens sessions")
}
