// Package sheets appends questionnaire records to a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"log/slog"
	"strings"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/persistence"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultRange covers the six record columns of the first sheet.
const DefaultRange = "A:F"

// Cells are written verbatim. USER_ENTERED would parse a CPF such as 01234567890 into a number and drop the
// leading zero.
const valueInputOption = "RAW"

var ErrMissingCredentials = errors.NewSentinel("google sheets credentials are incomplete")

// Config holds the service account credentials and the target of the appender.
type Config struct {
	ServiceAccountEmail string
	// PrivateKey is the PEM encoded service account key. Literal \n sequences are accepted in place of newlines.
	PrivateKey    string
	SpreadsheetID string
	// Range is the A1 range rows are appended to, e.g. "Respostas!A:F". Defaults to [DefaultRange].
	Range string
}

// Appender writes records with spreadsheets.values.append.
type Appender struct {
	service       *sheets.Service
	spreadsheetID string
	rng           string
}

// New authenticates with the service account in cfg and returns an Appender.
// Extra client options are applied after the credentials.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Appender, error) {
	var missing []string
	if cfg.ServiceAccountEmail == "" {
		missing = append(missing, "service account email")
	}
	if cfg.PrivateKey == "" {
		missing = append(missing, "private key")
	}
	if cfg.SpreadsheetID == "" {
		missing = append(missing, "spreadsheet id")
	}
	if len(missing) > 0 {
		return nil, errors.Wrap(ErrMissingCredentials, "new sheets appender",
			slog.String("missing", strings.Join(missing, ", ")))
	}

	jwtConfig := &jwt.Config{ //nolint:exhaustruct // defaults are fine for a service account
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(UnescapePrivateKey(cfg.PrivateKey)),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	opts = append([]option.ClientOption{option.WithTokenSource(jwtConfig.TokenSource(ctx))}, opts...)
	return NewWithOptions(ctx, cfg.SpreadsheetID, cfg.Range, opts...)
}

// NewWithOptions returns an Appender authenticated solely through opts.
func NewWithOptions(ctx context.Context, spreadsheetID, rng string, opts ...option.ClientOption) (*Appender, error) {
	if rng == "" {
		rng = DefaultRange
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "new sheets service")
	}
	return &Appender{
		service:       service,
		spreadsheetID: spreadsheetID,
		rng:           rng,
	}, nil
}

// UnescapePrivateKey turns the literal \n sequences of a key pasted into an environment variable into newlines.
func UnescapePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// AppendRow inserts rec as a new row after the last row of the table in the configured range.
func (a *Appender) AppendRow(ctx context.Context, rec persistence.Record) error {
	vr := &sheets.ValueRange{ //nolint:exhaustruct // only values are sent
		Values: [][]interface{}{cells(rec.Values())},
	}
	_, err := a.service.Spreadsheets.Values.Append(a.spreadsheetID, a.rng, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return a.wrap(err, "append values")
	}
	return nil
}

// WriteHeader overwrites the first row of the configured sheet with [persistence.Header].
func (a *Appender) WriteHeader(ctx context.Context) error {
	vr := &sheets.ValueRange{ //nolint:exhaustruct // only values are sent
		Values: [][]interface{}{cells(persistence.Header)},
	}
	_, err := a.service.Spreadsheets.Values.Update(a.spreadsheetID, a.headerRange(), vr).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return a.wrap(err, "update header")
	}
	return nil
}

// Check fetches the spreadsheet title, proving the credentials can reach it.
func (a *Appender) Check(ctx context.Context) (string, error) {
	spreadsheet, err := a.service.Spreadsheets.Get(a.spreadsheetID).
		Fields("properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", a.wrap(err, "get spreadsheet")
	}
	if spreadsheet.Properties == nil {
		return "", nil
	}
	return spreadsheet.Properties.Title, nil
}

// headerRange returns the first row of the sheet addressed by the configured range.
func (a *Appender) headerRange() string {
	prefix := ""
	if i := strings.LastIndex(a.rng, "!"); i >= 0 {
		prefix = a.rng[:i+1]
	}
	return prefix + "A1:F1"
}

func (a *Appender) wrap(err error, msg string) error {
	attrs := []slog.Attr{slog.String("spreadsheet_id", a.spreadsheetID)}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		attrs = append(attrs, slog.Int("status", apiErr.Code))
	}
	return errors.Wrap(err, msg, attrs...)
}

func cells(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
