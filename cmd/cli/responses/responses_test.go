package responses_test

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/myrjola/totem/cmd/cli/responses"
	"github.com/myrjola/totem/internal/persistence"
	"github.com/myrjola/totem/internal/sqlite"
	"github.com/myrjola/totem/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kiosk.sqlite3")
	db, err := sqlite.NewDatabase(ctx, path, testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	require.NoError(t, db.AppendRow(ctx, persistence.Record{
		CPF:          "01234567890",
		Gender:       "Outro",
		Professional: "Dr. Pereira - Neurologista",
		HasPlan:      "Sim",
		Frequency:    "Primeira vez",
		SubmittedAt:  "17/10/2026, 09:00:00",
	}))
	require.NoError(t, db.Close())

	var out bytes.Buffer
	responses.List.SetOut(&out)
	responses.List.SetArgs([]string{"--db", path})
	require.NoError(t, responses.List.ExecuteContext(ctx))

	want := "CPF,Sexo,Profissional,Possui Plano,Frequência,Data de Preenchimento\n" +
		"01234567890,Outro,Dr. Pereira - Neurologista,Sim,Primeira vez,\"17/10/2026, 09:00:00\"\n"
	require.Equal(t, want, out.String())
}

func TestList_missingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kiosk.sqlite3")

	var out bytes.Buffer
	responses.List.SetOut(&out)
	responses.List.SetErr(io.Discard)
	responses.List.SetArgs([]string{"--db", path})
	err := responses.List.ExecuteContext(ctx)
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.Empty(t, out.String())

	_, err = os.Stat(path)
	require.ErrorIs(t, err, fs.ErrNotExist, "listing must not create the database")
}
