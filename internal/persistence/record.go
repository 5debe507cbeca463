package persistence

import (
	"time"

	"github.com/myrjola/totem/internal/models"
)

// TimestampLayout formats the submission time the way the spreadsheet has always shown it, which is the pt-BR
// locale format with a comma between date and time.
const TimestampLayout = "02/01/2006, 15:04:05"

// Header holds the column titles of the response sheet, in [Record.Values] order.
var Header = []string{"CPF", "Sexo", "Profissional", "Possui Plano", "Frequência", "Data de Preenchimento"}

// Record is one response row with option codes translated to their display labels.
type Record struct {
	CPF          string
	Gender       string
	Professional string
	HasPlan      string
	Frequency    string
	SubmittedAt  string
}

// NewRecord maps an answer set to a row submitted at the given time.
func NewRecord(answers models.AnswerSet, submittedAt time.Time, loc *time.Location) Record {
	if loc == nil {
		loc = time.UTC
	}
	return Record{
		CPF:          answers.CPF,
		Gender:       models.Label(models.FieldGender, answers.Gender),
		Professional: models.Label(models.FieldProfessional, answers.Professional),
		HasPlan:      models.Label(models.FieldHasPlan, answers.HasPlan),
		Frequency:    models.Label(models.FieldFrequency, answers.Frequency),
		SubmittedAt:  submittedAt.In(loc).Format(TimestampLayout),
	}
}

// Values returns the cells of the row in [Header] order.
func (r Record) Values() []string {
	return []string{r.CPF, r.Gender, r.Professional, r.HasPlan, r.Frequency, r.SubmittedAt}
}
