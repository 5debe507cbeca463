// Package questionnaire validates and normalizes the answers a visitor types or taps on the kiosk.
package questionnaire

import (
	"log/slog"
	"strings"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/models"
)

// Step is a page of the questionnaire form.
type Step int

const (
	StepIdentity     Step = 1
	StepConsultation Step = 2
)

var (
	ErrUnknownField  = errors.NewSentinel("unknown field")
	ErrInvalidOption = errors.NewSentinel("value is not one of the field's options")
)

// Errors maps a field to a message shown next to it.
type Errors map[models.Field]string

// fieldsByStep lists the fields that belong to each step.
var fieldsByStep = map[Step][]models.Field{
	StepIdentity:     {models.FieldCPF, models.FieldGender},
	StepConsultation: {models.FieldProfessional, models.FieldHasPlan, models.FieldFrequency},
}

// FieldsOf returns the fields shown on step.
func FieldsOf(step Step) []models.Field {
	return fieldsByStep[step]
}

// Validate returns the errors of exactly the fields belonging to step. An empty map means the step is complete.
func Validate(answers models.AnswerSet, step Step) Errors {
	errs := Errors{}
	switch step {
	case StepIdentity:
		switch {
		case answers.CPF == "":
			errs[models.FieldCPF] = "CPF é obrigatório"
		case !isCPF(answers.CPF):
			errs[models.FieldCPF] = "CPF deve conter 11 dígitos"
		}
		if answers.Gender == "" {
			errs[models.FieldGender] = "Selecione o sexo"
		}
	case StepConsultation:
		if answers.Professional == "" {
			errs[models.FieldProfessional] = "Selecione o profissional"
		}
		if answers.HasPlan == "" {
			errs[models.FieldHasPlan] = "Informe se possui plano"
		}
		if answers.Frequency == "" {
			errs[models.FieldFrequency] = "Selecione a frequência"
		}
	}
	return errs
}

// NormalizeCPF strips every non-digit and truncates the result to [models.CPFLength] digits.
func NormalizeCPF(input string) string {
	var b strings.Builder
	for _, r := range input {
		if b.Len() == models.CPFLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize prepares raw input for field before it is stored in the answer set.
//
// CPF input is normalized with [NormalizeCPF]. Option fields accept "" (clear) or one of their option
// values; anything else yields ErrInvalidOption.
func Normalize(field models.Field, input string) (string, error) {
	if field == models.FieldCPF {
		return NormalizeCPF(input), nil
	}
	options := models.OptionsFor(field)
	if options == nil {
		return "", errors.Wrap(ErrUnknownField, "normalize", slog.String("field", string(field)))
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	for _, o := range options {
		if o.Value == input {
			return input, nil
		}
	}
	return "", errors.Wrap(ErrInvalidOption, "normalize", slog.String("field", string(field)))
}

func isCPF(s string) bool {
	if len(s) != models.CPFLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
