package questionnaire_test

import (
	"testing"

	"github.com/myrjola/totem/internal/models"
	"github.com/myrjola/totem/internal/questionnaire"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCPF(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "12a3-4567/890x", want: "1234567890"},
		{input: "123.456.789-01", want: "12345678901"},
		{input: "111.222.333-44", want: "11122233344"},
		{input: "123456789012345", want: "12345678901"},
		{input: "abc", want: ""},
		{input: "１２３", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, questionnaire.NormalizeCPF(tt.input))
		})
	}
}

func TestValidate_StepIdentity(t *testing.T) {
	tests := []struct {
		name    string
		answers models.AnswerSet
		want    questionnaire.Errors
	}{
		{
			name:    "empty",
			answers: models.AnswerSet{},
			want: questionnaire.Errors{
				models.FieldCPF:    "CPF é obrigatório",
				models.FieldGender: "Selecione o sexo",
			},
		},
		{
			name:    "short cpf after normalization",
			answers: models.AnswerSet{CPF: questionnaire.NormalizeCPF("12a3-4567/890x"), Gender: "outro"},
			want:    questionnaire.Errors{models.FieldCPF: "CPF deve conter 11 dígitos"},
		},
		{
			name:    "unnormalized cpf",
			answers: models.AnswerSet{CPF: "123.456.789-01", Gender: "outro"},
			want:    questionnaire.Errors{models.FieldCPF: "CPF deve conter 11 dígitos"},
		},
		{
			name:    "missing gender",
			answers: models.AnswerSet{CPF: "12345678901"},
			want:    questionnaire.Errors{models.FieldGender: "Selecione o sexo"},
		},
		{
			name:    "valid",
			answers: models.AnswerSet{CPF: questionnaire.NormalizeCPF("123.456.789-01"), Gender: "feminino"},
			want:    questionnaire.Errors{},
		},
		{
			name: "ignores step 2 fields",
			answers: models.AnswerSet{
				CPF:          "12345678901",
				Gender:       "masculino",
				Professional: "",
			},
			want: questionnaire.Errors{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, questionnaire.Validate(tt.answers, questionnaire.StepIdentity))
		})
	}
}

func TestValidate_StepConsultation(t *testing.T) {
	got := questionnaire.Validate(models.AnswerSet{CPF: "bad"}, questionnaire.StepConsultation)
	require.Equal(t, questionnaire.Errors{
		models.FieldProfessional: "Selecione o profissional",
		models.FieldHasPlan:      "Informe se possui plano",
		models.FieldFrequency:    "Selecione a frequência",
	}, got)

	got = questionnaire.Validate(models.AnswerSet{
		Professional: "dr-silva",
		HasPlan:      "sim",
		Frequency:    "mensal",
	}, questionnaire.StepConsultation)
	require.Empty(t, got)
}

func TestNormalize(t *testing.T) {
	got, err := questionnaire.Normalize(models.FieldCPF, "111.222.333-44")
	require.NoError(t, err)
	require.Equal(t, "11122233344", got)

	got, err = questionnaire.Normalize(models.FieldProfessional, " dr-silva ")
	require.NoError(t, err)
	require.Equal(t, "dr-silva", got)

	got, err = questionnaire.Normalize(models.FieldHasPlan, "")
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = questionnaire.Normalize(models.FieldFrequency, "semanal")
	require.ErrorIs(t, err, questionnaire.ErrInvalidOption)

	_, err = questionnaire.Normalize(models.Field("age"), "42")
	require.ErrorIs(t, err, questionnaire.ErrUnknownField)
}

func TestFieldsOf(t *testing.T) {
	require.Equal(t, []models.Field{models.FieldCPF, models.FieldGender}, questionnaire.FieldsOf(questionnaire.StepIdentity))
	require.Len(t, questionnaire.FieldsOf(questionnaire.StepConsultation), 3)
}
