package models

// Field names a questionnaire field. The values double as HTML form field names.
type Field string

const (
	FieldCPF          Field = "cpf"
	FieldGender       Field = "gender"
	FieldProfessional Field = "professional"
	FieldHasPlan      Field = "hasPlan"
	FieldFrequency    Field = "frequency"
)

// Fields lists every questionnaire field in display order.
var Fields = []Field{FieldCPF, FieldGender, FieldProfessional, FieldHasPlan, FieldFrequency}

// CPFLength is the number of digits in a Brazilian individual taxpayer number.
const CPFLength = 11

// AnswerSet is the draft response of one visitor. Empty strings mean unanswered.
type AnswerSet struct {
	CPF          string
	Gender       string
	Professional string
	HasPlan      string
	Frequency    string
}

// Get returns the value stored for field.
func (a AnswerSet) Get(field Field) string {
	switch field {
	case FieldCPF:
		return a.CPF
	case FieldGender:
		return a.Gender
	case FieldProfessional:
		return a.Professional
	case FieldHasPlan:
		return a.HasPlan
	case FieldFrequency:
		return a.Frequency
	}
	return ""
}

// With returns a copy of a with field set to value.
func (a AnswerSet) With(field Field, value string) AnswerSet {
	switch field {
	case FieldCPF:
		a.CPF = value
	case FieldGender:
		a.Gender = value
	case FieldProfessional:
		a.Professional = value
	case FieldHasPlan:
		a.HasPlan = value
	case FieldFrequency:
		a.Frequency = value
	}
	return a
}

// IsEmpty reports whether no field has been answered.
func (a AnswerSet) IsEmpty() bool {
	return a == AnswerSet{}
}
