package models

// Option is one selectable answer. Value is what the session stores, Label is what visitors and the
// spreadsheet see.
type Option struct {
	Value string
	Label string
}

var (
	GenderOptions = []Option{
		{Value: "masculino", Label: "Masculino"},
		{Value: "feminino", Label: "Feminino"},
		{Value: "outro", Label: "Outro"},
	}
	ProfessionalOptions = []Option{
		{Value: "dr-silva", Label: "Dr. Silva - Clínico Geral"},
		{Value: "dra-santos", Label: "Dra. Santos - Cardiologista"},
		{Value: "dr-oliveira", Label: "Dr. Oliveira - Ortopedista"},
		{Value: "dra-costa", Label: "Dra. Costa - Dermatologista"},
		{Value: "dr-pereira", Label: "Dr. Pereira - Neurologista"},
	}
	HasPlanOptions = []Option{
		{Value: "sim", Label: "Sim"},
		{Value: "nao", Label: "Não"},
	}
	FrequencyOptions = []Option{
		{Value: "primeira-vez", Label: "Primeira vez"},
		{Value: "mensal", Label: "Mensalmente"},
		{Value: "trimestral", Label: "A cada 3 meses"},
		{Value: "semestral", Label: "A cada 6 meses"},
		{Value: "anual", Label: "Anualmente"},
		{Value: "raramente", Label: "Raramente"},
	}
)

// OptionsFor returns the closed option set of field, or nil for free-text fields.
func OptionsFor(field Field) []Option {
	switch field {
	case FieldGender:
		return GenderOptions
	case FieldProfessional:
		return ProfessionalOptions
	case FieldHasPlan:
		return HasPlanOptions
	case FieldFrequency:
		return FrequencyOptions
	case FieldCPF:
	}
	return nil
}

// Label translates a stored value to its display label. Unknown values are returned unchanged.
func Label(field Field, value string) string {
	for _, o := range OptionsFor(field) {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
