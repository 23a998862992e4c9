package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Responses holds the questionnaire answers keyed by question id.
// It records whether the field was present and whether it was a JSON object,
// so validation can tell a missing field from a malformed one.
type Responses struct {
	values  map[string]any
	present bool
	object  bool
}

// NewResponses builds Responses from already-decoded answers.
func NewResponses(values map[string]any) Responses {
	if values == nil {
		return Responses{}
	}
	return Responses{values: values, present: true, object: true}
}

func (r *Responses) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = Responses{}
		return nil
	}

	var values map[string]any
	if err := json.Unmarshal(trimmed, &values); err != nil {
		// Presente, mas não é um objeto (array, string, número...).
		// "", 0 e false também caem aqui: viram InvalidShape, não
		// MissingField, ao contrário do teste de falsidade do formulário antigo.
		*r = Responses{present: true}
		return nil
	}
	*r = Responses{values: values, present: true, object: true}
	return nil
}

func (r Responses) MarshalJSON() ([]byte, error) {
	if !r.object {
		return []byte("null"), nil
	}
	return json.Marshal(r.values)
}

// Present reports whether the field was sent with a non-null value.
func (r Responses) Present() bool { return r.present }

// IsObject reports whether the value was a key/value structure.
func (r Responses) IsObject() bool { return r.object }

// Raw returns the answers exactly as decoded, for persistence.
func (r Responses) Raw() map[string]any {
	return r.values
}

// Answers returns the string-valued answers. Non-string values are skipped,
// they never score.
func (r Responses) Answers() map[string]string {
	answers := make(map[string]string, len(r.values))
	for question, v := range r.values {
		if label, ok := v.(string); ok {
			answers[question] = label
		}
	}
	return answers
}

// DiagnosticRequest é o questionário de maturidade LGPD.
type DiagnosticRequest struct {
	CompanyName string    `json:"company_name" validate:"required"`
	Responses   Responses `json:"responses"`
	LeadID      string    `json:"lead_id,omitempty"`
	UTM
}

func (r *DiagnosticRequest) Kind() Kind { return KindDiagnostic }

func (r *DiagnosticRequest) Validate() error {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.LeadID = strings.TrimSpace(r.LeadID)

	if err := validateStruct(KindDiagnostic, r); err != nil {
		return err
	}
	if !r.Responses.Present() {
		return missingField(KindDiagnostic, "responses")
	}
	if !r.Responses.IsObject() {
		return invalidShape(KindDiagnostic, "responses")
	}
	return nil
}
