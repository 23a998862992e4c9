package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KindSelection(t *testing.T) {
	for _, kind := range Kinds {
		req, err := Decode(kind, strings.NewReader(`{}`))
		require.NoError(t, err, kind)
		assert.Equal(t, kind, req.Kind())
	}

	_, err := Decode(Kind("wizard"), strings.NewReader(`{}`))
	assert.Error(t, err)
}

func TestDecode_LeadFields(t *testing.T) {
	body := `{
		"name": "Ana",
		"email": "ana@acme.com",
		"company": "Acme",
		"cnpj": "12345678000190",
		"segment": "saude",
		"utm_source": "linkedin",
		"utm_term": "dpo"
	}`

	req, err := Decode(KindLead, strings.NewReader(body))
	require.NoError(t, err)

	lead, ok := req.(*LeadRequest)
	require.True(t, ok)
	assert.Equal(t, "Ana", lead.Name)
	assert.Equal(t, "saude", lead.Segment)
	assert.Equal(t, "linkedin", lead.UTM.Source)
	assert.Equal(t, "dpo", lead.UTM.Term)
}

func TestDecode_EmptyBodyReportsMissingFields(t *testing.T) {
	req, err := Decode(KindContact, strings.NewReader(""))
	require.NoError(t, err)
	requireValidationError(t, req.Validate(), MissingField, "name")
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode(KindLead, strings.NewReader(`{"name":`))
	requireValidationError(t, err, InvalidShape, "body")

	_, err = Decode(KindLead, strings.NewReader(`["not","an","object"]`))
	requireValidationError(t, err, InvalidShape, "body")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDecode_ReadErrorIsNotValidation(t *testing.T) {
	_, err := Decode(KindLead, failingReader{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDecode_WrongFieldType(t *testing.T) {
	_, err := Decode(KindLead, strings.NewReader(`{"name": 42}`))
	requireValidationError(t, err, InvalidShape, "name")
}

func TestDecode_ConsultationIgnoresClientInfo(t *testing.T) {
	req, err := Decode(KindConsultation, strings.NewReader(`{"nome":"Ana","email":"a@b.co","Client":{"IPAddress":"1.2.3.4"}}`))
	require.NoError(t, err)
	c := req.(*ConsultationRequest)
	assert.Empty(t, c.Client.IPAddress)
}

func TestResponses_JSON(t *testing.T) {
	var r Responses
	require.NoError(t, json.Unmarshal([]byte(`{"q1":"Sim","q2":3,"q3":"Parcial","q4":null}`), &r))

	assert.True(t, r.Present())
	assert.True(t, r.IsObject())
	assert.Equal(t, map[string]string{"q1": "Sim", "q3": "Parcial"}, r.Answers())
	assert.Len(t, r.Raw(), 4)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"q1":"Sim","q2":3,"q3":"Parcial","q4":null}`, string(out))

	var empty Responses
	out, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestKind_ErrorCode(t *testing.T) {
	assert.Equal(t, "LEAD_SUBMISSION_FAILED", KindLead.ErrorCode())
	assert.Equal(t, "CONTACT_SUBMISSION_FAILED", KindContact.ErrorCode())
	assert.Equal(t, "NEWSLETTER_SUBSCRIPTION_FAILED", KindNewsletter.ErrorCode())
	assert.Equal(t, "DIAGNOSTIC_SUBMISSION_FAILED", KindDiagnostic.ErrorCode())
	assert.Equal(t, "CONSULTATION_BOOKING_FAILED", KindConsultation.ErrorCode())
	assert.True(t, KindLead.Valid())
	assert.False(t, Kind("wizard").Valid())
}
