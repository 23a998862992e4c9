package domain

import "strings"

// DefaultUrgency é a urgência gravada quando o formulário não informa uma.
const DefaultUrgency = "normal"

// ClientInfo carries request metadata recorded with a consultation lead.
// It is filled by the HTTP layer, never decoded from the body.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// ConsultationRequest agenda uma consulta gratuita de implementação LGPD.
// Os nomes de campo seguem o formulário do site, em português.
type ConsultationRequest struct {
	Nome          string `json:"nome" validate:"required"`
	Email         string `json:"email" validate:"required,emailshape"`
	Empresa       string `json:"empresa,omitempty"`
	Telefone      string `json:"telefone,omitempty"`
	DataPreferida string `json:"data_preferida,omitempty"`
	HoraPreferida string `json:"hora_preferida,omitempty"`
	Urgencia      string `json:"urgencia,omitempty"`
	Observacoes   string `json:"observacoes,omitempty"`

	Client ClientInfo `json:"-"`
}

func (r *ConsultationRequest) Kind() Kind { return KindConsultation }

func (r *ConsultationRequest) Validate() error {
	r.Nome = strings.TrimSpace(r.Nome)
	r.Email = normalizeEmail(r.Email)
	r.Empresa = strings.TrimSpace(r.Empresa)
	r.Telefone = digitsOnly(r.Telefone)
	r.DataPreferida = strings.TrimSpace(r.DataPreferida)
	r.HoraPreferida = strings.TrimSpace(r.HoraPreferida)
	r.Urgencia = strings.TrimSpace(r.Urgencia)
	if r.Urgencia == "" {
		r.Urgencia = DefaultUrgency
	}
	r.Observacoes = strings.TrimSpace(r.Observacoes)

	return validateStruct(KindConsultation, r)
}
