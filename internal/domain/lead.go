package domain

import "strings"

// DefaultLeadInterest é usado quando o formulário não informa o interesse.
const DefaultLeadInterest = "geral"

// LeadRequest captura um prospect vindo dos formulários de lead.
type LeadRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,emailshape"`
	Company  string `json:"company" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	CNPJ     string `json:"cnpj,omitempty" validate:"omitempty,numeric,len=14"`
	Segment  string `json:"segment,omitempty"`
	Interest string `json:"interest,omitempty"`
	UTM
}

func (r *LeadRequest) Kind() Kind { return KindLead }

// Validate normaliza e valida o lead.
// CNPJ: só a contagem de 14 dígitos é verificada, sem dígito verificador.
func (r *LeadRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Company = strings.TrimSpace(r.Company)
	r.Phone = digitsOnly(r.Phone)
	r.CNPJ = digitsOnly(r.CNPJ)
	r.Segment = strings.TrimSpace(r.Segment)
	r.Interest = strings.TrimSpace(r.Interest)
	if r.Interest == "" {
		r.Interest = DefaultLeadInterest
	}

	return validateStruct(KindLead, r)
}
