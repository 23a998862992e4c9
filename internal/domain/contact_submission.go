package domain

import "strings"

// Priority of a contact message.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// DefaultContactSubject é o assunto gravado quando o visitante não informa um.
const DefaultContactSubject = "Contato pelo site"

// ContactRequest é uma mensagem enviada pelo formulário de contato.
type ContactRequest struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,emailshape"`
	Message  string   `json:"message" validate:"required"`
	Phone    string   `json:"phone,omitempty"`
	Company  string   `json:"company,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Priority Priority `json:"priority,omitempty" validate:"oneof=low normal high"`
	UTM
}

func (r *ContactRequest) Kind() Kind { return KindContact }

func (r *ContactRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Message = strings.TrimSpace(r.Message)
	r.Phone = digitsOnly(r.Phone)
	r.Company = strings.TrimSpace(r.Company)
	r.Subject = strings.TrimSpace(r.Subject)
	if r.Subject == "" {
		r.Subject = DefaultContactSubject
	}
	r.Priority = Priority(strings.ToLower(strings.TrimSpace(string(r.Priority))))
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}

	return validateStruct(KindContact, r)
}
