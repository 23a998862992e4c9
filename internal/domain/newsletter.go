package domain

import "strings"

// NewsletterRequest inscreve um email na newsletter. Name é opcional.
type NewsletterRequest struct {
	Email string `json:"email" validate:"required,emailshape"`
	Name  string `json:"name,omitempty"`
	UTM
}

func (r *NewsletterRequest) Kind() Kind { return KindNewsletter }

func (r *NewsletterRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)

	return validateStruct(KindNewsletter, r)
}
