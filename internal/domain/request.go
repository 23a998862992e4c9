package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SubmissionRequest é a união das requisições aceitas pelos formulários.
// Validate normaliza a própria struct (trim, email minúsculo, dígitos)
// e então aplica as regras; a struct resultante é a requisição validada.
type SubmissionRequest interface {
	Kind() Kind
	Validate() error
}

// UTM carries campaign attribution tags, passed through unmodified.
type UTM struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Content  string `json:"utm_content,omitempty"`
	Term     string `json:"utm_term,omitempty"`
}

// New returns an empty request for kind.
func New(kind Kind) (SubmissionRequest, error) {
	switch kind {
	case KindLead:
		return &LeadRequest{}, nil
	case KindContact:
		return &ContactRequest{}, nil
	case KindNewsletter:
		return &NewsletterRequest{}, nil
	case KindDiagnostic:
		return &DiagnosticRequest{}, nil
	case KindConsultation:
		return &ConsultationRequest{}, nil
	default:
		return nil, fmt.Errorf("unknown submission kind %q", kind)
	}
}

// Decode parses a JSON body into the typed request for kind.
// An empty body decodes to an empty request so that required-field rules
// report what is missing. Malformed JSON is an InvalidShape error.
func Decode(kind Kind, r io.Reader) (SubmissionRequest, error) {
	req, err := New(kind)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(r)
	if err := dec.Decode(req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read %s body: %w", kind, err)
		}
		field := "body"
		if typeErr != nil && typeErr.Field != "" {
			field = strings.SplitN(typeErr.Field, ".", 2)[0]
		}
		return nil, &ValidationError{Kind: InvalidShape, Field: field, Message: invalidBodyMessage}
	}
	return req, nil
}
