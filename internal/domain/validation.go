package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidationKind classifica falhas de validação causadas pelo cliente.
type ValidationKind string

const (
	MissingField ValidationKind = "missing_field"
	InvalidEmail ValidationKind = "invalid_email"
	InvalidShape ValidationKind = "invalid_shape"
)

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError is returned for client-caused failures. Never retried.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Fields returns the field map exposed in 400 responses.
func (e *ValidationError) Fields() map[string]string {
	if e.Field == "" {
		return nil
	}
	return map[string]string{e.Field: string(e.Kind)}
}

// emailPattern é propositalmente raso: só exige algo@algo.algo sem espaços.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether s has the accepted email shape.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Field() passa a devolver o nome JSON, que é o que o cliente enxerga.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})

	return v
}

// messages agrupa as mensagens exibidas ao usuário por tipo de submissão.
type messages struct {
	missing string
	email   string
	shape   map[string]string
}

var validationMessages = map[Kind]messages{
	KindLead: {
		missing: "Nome, email e empresa são obrigatórios",
		email:   "Email inválido",
		shape:   map[string]string{"cnpj": "CNPJ deve conter 14 dígitos"},
	},
	KindContact: {
		missing: "Nome, email e mensagem são obrigatórios",
		email:   "Email inválido",
		shape:   map[string]string{"priority": "Prioridade deve ser low, normal ou high"},
	},
	KindNewsletter: {
		missing: "Email é obrigatório",
		email:   "Email inválido",
	},
	KindDiagnostic: {
		missing: "Nome da empresa e respostas são obrigatórios",
		shape:   map[string]string{"responses": "Respostas devem ser um objeto válido"},
	},
	KindConsultation: {
		missing: "Campos obrigatórios: nome, email",
		email:   "Formato de email inválido",
	},
}

const invalidBodyMessage = "Corpo da requisição deve ser um objeto JSON válido"

func missingField(kind Kind, field string) *ValidationError {
	return &ValidationError{Kind: MissingField, Field: field, Message: validationMessages[kind].missing}
}

func invalidShape(kind Kind, field string) *ValidationError {
	msg, ok := validationMessages[kind].shape[field]
	if !ok {
		msg = fmt.Sprintf("Campo %s inválido", field)
	}
	return &ValidationError{Kind: InvalidShape, Field: field, Message: msg}
}

// validateStruct runs the tag rules and folds the result into a single
// ValidationError. Missing fields win over malformed ones.
func validateStruct(kind Kind, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", kind, err)
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return missingField(kind, fe.Field())
		}
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "emailshape" {
			return &ValidationError{Kind: InvalidEmail, Field: fe.Field(), Message: validationMessages[kind].email}
		}
	}
	return invalidShape(kind, fieldErrs[0].Field())
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// digitsOnly keeps only ASCII digits. Values without any digit are kept as
// typed so that the caller's validation rejects them instead of dropping them.
func digitsOnly(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return s
	}
	return b.String()
}
