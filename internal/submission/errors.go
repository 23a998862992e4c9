package submission

import (
	"errors"
	"fmt"

	"lgpd-site-api/internal/domain"
	"lgpd-site-api/internal/storage"
)

// ErrorKind classifies submission failures. Validation failures are
// returned as *domain.ValidationError and never wrapped here.
type ErrorKind string

const (
	StorageFailure ErrorKind = "storage_failure"
)

// ErrStorageFailure matches any *Error of kind StorageFailure via errors.Is.
var ErrStorageFailure = errors.New("submission storage failure")

// Error is the user-facing failure of a submission. Message is safe to
// show to the visitor; Cause is for logs only.
type Error struct {
	Kind       ErrorKind
	Submission domain.Kind
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Submission, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	return target == ErrStorageFailure && e.Kind == StorageFailure
}

// Code returns the API error code for the submission kind.
func (e *Error) Code() string {
	return e.Submission.ErrorCode()
}

// StorageKind returns the storage error kind behind the failure, if any.
func (e *Error) StorageKind() storage.ErrorKind {
	return storage.KindOf(e.Cause)
}

var failureMessages = map[domain.Kind]string{
	domain.KindLead:         "Falha ao salvar lead",
	domain.KindContact:      "Falha ao salvar mensagem",
	domain.KindNewsletter:   "Falha ao salvar assinatura",
	domain.KindDiagnostic:   "Falha ao salvar diagnóstico",
	domain.KindConsultation: "Erro ao agendar consulta",
}

func storageFailure(kind domain.Kind, cause error) *Error {
	msg, ok := failureMessages[kind]
	if !ok {
		msg = "Erro interno do servidor"
	}
	return &Error{Kind: StorageFailure, Submission: kind, Message: msg, Cause: cause}
}
