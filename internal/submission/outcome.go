package submission

import (
	"lgpd-site-api/internal/domain"
	"lgpd-site-api/internal/scoring"
	"lgpd-site-api/internal/storage"
)

// Status reported back to the visitor.
type Status string

const (
	StatusSuccess           Status = "success"
	StatusSubscribed        Status = "subscribed"
	StatusReactivated       Status = "reactivated"
	StatusAlreadySubscribed Status = "already_subscribed"
)

const (
	MessageLead              = "Lead enviado com sucesso!"
	MessageContact           = "Mensagem enviada com sucesso! Entraremos em contato em breve."
	MessageSubscribed        = "Inscrição na newsletter realizada com sucesso!"
	MessageReactivated       = "Assinatura reativada com sucesso!"
	MessageAlreadySubscribed = "Email já está inscrito na newsletter"
	MessageDiagnostic        = "Diagnóstico concluído com sucesso!"
	MessageConsultation      = "Consulta agendada com sucesso! Entraremos em contato em breve."
)

// Outcome is the result of a successful submission.
type Outcome struct {
	Kind    domain.Kind
	ID      string // vazio quando nenhuma linha foi criada nem tocada
	Status  Status
	Message string

	// Score is set for diagnostics only.
	Score *scoring.Result

	// Record holds the row as the backend returned it.
	Record storage.Record
}
