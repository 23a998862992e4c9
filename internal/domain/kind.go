package domain

// Kind identifica o tipo de submissão recebida pelos formulários do site.
type Kind string

const (
	KindLead         Kind = "lead"
	KindContact      Kind = "contact"
	KindNewsletter   Kind = "newsletter"
	KindDiagnostic   Kind = "diagnostic"
	KindConsultation Kind = "consultation"
)

// Kinds lists every submission kind served by the API.
var Kinds = []Kind{KindLead, KindContact, KindNewsletter, KindDiagnostic, KindConsultation}

// ErrorCode is the machine-readable code returned in error envelopes.
func (k Kind) ErrorCode() string {
	switch k {
	case KindLead:
		return "LEAD_SUBMISSION_FAILED"
	case KindContact:
		return "CONTACT_SUBMISSION_FAILED"
	case KindNewsletter:
		return "NEWSLETTER_SUBSCRIPTION_FAILED"
	case KindDiagnostic:
		return "DIAGNOSTIC_SUBMISSION_FAILED"
	case KindConsultation:
		return "CONSULTATION_BOOKING_FAILED"
	default:
		return "SUBMISSION_FAILED"
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}
