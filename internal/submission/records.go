package submission

import (
	"lgpd-site-api/internal/domain"
	"lgpd-site-api/internal/scoring"
	"lgpd-site-api/internal/storage"
)

const (
	newsletterStatusActive       = "active"
	newsletterStatusUnsubscribed = "unsubscribed"

	contactStatusNew = "new"

	consultationStatus     = "agendada"
	consultationInterest   = "consulta_gratuita"
	consultationLeadOrigin = "implementacao_lgpd_consultation"
)

// optional maps empty strings to SQL NULL.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func withUTM(rec storage.Record, utm domain.UTM) storage.Record {
	rec["utm_source"] = optional(utm.Source)
	rec["utm_medium"] = optional(utm.Medium)
	rec["utm_campaign"] = optional(utm.Campaign)
	rec["utm_content"] = optional(utm.Content)
	rec["utm_term"] = optional(utm.Term)
	return rec
}

func leadRecord(r *domain.LeadRequest, now string) storage.Record {
	return withUTM(storage.Record{
		"name":       r.Name,
		"email":      r.Email,
		"company":    r.Company,
		"phone":      optional(r.Phone),
		"cnpj":       optional(r.CNPJ),
		"segment":    optional(r.Segment),
		"interest":   r.Interest,
		"created_at": now,
		"updated_at": now,
	}, r.UTM)
}

func contactRecord(r *domain.ContactRequest, now string) storage.Record {
	return withUTM(storage.Record{
		"name":       r.Name,
		"email":      r.Email,
		"phone":      optional(r.Phone),
		"company":    optional(r.Company),
		"subject":    r.Subject,
		"message":    r.Message,
		"priority":   string(r.Priority),
		"status":     contactStatusNew,
		"created_at": now,
	}, r.UTM)
}

func newsletterRecord(r *domain.NewsletterRequest, now string) storage.Record {
	return withUTM(storage.Record{
		"email":         r.Email,
		"name":          optional(r.Name),
		"status":        newsletterStatusActive,
		"subscribed_at": now,
		"created_at":    now,
	}, r.UTM)
}

func reactivationPatch(now string) storage.Record {
	return storage.Record{
		"status":          newsletterStatusActive,
		"subscribed_at":   now,
		"unsubscribed_at": nil,
	}
}

func diagnosticRecord(r *domain.DiagnosticRequest, result scoring.Result, now string) storage.Record {
	responses := r.Responses.Raw()
	if responses == nil {
		responses = map[string]any{}
	}
	return withUTM(storage.Record{
		"lead_id":         optional(r.LeadID),
		"company_name":    r.CompanyName,
		"responses":       responses,
		"score":           result.TotalScore,
		"maturity_level":  string(result.MaturityLevel),
		"recommendations": result.Recommendations,
		"created_at":      now,
		"completed_at":    now,
	}, r.UTM)
}

func consultationLeadRecord(r *domain.ConsultationRequest, now string) storage.Record {
	return storage.Record{
		"nome":           r.Nome,
		"email":          r.Email,
		"empresa":        optional(r.Empresa),
		"telefone":       optional(r.Telefone),
		"tipo_interesse": consultationInterest,
		"origem":         consultationLeadOrigin,
		"ip_address":     optional(r.Client.IPAddress),
		"user_agent":     optional(r.Client.UserAgent),
		"created_at":     now,
	}
}

func consultationRecord(r *domain.ConsultationRequest, leadID, now string) storage.Record {
	return storage.Record{
		"nome":           r.Nome,
		"email":          r.Email,
		"empresa":        optional(r.Empresa),
		"telefone":       optional(r.Telefone),
		"data_preferida": optional(r.DataPreferida),
		"hora_preferida": optional(r.HoraPreferida),
		"urgencia":       r.Urgencia,
		"observacoes":    optional(r.Observacoes),
		"status":         consultationStatus,
		"lead_id":        leadID,
		"created_at":     now,
	}
}
