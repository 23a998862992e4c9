package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"lgpd-site-api/internal/domain"
	"lgpd-site-api/internal/http/httperr"
	"lgpd-site-api/internal/http/middleware"
	"lgpd-site-api/internal/observability/logger"
	"lgpd-site-api/internal/scoring"
	"lgpd-site-api/internal/submission"
	"lgpd-site-api/internal/storage"

	"go.uber.org/zap"
)

// MaxBodyBytes caps every submission body.
const MaxBodyBytes = 64 << 10

// Submitter runs a validated submission. Implemented by submission.Pipeline.
type Submitter interface {
	Submit(ctx context.Context, req domain.SubmissionRequest) (*submission.Outcome, error)
}

// SubmissionHandler serves the public site forms.
type SubmissionHandler struct {
	submitter Submitter
}

func NewSubmissionHandler(submitter Submitter) *SubmissionHandler {
	return &SubmissionHandler{submitter: submitter}
}

type envelope struct {
	Data any `json:"data"`
}

type leadResponse struct {
	LeadID  string `json:"leadId"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type contactResponse struct {
	ContactID string `json:"contactId"`
	Message   string `json:"message"`
	Status    string `json:"status"`
}

type newsletterResponse struct {
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Message        string `json:"message"`
	Status         string `json:"status"`
}

type diagnosticResponse struct {
	DiagnosticID    string        `json:"diagnosticId"`
	Score           int           `json:"score"`
	MaturityLevel   scoring.Level `json:"maturityLevel"`
	Recommendations []string      `json:"recommendations"`
	Message         string        `json:"message"`
	Status          string        `json:"status"`
}

type consultationResponse struct {
	Success bool             `json:"success"`
	Data    consultationData `json:"data"`
}

type consultationData struct {
	ID            string `json:"id"`
	Nome          any    `json:"nome"`
	Email         any    `json:"email"`
	DataPreferida any    `json:"data_preferida"`
	HoraPreferida any    `json:"hora_preferida"`
	CreatedAt     any    `json:"created_at"`
	Message       string `json:"message"`
}

// Lead handles POST /v1/lead-submission
func (h *SubmissionHandler) Lead(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.submit(w, r, domain.KindLead, nil)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: leadResponse{
		LeadID:  outcome.ID,
		Message: outcome.Message,
		Status:  string(outcome.Status),
	}})
}

// Contact handles POST /v1/contact-submission
func (h *SubmissionHandler) Contact(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.submit(w, r, domain.KindContact, nil)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: contactResponse{
		ContactID: outcome.ID,
		Message:   outcome.Message,
		Status:    string(outcome.Status),
	}})
}

// Newsletter handles POST /v1/newsletter-subscription
func (h *SubmissionHandler) Newsletter(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.submit(w, r, domain.KindNewsletter, nil)
	if !ok {
		return
	}
	resp := newsletterResponse{
		Message: outcome.Message,
		Status:  string(outcome.Status),
	}
	// só uma inscrição nova devolve o id
	if outcome.Status == submission.StatusSubscribed {
		resp.SubscriptionID = outcome.ID
	}
	writeJSON(w, http.StatusOK, envelope{Data: resp})
}

// Diagnostic handles POST /v1/diagnostic-submission
func (h *SubmissionHandler) Diagnostic(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.submit(w, r, domain.KindDiagnostic, nil)
	if !ok {
		return
	}
	resp := diagnosticResponse{
		DiagnosticID: outcome.ID,
		Message:      outcome.Message,
		Status:       string(outcome.Status),
	}
	if outcome.Score != nil {
		resp.Score = outcome.Score.TotalScore
		resp.MaturityLevel = outcome.Score.MaturityLevel
		resp.Recommendations = outcome.Score.Recommendations
	}
	writeJSON(w, http.StatusOK, envelope{Data: resp})
}

// Consultation handles POST /v1/lgpd-consultation-booking
func (h *SubmissionHandler) Consultation(w http.ResponseWriter, r *http.Request) {
	var req *domain.ConsultationRequest
	outcome, ok := h.submit(w, r, domain.KindConsultation, func(sr domain.SubmissionRequest) {
		req = sr.(*domain.ConsultationRequest)
		req.Client = domain.ClientInfo{
			IPAddress: middleware.ClientIP(r),
			UserAgent: r.UserAgent(),
		}
	})
	if !ok {
		return
	}

	rec := outcome.Record
	writeJSON(w, http.StatusCreated, consultationResponse{
		Success: true,
		Data: consultationData{
			ID:            outcome.ID,
			Nome:          recordValue(rec, "nome", req.Nome),
			Email:         recordValue(rec, "email", req.Email),
			DataPreferida: recordValue(rec, "data_preferida", nil),
			HoraPreferida: recordValue(rec, "hora_preferida", nil),
			CreatedAt:     recordValue(rec, "created_at", nil),
			Message:       outcome.Message,
		},
	})
}

// submit decodes the body, runs the pipeline and writes any failure.
// prepare, when set, runs on the decoded request before submission.
func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request, kind domain.Kind, prepare func(domain.SubmissionRequest)) (*submission.Outcome, bool) {
	ctx := r.Context()

	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	req, err := domain.Decode(kind, body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httperr.WriteError(w, ctx, http.StatusRequestEntityTooLarge, httperr.ErrCodeValidationError, "Corpo da requisição muito grande")
			return nil, false
		}
		writeSubmissionError(w, ctx, kind, err)
		return nil, false
	}
	if prepare != nil {
		prepare(req)
	}

	outcome, err := h.submitter.Submit(ctx, req)
	if err != nil {
		writeSubmissionError(w, ctx, kind, err)
		return nil, false
	}
	return outcome, true
}

func writeSubmissionError(w http.ResponseWriter, ctx context.Context, kind domain.Kind, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		httperr.BadRequest400WithFields(w, ctx, kind.ErrorCode(), vErr.Message, vErr.Fields())
		return
	}

	logger.SetRootError(ctx, err)

	var sErr *submission.Error
	if errors.As(err, &sErr) {
		logger.GetLogger(ctx).Error(ctx, "submission storage failure",
			logger.Module("handler"),
			logger.Action("submit_"+string(kind)),
			zap.String("storage_error_kind", string(storage.KindOf(err))),
		)
		httperr.InternalError500(w, ctx, sErr.Code(), sErr.Message)
		return
	}

	httperr.InternalError(w, ctx)
}

func recordValue(rec map[string]any, key string, fallback any) any {
	if v, ok := rec[key]; ok && v != nil {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
