// Package submission orquestra o fluxo de cada formulário: valida,
// pontua (diagnóstico), monta o registro, persiste uma única vez e
// constrói o resultado. Nenhuma escrita é repetida em caso de falha.
package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lgpd-site-api/internal/domain"
	"lgpd-site-api/internal/events"
	"lgpd-site-api/internal/observability/logger"
	"lgpd-site-api/internal/scoring"
	"lgpd-site-api/internal/storage"

	"go.uber.org/zap"
)

// DefaultTimeout bounds the storage round trips of one submission.
const DefaultTimeout = 10 * time.Second

// Recorder receives business metrics. Implemented by telemetry.Collectors.
type Recorder interface {
	ObserveSubmission(kind domain.Kind, status string)
	ObserveScore(result scoring.Result)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSubmission(domain.Kind, string) {}
func (nopRecorder) ObserveScore(scoring.Result)           {}

// Deps wires a Pipeline. Only Store is required.
type Deps struct {
	Store   storage.Store
	Events  events.Publisher
	Metrics Recorder
	Log     *logger.Logger
	Timeout time.Duration
	Now     func() time.Time
}

// Pipeline is stateless and safe for concurrent use.
type Pipeline struct {
	store   storage.Store
	events  events.Publisher
	metrics Recorder
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

func New(deps Deps) *Pipeline {
	p := &Pipeline{
		store:   deps.Store,
		events:  deps.Events,
		metrics: deps.Metrics,
		log:     deps.Log,
		timeout: deps.Timeout,
		now:     deps.Now,
	}
	if p.events == nil {
		p.events = events.Noop{}
	}
	if p.metrics == nil {
		p.metrics = nopRecorder{}
	}
	if p.log == nil {
		p.log = logger.NewNop()
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Submit validates req and persists it. It returns a *domain.ValidationError
// for client mistakes and a *Error for backend failures.
func (p *Pipeline) Submit(ctx context.Context, req domain.SubmissionRequest) (*Outcome, error) {
	kind := req.Kind()

	if err := req.Validate(); err != nil {
		p.metrics.ObserveSubmission(kind, "invalid")
		p.log.Info(ctx, "submission rejected by validation",
			logger.Module("submission"),
			logger.Action("validate_"+string(kind)),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	now := storage.Timestamp(p.now())

	var (
		outcome *Outcome
		err     error
	)
	switch r := req.(type) {
	case *domain.LeadRequest:
		outcome, err = p.insertOne(ctx, kind, storage.TableLeads, leadRecord(r, now), MessageLead)
	case *domain.ContactRequest:
		outcome, err = p.insertOne(ctx, kind, storage.TableContactSubmissions, contactRecord(r, now), MessageContact)
	case *domain.NewsletterRequest:
		outcome, err = p.subscribe(ctx, r, now)
	case *domain.DiagnosticRequest:
		outcome, err = p.diagnose(ctx, r, now)
	case *domain.ConsultationRequest:
		outcome, err = p.book(ctx, r, now)
	default:
		return nil, fmt.Errorf("unsupported submission %T", req)
	}

	if err != nil {
		p.metrics.ObserveSubmission(kind, "failed")
		p.log.Error(ctx, "submission failed",
			logger.Module("submission"),
			logger.Action("submit_"+string(kind)),
			zap.String("kind", string(kind)),
			zap.String("storage_error_kind", string(storage.KindOf(err))),
			zap.Error(err),
		)
		return nil, storageFailure(kind, err)
	}

	p.metrics.ObserveSubmission(kind, string(outcome.Status))
	p.log.Info(ctx, "submission recorded",
		logger.Module("submission"),
		logger.Action("submit_"+string(kind)),
		zap.String("kind", string(kind)),
		zap.String("record_id", outcome.ID),
		zap.String("status", string(outcome.Status)),
	)
	p.publish(ctx, outcome, utmSource(req))

	return outcome, nil
}

func (p *Pipeline) insertOne(ctx context.Context, kind domain.Kind, table storage.Table, rec storage.Record, message string) (*Outcome, error) {
	persisted, err := p.store.Insert(ctx, table, rec)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Kind:    kind,
		ID:      persisted.ID,
		Status:  StatusSuccess,
		Message: message,
		Record:  persisted.Fields,
	}, nil
}

// subscribe: procura por email, reativa se "unsubscribed", no-op se já
// ativo, senão insere. Corrida de email duplicado vira already_subscribed.
func (p *Pipeline) subscribe(ctx context.Context, r *domain.NewsletterRequest, now string) (*Outcome, error) {
	existing, found, err := p.store.FindOne(ctx, storage.TableNewsletterSubscribers, storage.Predicate{Column: "email", Value: r.Email})
	if err != nil {
		return nil, err
	}

	if found {
		id := existing.ID()
		if existing.String("status") != newsletterStatusUnsubscribed {
			return &Outcome{
				Kind:    domain.KindNewsletter,
				ID:      id,
				Status:  StatusAlreadySubscribed,
				Message: MessageAlreadySubscribed,
				Record:  existing,
			}, nil
		}

		if id == "" {
			return nil, storage.NewError(storage.KindTransportFailure, "find_one", storage.TableNewsletterSubscribers, errors.New("subscriber row without id"))
		}

		patch := reactivationPatch(now)
		if err := p.store.Update(ctx, storage.TableNewsletterSubscribers, id, patch); err != nil {
			return nil, err
		}
		rec := existing.Clone()
		for k, v := range patch {
			rec[k] = v
		}
		return &Outcome{
			Kind:    domain.KindNewsletter,
			ID:      id,
			Status:  StatusReactivated,
			Message: MessageReactivated,
			Record:  rec,
		}, nil
	}

	persisted, err := p.store.Insert(ctx, storage.TableNewsletterSubscribers, newsletterRecord(r, now))
	if storage.IsConstraintViolation(err) {
		p.log.Info(ctx, "concurrent newsletter signup absorbed",
			logger.Module("submission"),
			logger.Action("submit_newsletter"),
		)
		return &Outcome{
			Kind:    domain.KindNewsletter,
			Status:  StatusAlreadySubscribed,
			Message: MessageAlreadySubscribed,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Kind:    domain.KindNewsletter,
		ID:      persisted.ID,
		Status:  StatusSubscribed,
		Message: MessageSubscribed,
		Record:  persisted.Fields,
	}, nil
}

func (p *Pipeline) diagnose(ctx context.Context, r *domain.DiagnosticRequest, now string) (*Outcome, error) {
	result := scoring.Score(r.Responses.Answers())
	if len(result.Unrecognized) > 0 {
		p.log.Warn(ctx, "diagnostic answers outside the scoring table",
			logger.Module("submission"),
			logger.Action("score_diagnostic"),
			zap.Strings("questions", result.Unrecognized),
		)
	}

	persisted, err := p.store.Insert(ctx, storage.TableDiagnosticos, diagnosticRecord(r, result, now))
	if err != nil {
		return nil, err
	}

	p.metrics.ObserveScore(result)

	return &Outcome{
		Kind:    domain.KindDiagnostic,
		ID:      persisted.ID,
		Status:  StatusSuccess,
		Message: MessageDiagnostic,
		Score:   &result,
		Record:  persisted.Fields,
	}, nil
}

// book grava o lead de origem e depois a consulta apontando para ele.
// Se a segunda escrita falhar o lead permanece.
func (p *Pipeline) book(ctx context.Context, r *domain.ConsultationRequest, now string) (*Outcome, error) {
	lead, err := p.store.Insert(ctx, storage.TableLGPDLeads, consultationLeadRecord(r, now))
	if err != nil {
		return nil, err
	}

	consultation, err := p.store.Insert(ctx, storage.TableLGPDConsultations, consultationRecord(r, lead.ID, now))
	if err != nil {
		p.log.Warn(ctx, "consultation lead kept without booking",
			logger.Module("submission"),
			logger.Action("submit_consultation"),
			zap.String("lead_id", lead.ID),
		)
		return nil, err
	}

	return &Outcome{
		Kind:    domain.KindConsultation,
		ID:      consultation.ID,
		Status:  StatusSuccess,
		Message: MessageConsultation,
		Record:  consultation.Fields,
	}, nil
}

func (p *Pipeline) publish(ctx context.Context, o *Outcome, utm string) {
	e := events.Event{
		EventName: events.EventSubmissionRecorded,
		Kind:      o.Kind,
		RecordID:  o.ID,
		Status:    string(o.Status),
		UTMSource: utm,
	}
	if o.Score != nil {
		score := o.Score.TotalScore
		e.Score = &score
		e.MaturityLevel = string(o.Score.MaturityLevel)
	}

	if err := p.events.Publish(ctx, e); err != nil {
		p.log.Warn(ctx, "failed to publish submission event",
			logger.Module("submission"),
			logger.Action("publish_event"),
			zap.String("kind", string(o.Kind)),
			zap.Error(err),
		)
	}
}

func utmSource(req domain.SubmissionRequest) string {
	switch r := req.(type) {
	case *domain.LeadRequest:
		return r.UTM.Source
	case *domain.ContactRequest:
		return r.UTM.Source
	case *domain.NewsletterRequest:
		return r.UTM.Source
	case *domain.DiagnosticRequest:
		return r.UTM.Source
	default:
		return ""
	}
}
