package submission

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lgpd-site-api/internal/domain"
	"lgpd-site-api/internal/events"
	"lgpd-site-api/internal/scoring"
	"lgpd-site-api/internal/storage"
	"lgpd-site-api/internal/storage/postgrest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

/* ==================== MOCKS ==================== */

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Insert(ctx context.Context, table storage.Table, rec storage.Record) (*storage.PersistedRecord, error) {
	args := m.Called(ctx, table, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PersistedRecord), args.Error(1)
}

func (m *MockStore) FindOne(ctx context.Context, table storage.Table, p storage.Predicate) (storage.Record, bool, error) {
	args := m.Called(ctx, table, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(storage.Record), args.Bool(1), args.Error(2)
}

func (m *MockStore) Update(ctx context.Context, table storage.Table, id string, patch storage.Record) error {
	args := m.Called(ctx, table, id, patch)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockPublisher) Close() error { return nil }

type recorder struct {
	submissions []string
	scores      []scoring.Result
}

func (r *recorder) ObserveSubmission(kind domain.Kind, status string) {
	r.submissions = append(r.submissions, string(kind)+":"+status)
}

func (r *recorder) ObserveScore(result scoring.Result) {
	r.scores = append(r.scores, result)
}

/* ==================== HELPERS ==================== */

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const fixedTimestamp = "2025-03-01T12:00:00.000Z"

func newPipeline(store storage.Store) (*Pipeline, *recorder) {
	rec := &recorder{}
	return New(Deps{
		Store:   store,
		Metrics: rec,
		Now:     func() time.Time { return fixedNow },
	}), rec
}

func persisted(id string) *storage.PersistedRecord {
	return &storage.PersistedRecord{ID: id, Fields: storage.Record{"id": id}}
}

/* ==================== TESTS ==================== */

func TestSubmit_Lead(t *testing.T) {
	store := new(MockStore)
	p, metrics := newPipeline(store)

	var saved storage.Record
	store.On("Insert", mock.Anything, storage.TableLeads, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).(storage.Record) }).
		Return(persisted("lead-1"), nil).Once()

	out, err := p.Submit(context.Background(), &domain.LeadRequest{
		Name:    " Ana ",
		Email:   "Ana@Acme.com",
		Company: "Acme",
		UTM:     domain.UTM{Source: "google", Campaign: "lgpd-q1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "lead-1", out.ID)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, MessageLead, out.Message)
	assert.Nil(t, out.Score)

	assert.Equal(t, "Ana", saved["name"])
	assert.Equal(t, "ana@acme.com", saved["email"])
	assert.Equal(t, domain.DefaultLeadInterest, saved["interest"])
	assert.Equal(t, "google", saved["utm_source"])
	assert.Equal(t, "lgpd-q1", saved["utm_campaign"])
	assert.Nil(t, saved["utm_medium"])
	assert.Nil(t, saved["phone"])
	assert.Equal(t, fixedTimestamp, saved["created_at"])
	assert.Equal(t, fixedTimestamp, saved["updated_at"])

	assert.Equal(t, []string{"lead:success"}, metrics.submissions)
	store.AssertExpectations(t)
}

func TestSubmit_Contact(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	store.On("Insert", mock.Anything, storage.TableContactSubmissions, mock.MatchedBy(func(rec storage.Record) bool {
		return rec["status"] == "new" &&
			rec["priority"] == "normal" &&
			rec["subject"] == domain.DefaultContactSubject &&
			rec["message"] == "Preciso de um DPO"
	})).Return(persisted("contact-1"), nil).Once()

	out, err := p.Submit(context.Background(), &domain.ContactRequest{
		Name: "Ana", Email: "ana@acme.com", Message: "Preciso de um DPO",
	})
	require.NoError(t, err)
	assert.Equal(t, "contact-1", out.ID)
	assert.Equal(t, MessageContact, out.Message)
	store.AssertExpectations(t)
}

func TestSubmit_ValidationNeverTouchesStorage(t *testing.T) {
	tests := []struct {
		name  string
		req   domain.SubmissionRequest
		field string
	}{
		{"lead without company", &domain.LeadRequest{Name: "Ana", Email: "a@b.co"}, "company"},
		{"lead without name", &domain.LeadRequest{Email: "a@b.co", Company: "Acme"}, "name"},
		{"contact without message", &domain.ContactRequest{Name: "Ana", Email: "a@b.co"}, "message"},
		{"newsletter without email", &domain.NewsletterRequest{Name: "Ana"}, "email"},
		{"diagnostic without responses", &domain.DiagnosticRequest{CompanyName: "Acme"}, "responses"},
		{"consultation without nome", &domain.ConsultationRequest{Email: "a@b.co"}, "nome"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			p, metrics := newPipeline(store)

			out, err := p.Submit(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, out)

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, domain.MissingField, vErr.Kind)
			assert.Equal(t, tt.field, vErr.Field)

			store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything, mock.Anything)
			assert.Equal(t, []string{string(tt.req.Kind()) + ":invalid"}, metrics.submissions)
		})
	}
}

func TestSubmit_InvalidEmail(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	_, err := p.Submit(context.Background(), &domain.LeadRequest{Name: "Ana", Email: "ana@acme", Company: "Acme"})

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, domain.InvalidEmail, vErr.Kind)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_StorageFailureIsNotRetried(t *testing.T) {
	store := new(MockStore)
	p, metrics := newPipeline(store)

	cause := storage.NewError(storage.KindTransportFailure, "insert", storage.TableLeads, errors.New("connection refused"))
	store.On("Insert", mock.Anything, storage.TableLeads, mock.Anything).Return(nil, cause)

	out, err := p.Submit(context.Background(), &domain.LeadRequest{Name: "Ana", Email: "a@b.co", Company: "Acme"})
	require.Error(t, err)
	assert.Nil(t, out)

	var sErr *Error
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, StorageFailure, sErr.Kind)
	assert.Equal(t, "LEAD_SUBMISSION_FAILED", sErr.Code())
	assert.Equal(t, "Falha ao salvar lead", sErr.Message)
	assert.Equal(t, storage.KindTransportFailure, sErr.StorageKind())
	assert.True(t, errors.Is(err, ErrStorageFailure))
	assert.True(t, errors.Is(err, cause))

	store.AssertNumberOfCalls(t, "Insert", 1)
	assert.Equal(t, []string{"lead:failed"}, metrics.submissions)
}

func TestSubmit_AppliesTimeout(t *testing.T) {
	store := new(MockStore)
	p := New(Deps{Store: store, Timeout: 20 * time.Millisecond})

	store.On("Insert", mock.Anything, storage.TableLeads, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(20*time.Millisecond), deadline, 20*time.Millisecond)
		}).
		Return(nil, storage.NewError(storage.KindTimeout, "insert", storage.TableLeads, context.DeadlineExceeded)).Once()

	_, err := p.Submit(context.Background(), &domain.LeadRequest{Name: "Ana", Email: "a@b.co", Company: "Acme"})

	var sErr *Error
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, storage.KindTimeout, sErr.StorageKind())
	store.AssertNumberOfCalls(t, "Insert", 1)
}

func TestSubmit_NewsletterNewSubscriber(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	byEmail := storage.Predicate{Column: "email", Value: "news@acme.com"}
	store.On("FindOne", mock.Anything, storage.TableNewsletterSubscribers, byEmail).Return(nil, false, nil).Once()
	store.On("Insert", mock.Anything, storage.TableNewsletterSubscribers, mock.MatchedBy(func(rec storage.Record) bool {
		return rec["status"] == "active" && rec["subscribed_at"] == fixedTimestamp && rec["name"] == nil
	})).Return(persisted("sub-1"), nil).Once()

	out, err := p.Submit(context.Background(), &domain.NewsletterRequest{Email: " News@Acme.com "})
	require.NoError(t, err)

	assert.Equal(t, StatusSubscribed, out.Status)
	assert.Equal(t, "sub-1", out.ID)
	assert.Equal(t, MessageSubscribed, out.Message)
	store.AssertExpectations(t)
}

func TestSubmit_NewsletterAlreadyActive(t *testing.T) {
	store := new(MockStore)
	p, metrics := newPipeline(store)

	store.On("FindOne", mock.Anything, storage.TableNewsletterSubscribers, mock.Anything).
		Return(storage.Record{"id": "sub-1", "status": "active"}, true, nil).Twice()

	for i := 0; i < 2; i++ {
		out, err := p.Submit(context.Background(), &domain.NewsletterRequest{Email: "news@acme.com"})
		require.NoError(t, err)
		assert.Equal(t, StatusAlreadySubscribed, out.Status)
		assert.Equal(t, MessageAlreadySubscribed, out.Message)
	}

	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{"newsletter:already_subscribed", "newsletter:already_subscribed"}, metrics.submissions)
}

func TestSubmit_NewsletterReactivation(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	store.On("FindOne", mock.Anything, storage.TableNewsletterSubscribers, mock.Anything).
		Return(storage.Record{"id": "sub-9", "status": "unsubscribed", "unsubscribed_at": "2024-01-01T00:00:00.000Z"}, true, nil).Once()
	store.On("Update", mock.Anything, storage.TableNewsletterSubscribers, "sub-9", storage.Record{
		"status":          "active",
		"subscribed_at":   fixedTimestamp,
		"unsubscribed_at": nil,
	}).Return(nil).Once()

	out, err := p.Submit(context.Background(), &domain.NewsletterRequest{Email: "news@acme.com"})
	require.NoError(t, err)

	assert.Equal(t, StatusReactivated, out.Status)
	assert.Equal(t, "sub-9", out.ID)
	assert.Equal(t, MessageReactivated, out.Message)
	assert.Nil(t, out.Record["unsubscribed_at"])
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSubmit_NewsletterReactivationNumericID(t *testing.T) {
	var patchQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `[{"id":42,"email":"news@acme.com","status":"unsubscribed"}]`)
		case http.MethodPatch:
			patchQuery = r.URL.RawQuery
			_, _ = io.WriteString(w, `[{"id":42,"status":"active"}]`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer ts.Close()

	store, err := postgrest.New(ts.URL, "service-key", ts.Client())
	require.NoError(t, err)
	p, _ := newPipeline(store)

	out, err := p.Submit(context.Background(), &domain.NewsletterRequest{Email: "news@acme.com"})
	require.NoError(t, err)

	assert.Equal(t, StatusReactivated, out.Status)
	assert.Equal(t, "42", out.ID)
	assert.Equal(t, "id=eq.42", patchQuery)
}

func TestSubmit_NewsletterReactivationMatchedNoRow(t *testing.T) {
	store := new(MockStore)
	p, rec := newPipeline(store)

	store.On("FindOne", mock.Anything, storage.TableNewsletterSubscribers, mock.Anything).
		Return(storage.Record{"id": "sub-9", "status": "unsubscribed"}, true, nil).Once()
	store.On("Update", mock.Anything, storage.TableNewsletterSubscribers, "sub-9", mock.Anything).
		Return(storage.NewError(storage.KindTransportFailure, "update", storage.TableNewsletterSubscribers, storage.ErrNoRows)).Once()

	out, err := p.Submit(context.Background(), &domain.NewsletterRequest{Email: "news@acme.com"})
	assert.Nil(t, out)

	var sErr *Error
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "NEWSLETTER_SUBSCRIPTION_FAILED", sErr.Code())
	assert.ErrorIs(t, err, storage.ErrNoRows)
	assert.Equal(t, []string{"newsletter:failed"}, rec.submissions)
}

func TestSubmit_NewsletterRowWithoutIDIsNotPatched(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	store.On("FindOne", mock.Anything, storage.TableNewsletterSubscribers, mock.Anything).
		Return(storage.Record{"status": "unsubscribed"}, true, nil).Once()

	_, err := p.Submit(context.Background(), &domain.NewsletterRequest{Email: "news@acme.com"})
	require.Error(t, err)
	assert.Equal(t, storage.KindTransportFailure, storage.KindOf(err))
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_NewsletterDuplicateRaceIsAbsorbed(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	store.On("FindOne", mock.Anything, storage.TableNewsletterSubscribers, mock.Anything).Return(nil, false, nil).Once()
	store.On("Insert", mock.Anything, storage.TableNewsletterSubscribers, mock.Anything).
		Return(nil, storage.NewError(storage.KindConstraintViolation, "insert", storage.TableNewsletterSubscribers, errors.New("duplicate key"))).Once()

	out, err := p.Submit(context.Background(), &domain.NewsletterRequest{Email: "news@acme.com"})
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadySubscribed, out.Status)
	store.AssertNumberOfCalls(t, "Insert", 1)
}

func TestSubmit_NewsletterLookupFailure(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	store.On("FindOne", mock.Anything, storage.TableNewsletterSubscribers, mock.Anything).
		Return(nil, false, storage.NewError(storage.KindTimeout, "find_one", storage.TableNewsletterSubscribers, context.DeadlineExceeded)).Once()

	_, err := p.Submit(context.Background(), &domain.NewsletterRequest{Email: "news@acme.com"})

	var sErr *Error
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "NEWSLETTER_SUBSCRIPTION_FAILED", sErr.Code())
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_DiagnosticAcmeScenario(t *testing.T) {
	store := new(MockStore)
	p, metrics := newPipeline(store)

	var saved storage.Record
	store.On("Insert", mock.Anything, storage.TableDiagnosticos, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).(storage.Record) }).
		Return(persisted("diag-1"), nil).Once()

	req, err := domain.Decode(domain.KindDiagnostic, strings.NewReader(
		`{"company_name":"Acme","responses":{"q1":"Sim","q2":"Não","q3":"Parcial"}}`))
	require.NoError(t, err)

	out, err := p.Submit(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, out.Score)
	assert.Equal(t, 9, out.Score.TotalScore)
	assert.Equal(t, scoring.LevelInicial, out.Score.MaturityLevel)
	assert.Equal(t, scoring.RecommendationsFor(scoring.LevelInicial), out.Score.Recommendations)
	assert.Equal(t, MessageDiagnostic, out.Message)
	assert.Equal(t, "diag-1", out.ID)

	assert.Equal(t, 9, saved["score"])
	assert.Equal(t, "Inicial", saved["maturity_level"])
	assert.Equal(t, map[string]any{"q1": "Sim", "q2": "Não", "q3": "Parcial"}, saved["responses"])
	assert.Nil(t, saved["lead_id"])
	assert.Equal(t, fixedTimestamp, saved["completed_at"])

	require.Len(t, metrics.scores, 1)
	assert.Equal(t, 9, metrics.scores[0].TotalScore)
}

func TestSubmit_DiagnosticUnknownLabelsScoreZero(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)
	store.On("Insert", mock.Anything, storage.TableDiagnosticos, mock.Anything).Return(persisted("diag-2"), nil).Once()

	out, err := p.Submit(context.Background(), &domain.DiagnosticRequest{
		CompanyName: "Acme",
		Responses:   domain.NewResponses(map[string]any{"q1": "Talvez", "q2": "Sim"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, out.Score.TotalScore)
	assert.Equal(t, []string{"q1"}, out.Score.Unrecognized)
}

func TestSubmit_ConsultationWritesLeadThenBooking(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	leadCall := store.On("Insert", mock.Anything, storage.TableLGPDLeads, mock.MatchedBy(func(rec storage.Record) bool {
		return rec["tipo_interesse"] == "consulta_gratuita" &&
			rec["origem"] == "implementacao_lgpd_consultation" &&
			rec["ip_address"] == "203.0.113.7" &&
			rec["user_agent"] == "Mozilla/5.0"
	})).Return(persisted("lgpd-lead-1"), nil).Once()

	store.On("Insert", mock.Anything, storage.TableLGPDConsultations, mock.MatchedBy(func(rec storage.Record) bool {
		return rec["lead_id"] == "lgpd-lead-1" && rec["status"] == "agendada" && rec["urgencia"] == "normal"
	})).Return(&storage.PersistedRecord{ID: "cons-1", Fields: storage.Record{"id": "cons-1", "created_at": fixedTimestamp}}, nil).Once().NotBefore(leadCall)

	out, err := p.Submit(context.Background(), &domain.ConsultationRequest{
		Nome:          "João",
		Email:         "joao@empresa.com",
		DataPreferida: "2025-03-10",
		HoraPreferida: "14:00",
		Client:        domain.ClientInfo{IPAddress: "203.0.113.7", UserAgent: "Mozilla/5.0"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cons-1", out.ID)
	assert.Equal(t, MessageConsultation, out.Message)
	assert.Equal(t, fixedTimestamp, out.Record["created_at"])
	store.AssertExpectations(t)
}

func TestSubmit_ConsultationBookingFailure(t *testing.T) {
	store := new(MockStore)
	p, _ := newPipeline(store)

	store.On("Insert", mock.Anything, storage.TableLGPDLeads, mock.Anything).Return(persisted("lgpd-lead-1"), nil).Once()
	store.On("Insert", mock.Anything, storage.TableLGPDConsultations, mock.Anything).
		Return(nil, storage.NewError(storage.KindTransportFailure, "insert", storage.TableLGPDConsultations, errors.New("boom"))).Once()

	_, err := p.Submit(context.Background(), &domain.ConsultationRequest{Nome: "João", Email: "joao@empresa.com"})

	var sErr *Error
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "CONSULTATION_BOOKING_FAILED", sErr.Code())
	assert.Equal(t, "Erro ao agendar consulta", sErr.Message)
	store.AssertNumberOfCalls(t, "Insert", 2)
}

func TestSubmit_PublishesEvents(t *testing.T) {
	store := new(MockStore)
	pub := new(MockPublisher)
	p := New(Deps{Store: store, Events: pub})

	store.On("Insert", mock.Anything, storage.TableDiagnosticos, mock.Anything).Return(persisted("diag-1"), nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Kind == domain.KindDiagnostic &&
			e.RecordID == "diag-1" &&
			e.Status == "success" &&
			e.Score != nil && *e.Score == 6 &&
			e.MaturityLevel == "Inicial" &&
			e.UTMSource == "newsletter"
	})).Return(nil).Once()

	_, err := p.Submit(context.Background(), &domain.DiagnosticRequest{
		CompanyName: "Acme",
		Responses:   domain.NewResponses(map[string]any{"q1": "Sim"}),
		UTM:         domain.UTM{Source: "newsletter"},
	})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestSubmit_PublishFailureDoesNotFailSubmission(t *testing.T) {
	store := new(MockStore)
	pub := new(MockPublisher)
	p := New(Deps{Store: store, Events: pub})

	store.On("Insert", mock.Anything, storage.TableLeads, mock.Anything).Return(persisted("lead-1"), nil).Once()
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	out, err := p.Submit(context.Background(), &domain.LeadRequest{Name: "Ana", Email: "a@b.co", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "lead-1", out.ID)
}
