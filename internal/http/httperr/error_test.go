package httperr

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lgpd-site-api/internal/observability/logger"
	"lgpd-site-api/internal/observability/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log, err := logger.NewWithWriter("test", "info", &buf)
	require.NoError(t, err)
	ctx := logger.SetLoggerInContext(context.Background(), log)
	return requestid.SetRequestID(ctx, "req_1_abc"), &buf
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, context.Context)
		status int
		code   string
	}{
		{"401", func(w http.ResponseWriter, ctx context.Context) { Unauthorized401(w, ctx, "unauthorized") }, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"404", NotFound404, http.StatusNotFound, ErrCodeNotFound},
		{"405", MethodNotAllowed405, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{"429", TooManyRequests429, http.StatusTooManyRequests, ErrCodeRateLimited},
		{"500", InternalError, http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := testContext(t)
			rr := httptest.NewRecorder()
			tt.write(rr, ctx)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			body := decode(t, rr)
			_, hasOK := body["ok"]
			assert.False(t, hasOK, "envelope has no ok field")

			detail, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.code, detail["code"])
			assert.NotEmpty(t, detail["message"])
			_, hasFields := detail["fields"]
			assert.False(t, hasFields)
		})
	}
}

func TestWriteErrorWithFields(t *testing.T) {
	ctx, buf := testContext(t)
	rr := httptest.NewRecorder()

	BadRequest400WithFields(rr, ctx, ErrCodeValidationError, "Email inválido", map[string]string{"email": "invalid_email"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeValidationError, response.Error.Code)
	assert.Equal(t, "Email inválido", response.Error.Message)
	assert.Equal(t, map[string]string{"email": "invalid_email"}, response.Error.Fields)
	assert.Empty(t, response.Error.ErrorID)

	assert.Contains(t, buf.String(), `"field_email":"invalid_email"`)
	assert.Contains(t, buf.String(), `"error_message":"Email inválido"`)
}

func TestInternalError500_ErrorID(t *testing.T) {
	t.Cleanup(func() { SetExposeErrorID(false) })

	ctx, _ := testContext(t)

	rr := httptest.NewRecorder()
	InternalError500(rr, ctx, "LEAD_SUBMISSION_FAILED", "Falha ao salvar lead")

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "LEAD_SUBMISSION_FAILED", response.Error.Code)
	assert.Equal(t, "Falha ao salvar lead", response.Error.Message)
	assert.Empty(t, response.Error.ErrorID, "error_id is hidden outside dev")

	SetExposeErrorID(true)
	rr = httptest.NewRecorder()
	InternalError500(rr, ctx, "LEAD_SUBMISSION_FAILED", "Falha ao salvar lead")

	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, "req_1_abc", response.Error.ErrorID)
}
