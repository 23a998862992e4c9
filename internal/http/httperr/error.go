package httperr

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"lgpd-site-api/internal/observability/logger"

	"go.uber.org/zap"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	ErrorID string            `json:"error_id,omitempty"`
}

// Error codes shared by every route. Submission failures use the
// per-kind codes from domain.Kind.ErrorCode.
const (
	ErrCodeValidationError  = "VALIDATION_ERROR"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

const internalErrorMessage = "Erro interno do servidor"

var exposeErrorID atomic.Bool

// SetExposeErrorID controls whether 500 responses carry the request ID as
// error_id. Enabled only in dev.
func SetExposeErrorID(expose bool) {
	exposeErrorID.Store(expose)
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	log := logger.GetLogger(ctx)

	log.Error(ctx, "request failed",
		logger.Module("http"),
		logger.Action("write_error"),
		zap.Int("status_code", status),
		zap.String("error_code", code),
		zap.String("error_message", message),
	)

	write(w, status, &ErrorDetail{Code: code, Message: message})
}

// WriteErrorWithFields writes a standardized error response with field-level details
func WriteErrorWithFields(w http.ResponseWriter, ctx context.Context, status int, code, message string, fields map[string]string) {
	log := logger.GetLogger(ctx)

	fieldPairs := make([]zap.Field, 0, len(fields)+5)
	fieldPairs = append(fieldPairs,
		logger.Module("http"),
		logger.Action("write_error"),
		zap.Int("status_code", status),
		zap.String("error_code", code),
		zap.String("error_message", message),
	)
	for k, v := range fields {
		fieldPairs = append(fieldPairs, zap.String("field_"+k, v))
	}

	log.Warn(ctx, "request failed with field errors", fieldPairs...)

	write(w, status, &ErrorDetail{Code: code, Message: message, Fields: fields})
}

// BadRequest400WithFields writes a 400 Bad Request response with field-level errors
func BadRequest400WithFields(w http.ResponseWriter, ctx context.Context, code, message string, fields map[string]string) {
	WriteErrorWithFields(w, ctx, http.StatusBadRequest, code, message, fields)
}

// Unauthorized401 writes a 401 Unauthorized response
func Unauthorized401(w http.ResponseWriter, ctx context.Context, message string) {
	WriteError(w, ctx, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NotFound404 writes a 404 Not Found response
func NotFound404(w http.ResponseWriter, ctx context.Context) {
	WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Rota não encontrada")
}

// MethodNotAllowed405 writes a 405 Method Not Allowed response
func MethodNotAllowed405(w http.ResponseWriter, ctx context.Context) {
	WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Método não permitido")
}

// TooManyRequests429 writes a 429 Too Many Requests response
func TooManyRequests429(w http.ResponseWriter, ctx context.Context) {
	WriteError(w, ctx, http.StatusTooManyRequests, ErrCodeRateLimited, "Muitas requisições. Tente novamente em instantes.")
}

// InternalError500 writes a 500 response carrying code and a user-facing
// message. The request ID is exposed as error_id when enabled.
func InternalError500(w http.ResponseWriter, ctx context.Context, code, message string) {
	reqID := logger.GetRequestIDFromContext(ctx)

	log := logger.GetLogger(ctx)
	log.Error(ctx, "internal server error",
		logger.Module("http"),
		logger.Action("write_error"),
		zap.String("error_code", code),
		zap.String("error_message", message),
	)

	detail := &ErrorDetail{Code: code, Message: message}
	if exposeErrorID.Load() {
		detail.ErrorID = reqID
	}

	write(w, http.StatusInternalServerError, detail)
}

// InternalError writes the generic INTERNAL_ERROR response
func InternalError(w http.ResponseWriter, ctx context.Context) {
	InternalError500(w, ctx, ErrCodeInternalError, internalErrorMessage)
}

func write(w http.ResponseWriter, status int, detail *ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: detail})
}
