package requestid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

// Header is the HTTP header used to carry the request ID in both directions.
const Header = "X-Request-Id"

// maxInboundLength limita IDs vindos do cliente para não poluir os logs.
const maxInboundLength = 128

type contextKey string

const requestIDContextKey contextKey = "request_id"

// NewRequestID generates a time-ordered request ID.
// Format: req_<unix_ms>_<20 hex chars>
func NewRequestID() string {
	timestamp := time.Now().UnixMilli()

	randomBytes := make([]byte, 10)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("req_%d", timestamp)
	}

	return fmt.Sprintf("req_%d_%s", timestamp, hex.EncodeToString(randomBytes))
}

// FromRequest returns the inbound X-Request-Id when it is usable,
// otherwise a freshly generated one.
func FromRequest(r *http.Request) string {
	id := r.Header.Get(Header)
	if id == "" || len(id) > maxInboundLength {
		return NewRequestID()
	}
	return id
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// SetRequestID stores request ID in context
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}
