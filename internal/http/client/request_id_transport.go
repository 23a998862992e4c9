package client

import (
	"net/http"

	"lgpd-site-api/internal/observability/requestid"
)

// RequestIDTransport propagates the request ID stored in the request
// context as an X-Request-Id header.
type RequestIDTransport struct {
	base http.RoundTripper
}

// NewRequestIDTransport wraps base; nil means http.DefaultTransport.
func NewRequestIDTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RequestIDTransport{base: base}
}

// RoundTrip never overwrites an X-Request-Id set by the caller.
func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(requestid.Header) != "" {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()
	reqID := requestid.GetRequestID(ctx)
	if reqID == "" {
		return t.base.RoundTrip(req)
	}

	// RoundTripper não pode mutar o request original
	cloned := req.Clone(ctx)
	cloned.Header.Set(requestid.Header, reqID)

	return t.base.RoundTrip(cloned)
}
