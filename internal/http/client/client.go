package client

import (
	"net/http"
	"time"
)

const maxRedirects = 10

// New returns an http.Client for calls to the storage backend.
// The timeout bounds the whole request; a zero value falls back to 10s.
// Outbound requests carry the X-Request-Id of the inbound request.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = 16

	return &http.Client{
		Transport: NewRequestIDTransport(base),
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
