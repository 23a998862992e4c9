// Package events publica eventos de submissão para consumidores
// downstream (CRM, automação de marketing).
package events

import (
	"context"
	"time"

	"lgpd-site-api/internal/domain"
)

const (
	EventSubmissionRecorded = "submission.recorded"
)

// Event is the payload written to the topic. It carries no personal data.
type Event struct {
	EventName     string      `json:"event_name"`
	Kind          domain.Kind `json:"kind"`
	RecordID      string      `json:"record_id"`
	Status        string      `json:"status"`
	MaturityLevel string      `json:"maturity_level,omitempty"`
	Score         *int        `json:"score,omitempty"`
	UTMSource     string      `json:"utm_source,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// Publisher delivers events. Publish must not block on broker round trips.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
