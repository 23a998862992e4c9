// Package storage define a porta de persistência usada pelo pipeline de
// submissões. Os adaptadores (PostgREST, Postgres, SQLite) vivem nos
// subpacotes.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Table names in the hosted backend.
type Table string

const (
	TableLeads                 Table = "leads"
	TableContactSubmissions    Table = "contact_submissions"
	TableNewsletterSubscribers Table = "newsletter_subscribers"
	TableDiagnosticos          Table = "diagnosticos"
	TableLGPDLeads             Table = "lgpd_leads"
	TableLGPDConsultations     Table = "lgpd_consultations"
)

// Tables lists every table the service writes to.
var Tables = []Table{
	TableLeads,
	TableContactSubmissions,
	TableNewsletterSubscribers,
	TableDiagnosticos,
	TableLGPDLeads,
	TableLGPDConsultations,
}

// Record is a row keyed by column name. Values are strings, numbers,
// booleans, nil, or JSON-compatible maps and slices.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the value of column as a string, or "" when absent or not a string.
func (r Record) String(column string) string {
	if s, ok := r[column].(string); ok {
		return s
	}
	return ""
}

// ID returns the "id" column as a string. Numeric ids (json.Number from
// PostgREST, int64 from SQL drivers) are formatted in base 10.
func (r Record) ID() string {
	return IDString(r["id"])
}

// IDString formats a backend id value. nil yields "".
func IDString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// PersistedRecord is what the backend returns after an insert.
type PersistedRecord struct {
	ID     string
	Fields Record
}

// Predicate is an equality filter: Column = Value.
type Predicate struct {
	Column string
	Value  any
}

// Store is the persistence port. Implementations must be safe for concurrent use.
type Store interface {
	Insert(ctx context.Context, table Table, rec Record) (*PersistedRecord, error)
	// FindOne returns the first row matching p; found is false when none does.
	FindOne(ctx context.Context, table Table, p Predicate) (rec Record, found bool, err error)
	// Update patches the row with the given id. Used only by newsletter reactivation.
	Update(ctx context.Context, table Table, id string, patch Record) error
}

// Pinger is implemented by stores that can report backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to interpolate as a SQL identifier.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// CheckIdentifiers validates the table and every column in rec.
func CheckIdentifiers(table Table, rec Record) error {
	if !ValidIdentifier(string(table)) {
		return fmt.Errorf("invalid table name %q", table)
	}
	for column := range rec {
		if !ValidIdentifier(column) {
			return fmt.Errorf("invalid column name %q", column)
		}
	}
	return nil
}

// timestampLayout reproduz o formato ISO-8601 com milissegundos usado pelo front.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t as an ISO-8601 UTC string with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
