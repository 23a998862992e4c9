// Package postgrest implements storage.Store over the Supabase REST API.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"lgpd-site-api/internal/storage"
)

const (
	restPrefix      = "/rest/v1/"
	uniqueViolation = "23505"
	maxErrorBody    = 4 << 10
)

// Store talks to PostgREST with the service-role key.
type Store struct {
	baseURL string
	key     string
	client  *http.Client
}

// New creates a Store. baseURL is the project URL without the /rest/v1 suffix.
func New(baseURL, serviceRoleKey string, client *http.Client) (*Store, error) {
	if baseURL == "" {
		return nil, errors.New("postgrest: base url is required")
	}
	if serviceRoleKey == "" {
		return nil, errors.New("postgrest: service role key is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     serviceRoleKey,
		client:  client,
	}, nil
}

var _ storage.Store = (*Store)(nil)

// apiError é o corpo de erro devolvido pelo PostgREST.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Insert posts rec and returns the representation of the created row.
func (s *Store) Insert(ctx context.Context, table storage.Table, rec storage.Record) (*storage.PersistedRecord, error) {
	const op = "insert"
	if err := storage.CheckIdentifiers(table, rec); err != nil {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, err)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("encode record: %w", err))
	}

	req, err := s.newRequest(ctx, http.MethodPost, table, nil, body)
	if err != nil {
		return nil, storage.Wrap(op, table, err)
	}
	req.Header.Set("Prefer", "return=representation")

	rows, err := s.do(req, op, table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, errors.New("empty representation"))
	}

	id := rows[0].ID()
	if id == "" {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, errors.New("representation without id"))
	}

	return &storage.PersistedRecord{ID: id, Fields: rows[0]}, nil
}

// FindOne issues GET ?column=eq.value&limit=1.
func (s *Store) FindOne(ctx context.Context, table storage.Table, p storage.Predicate) (storage.Record, bool, error) {
	const op = "find_one"
	if !storage.ValidIdentifier(string(table)) || !storage.ValidIdentifier(p.Column) {
		return nil, false, storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("invalid identifier in %s.%s", table, p.Column))
	}

	query := url.Values{}
	query.Set(p.Column, "eq."+fmt.Sprint(p.Value))
	query.Set("limit", "1")

	req, err := s.newRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return nil, false, storage.Wrap(op, table, err)
	}

	rows, err := s.do(req, op, table)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Update issues PATCH ?id=eq.<id> and asks for the representation, so a
// filter that matched nothing is reported as storage.ErrNoRows.
func (s *Store) Update(ctx context.Context, table storage.Table, id string, patch storage.Record) error {
	const op = "update"
	if err := storage.CheckIdentifiers(table, patch); err != nil {
		return storage.NewError(storage.KindTransportFailure, op, table, err)
	}

	body, err := json.Marshal(patch)
	if err != nil {
		return storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("encode patch: %w", err))
	}

	query := url.Values{}
	query.Set("id", "eq."+id)

	req, err := s.newRequest(ctx, http.MethodPatch, table, query, body)
	if err != nil {
		return storage.Wrap(op, table, err)
	}
	req.Header.Set("Prefer", "return=representation")

	rows, err := s.do(req, op, table)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("id %q: %w", id, storage.ErrNoRows))
	}
	return nil
}

// Ping checks that the REST endpoint answers. Any status below 500 counts as alive.
func (s *Store) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+restPrefix, nil)
	if err != nil {
		return err
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("postgrest: ping status %d", resp.StatusCode)
	}
	return nil
}

func (s *Store) newRequest(ctx context.Context, method string, table storage.Table, query url.Values, body []byte) (*http.Request, error) {
	endpoint := s.baseURL + restPrefix + string(table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	s.authorize(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (s *Store) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("apikey", s.key)
}

func (s *Store) do(req *http.Request, op string, table storage.Table) ([]storage.Record, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, storage.Wrap(op, table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, classifyResponse(resp, op, table)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, storage.Wrap(op, table, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rows []storage.Record
	if err := dec.Decode(&rows); err != nil {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("decode response: %w", err))
	}
	return rows, nil
}

func classifyResponse(resp *http.Response, op string, table storage.Table) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var apiErr apiError
	_ = json.Unmarshal(raw, &apiErr)

	cause := fmt.Errorf("status %d: %s", resp.StatusCode, firstNonEmpty(apiErr.Message, strings.TrimSpace(string(raw))))

	if resp.StatusCode == http.StatusConflict || apiErr.Code == uniqueViolation {
		return storage.NewError(storage.KindConstraintViolation, op, table, cause)
	}
	if resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout {
		return storage.NewError(storage.KindTimeout, op, table, cause)
	}
	return storage.NewError(storage.KindTransportFailure, op, table, cause)
}


func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
