// Package postgres implements storage.Store directly over pgx, for
// deployments that reach the database without going through PostgREST.
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"lgpd-site-api/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Querier is the subset of *pgxpool.Pool used by Store.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type Store struct {
	db Querier
}

func New(db Querier) *Store {
	return &Store{db: db}
}

var _ storage.Store = (*Store)(nil)

// Insert writes rec and returns the stored row as a record. An id is
// generated when rec has none.
func (s *Store) Insert(ctx context.Context, table storage.Table, rec storage.Record) (*storage.PersistedRecord, error) {
	const op = "insert"

	row := rec.Clone()
	if row.ID() == "" {
		row["id"] = uuid.NewString()
	}

	query, args, err := buildInsert(table, row)
	if err != nil {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, err)
	}

	var raw []byte
	if err := s.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return nil, classify(op, table, err)
	}

	fields, err := decodeRow(raw)
	if err != nil {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, err)
	}

	return &storage.PersistedRecord{ID: fields.ID(), Fields: fields}, nil
}

func (s *Store) FindOne(ctx context.Context, table storage.Table, p storage.Predicate) (storage.Record, bool, error) {
	const op = "find_one"

	query, args, err := buildSelectOne(table, p)
	if err != nil {
		return nil, false, storage.NewError(storage.KindTransportFailure, op, table, err)
	}

	var raw []byte
	err = s.db.QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(op, table, err)
	}

	fields, err := decodeRow(raw)
	if err != nil {
		return nil, false, storage.NewError(storage.KindTransportFailure, op, table, err)
	}
	return fields, true, nil
}

func (s *Store) Update(ctx context.Context, table storage.Table, id string, patch storage.Record) error {
	const op = "update"

	query, args, err := buildUpdate(table, id, patch)
	if err != nil {
		return storage.NewError(storage.KindTransportFailure, op, table, err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return classify(op, table, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("id %q: %w", id, storage.ErrNoRows))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func buildInsert(table storage.Table, rec storage.Record) (string, []any, error) {
	if err := storage.CheckIdentifiers(table, rec); err != nil {
		return "", nil, err
	}
	if len(rec) == 0 {
		return "", nil, errors.New("empty record")
	}

	columns := sortedColumns(rec)
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		v, err := encodeValue(rec[column])
		if err != nil {
			return "", nil, fmt.Errorf("column %s: %w", column, err)
		}
		args[i] = v
	}

	query := fmt.Sprintf(
		"INSERT INTO %s AS t (%s) VALUES (%s) RETURNING to_jsonb(t)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)
	return query, args, nil
}

func buildSelectOne(table storage.Table, p storage.Predicate) (string, []any, error) {
	if !storage.ValidIdentifier(string(table)) {
		return "", nil, fmt.Errorf("invalid table name %q", table)
	}
	if !storage.ValidIdentifier(p.Column) {
		return "", nil, fmt.Errorf("invalid column name %q", p.Column)
	}

	query := fmt.Sprintf("SELECT to_jsonb(t) FROM %s AS t WHERE t.%s = $1 LIMIT 1", table, p.Column)
	return query, []any{p.Value}, nil
}

func buildUpdate(table storage.Table, id string, patch storage.Record) (string, []any, error) {
	if err := storage.CheckIdentifiers(table, patch); err != nil {
		return "", nil, err
	}
	if len(patch) == 0 {
		return "", nil, errors.New("empty patch")
	}

	columns := sortedColumns(patch)
	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, column := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", column, i+1)
		v, err := encodeValue(patch[column])
		if err != nil {
			return "", nil, fmt.Errorf("column %s: %w", column, err)
		}
		args = append(args, v)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args))
	return query, args, nil
}

// encodeValue serializa objetos e listas como JSON para colunas jsonb.
func encodeValue(v any) (any, error) {
	switch v.(type) {
	case time.Time:
		return v, nil
	case map[string]any, []any, []string, storage.Record, json.Marshaler:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return v, nil
	}
}

func decodeRow(raw []byte) (storage.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec storage.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return rec, nil
}

func classify(op string, table storage.Table, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.NewError(storage.KindConstraintViolation, op, table, err)
	}
	return storage.Wrap(op, table, err)
}

func sortedColumns(rec storage.Record) []string {
	columns := make([]string, 0, len(rec))
	for column := range rec {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
