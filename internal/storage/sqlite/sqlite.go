// Package sqlite implements storage.Store on an embedded SQLite database.
// Used for local development and for tests that need a real backend.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"lgpd-site-api/internal/storage"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

// jsonColumns guardam objetos serializados em TEXT.
var jsonColumns = map[string]bool{
	"responses":       true,
	"recommendations": true,
}

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite serializa escritas; :memory: precisa de uma única conexão
	// para que todas enxerguem o mesmo banco.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := checkTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// checkTables confirms the schema created every table the pipeline writes to.
func checkTables(ctx context.Context, db *sql.DB) error {
	for _, table := range storage.Tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", string(table)).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("schema is missing table %s", table)
		}
		if err != nil {
			return fmt.Errorf("inspect schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Insert(ctx context.Context, table storage.Table, rec storage.Record) (*storage.PersistedRecord, error) {
	const op = "insert"

	row := rec.Clone()
	if row.ID() == "" {
		row["id"] = uuid.NewString()
	}
	if err := storage.CheckIdentifiers(table, row); err != nil {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, err)
	}

	columns := sortedColumns(row)
	args := make([]any, len(columns))
	for i, column := range columns {
		v, err := encodeValue(row[column])
		if err != nil {
			return nil, storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("column %s: %w", column, err))
		}
		args[i] = v
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(columns, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, table, err)
	}
	defer rows.Close()

	fields, found, err := scanFirst(rows)
	if err != nil {
		return nil, classify(op, table, err)
	}
	if !found {
		return nil, storage.NewError(storage.KindTransportFailure, op, table, errors.New("insert returned no row"))
	}

	return &storage.PersistedRecord{ID: fields.ID(), Fields: fields}, nil
}

func (s *Store) FindOne(ctx context.Context, table storage.Table, p storage.Predicate) (storage.Record, bool, error) {
	const op = "find_one"
	if !storage.ValidIdentifier(string(table)) || !storage.ValidIdentifier(p.Column) {
		return nil, false, storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("invalid identifier in %s.%s", table, p.Column))
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1", table, p.Column)
	rows, err := s.db.QueryContext(ctx, query, p.Value)
	if err != nil {
		return nil, false, classify(op, table, err)
	}
	defer rows.Close()

	rec, found, err := scanFirst(rows)
	if err != nil {
		return nil, false, classify(op, table, err)
	}
	return rec, found, nil
}

func (s *Store) Update(ctx context.Context, table storage.Table, id string, patch storage.Record) error {
	const op = "update"
	if err := storage.CheckIdentifiers(table, patch); err != nil {
		return storage.NewError(storage.KindTransportFailure, op, table, err)
	}
	if len(patch) == 0 {
		return storage.NewError(storage.KindTransportFailure, op, table, errors.New("empty patch"))
	}

	columns := sortedColumns(patch)
	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, column := range columns {
		sets[i] = column + " = ?"
		v, err := encodeValue(patch[column])
		if err != nil {
			return storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("column %s: %w", column, err))
		}
		args = append(args, v)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, table, err)
	}
	if n == 0 {
		return storage.NewError(storage.KindTransportFailure, op, table, fmt.Errorf("id %q: %w", id, storage.ErrNoRows))
	}
	return nil
}

func scanFirst(rows *sql.Rows) (storage.Record, bool, error) {
	if !rows.Next() {
		return nil, false, rows.Err()
	}

	columns, err := rows.Columns()
	if err != nil {
		return nil, false, err
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, false, err
	}

	rec := make(storage.Record, len(columns))
	for i, column := range columns {
		rec[column] = decodeValue(column, values[i])
	}
	return rec, true, rows.Err()
}

func encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case time.Time:
		return storage.Timestamp(val), nil
	case map[string]any, []any, []string, storage.Record, json.Marshaler:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return v, nil
	}
}

func decodeValue(column string, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if s, ok := v.(string); ok && jsonColumns[column] {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return decoded
		}
	}
	return v
}

func classify(op string, table storage.Table, err error) error {
	if isUniqueViolation(err) {
		return storage.NewError(storage.KindConstraintViolation, op, table, err)
	}
	return storage.Wrap(op, table, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	stmts := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func sortedColumns(rec storage.Record) []string {
	columns := make([]string, 0, len(rec))
	for column := range rec {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
