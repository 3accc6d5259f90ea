// Package store provides a generic CRUD base over a Postgres table,
// parameterized by the entity type and its create/update input types.
// Entity-specific repositories compose a Store rather than inheriting from
// it, and add their own lookups on top.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned by Delete (and mapped by callers) when the
	// target row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownColumn is returned when a lookup or input names a column the
	// mapper does not declare.
	ErrUnknownColumn = errors.New("unknown column")
)

// Scanner is the subset of *sql.Row / *sql.Rows used to scan one record.
type Scanner interface {
	Scan(dest ...any) error
}

// Fields is an ordered set of column/value pairs. Only fields explicitly
// added appear in the generated statement, which is what gives Create and
// Update their partial-input semantics.
type Fields struct {
	names  []string
	values []any
}

// Set appends a column/value pair. Order is preserved.
func (f *Fields) Set(name string, value any) {
	f.names = append(f.names, name)
	f.values = append(f.values, value)
}

// Len returns the number of fields set.
func (f *Fields) Len() int { return len(f.names) }

// Mapper describes how entity T maps onto its table, and how create input C
// and update input U translate to column assignments.
type Mapper[T, C, U any] struct {
	// Table is the table name.
	Table string
	// Columns is the select list; the first column must be the primary key.
	Columns []string
	// ScanRow scans one row in Columns order.
	ScanRow func(row Scanner) (*T, error)
	// InsertFields returns the columns to insert for the given create input.
	InsertFields func(in C) Fields
	// UpdateFields returns the columns to assign for the given update input.
	// Fields absent from the input must not appear, so untouched columns
	// keep their values.
	UpdateFields func(in U) Fields
}

// Store implements Get/GetBy/List/Create/Update/Delete for one table. Every
// operation is a single SQL statement, so each is atomic on its own; the
// database's constraints remain the source of truth under concurrency.
type Store[T, C, U any] struct {
	db     *sql.DB
	mapper Mapper[T, C, U]
	cols   map[string]bool
}

// New returns a Store for the given mapper.
func New[T, C, U any](db *sql.DB, mapper Mapper[T, C, U]) *Store[T, C, U] {
	cols := make(map[string]bool, len(mapper.Columns))
	for _, c := range mapper.Columns {
		cols[c] = true
	}
	return &Store[T, C, U]{db: db, mapper: mapper, cols: cols}
}

func (s *Store[T, C, U]) selectList() string {
	return strings.Join(s.mapper.Columns, ", ")
}

func (s *Store[T, C, U]) pk() string { return s.mapper.Columns[0] }

// Get returns the record with the given primary key, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (s *Store[T, C, U]) Get(ctx context.Context, id int64) (*T, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", s.selectList(), s.mapper.Table, s.pk())
	return s.scanOne(s.db.QueryRowContext(ctx, q, id))
}

// GetBy returns the first record where column equals value, or nil if none.
// column must be one of the mapper's declared columns.
func (s *Store[T, C, U]) GetBy(ctx context.Context, column string, value any) (*T, error) {
	if !s.cols[column] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 LIMIT 1", s.selectList(), s.mapper.Table, column)
	return s.scanOne(s.db.QueryRowContext(ctx, q, value))
}

// List returns up to limit records, skipping the first skip, in stable
// primary-key ascending order.
func (s *Store[T, C, U]) List(ctx context.Context, skip, limit int) ([]*T, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC OFFSET $1 LIMIT $2",
		s.selectList(), s.mapper.Table, s.pk())
	rows, err := s.db.QueryContext(ctx, q, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		rec, err := s.mapper.ScanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Create inserts a record built from in and returns the stored row
// (including defaulted columns such as id and timestamps).
func (s *Store[T, C, U]) Create(ctx context.Context, in C) (*T, error) {
	fields := s.mapper.InsertFields(in)
	if fields.Len() == 0 {
		return nil, errors.New("store: create with no fields")
	}
	if err := s.checkColumns(fields); err != nil {
		return nil, err
	}
	placeholders := make([]string, fields.Len())
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.mapper.Table,
		strings.Join(fields.names, ", "),
		strings.Join(placeholders, ", "),
		s.selectList())
	row := s.db.QueryRowContext(ctx, q, fields.values...)
	rec, err := s.mapper.ScanRow(row)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update assigns only the fields present in in and returns the updated row,
// or nil if the record does not exist. An empty input is a read.
func (s *Store[T, C, U]) Update(ctx context.Context, id int64, in U) (*T, error) {
	fields := s.mapper.UpdateFields(in)
	if fields.Len() == 0 {
		return s.Get(ctx, id)
	}
	if err := s.checkColumns(fields); err != nil {
		return nil, err
	}
	assignments := make([]string, fields.Len())
	for i, name := range fields.names {
		assignments[i] = fmt.Sprintf("%s = $%d", name, i+1)
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		s.mapper.Table,
		strings.Join(assignments, ", "),
		s.pk(), fields.Len()+1,
		s.selectList())
	args := append(append([]any{}, fields.values...), id)
	return s.scanOne(s.db.QueryRowContext(ctx, q, args...))
}

// Delete removes the record with the given primary key. Returns ErrNotFound
// when no row was deleted.
func (s *Store[T, C, U]) Delete(ctx context.Context, id int64) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", s.mapper.Table, s.pk())
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store[T, C, U]) scanOne(row *sql.Row) (*T, error) {
	rec, err := s.mapper.ScanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (s *Store[T, C, U]) checkColumns(fields Fields) error {
	for _, name := range fields.names {
		if !s.cols[name] {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Callers translate it to a domain conflict error; the constraint
// is the real guard against concurrent duplicate writes.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ViolatedConstraint returns the violated constraint name for a unique
// violation, or "" if err is not one.
func ViolatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}
