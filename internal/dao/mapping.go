package dao

import (
	"errors"
	"fmt"

	"github.com/koba/db-dao/internal/schema"
	"github.com/koba/db-dao/internal/value"
)

// FieldDef binds a column name to one field of T.
type FieldDef[T any] struct {
	name string
	get  func(*T) value.Value
	set  func(*T, value.Value) error
	err  error
}

// Field registers the field that ptr points into under the column name.
// The field type must be one value.Assign understands; anything else makes
// NewMapping fail.
func Field[T, F any](name string, ptr func(*T) *F) FieldDef[T] {
	var probe F
	if err := supported(&probe, probe); err != nil {
		return FieldDef[T]{name: name, err: fmt.Errorf("field %q: %w", name, err)}
	}
	return FieldDef[T]{
		name: name,
		get: getter(name, ptr),
		set: func(rec *T, v value.Value) error {
			return value.Assign(ptr(rec), v)
		},
	}
}

// getter reads the field as a Value. Field has already checked that F
// converts, so a failure here is a broken mapping and panics.
func getter[T, F any](name string, ptr func(*T) *F) func(*T) value.Value {
	return func(rec *T) value.Value {
		v, err := value.From(*ptr(rec))
		if err != nil {
			panic(fmt.Sprintf("dao: field %q: %v", name, err))
		}
		return v
	}
}

func supported(dst, zero any) error {
	if err := value.Assign(dst, value.Nil{}); errors.Is(err, value.ErrUnsupported) {
		return err
	}
	if _, err := value.From(zero); err != nil {
		return err
	}
	return nil
}

// Mapping is the descriptor a record type registers to take part in query
// building and result mapping: its table, its ordered columns, and the
// conversions to and from a Dao.
type Mapping[T any] struct {
	table  schema.TableName
	fields []FieldDef[T]
}

// NewMapping builds the mapping of T onto table. Table may be empty for
// records that are only ever read from ad-hoc queries.
func NewMapping[T any](table string, fields ...FieldDef[T]) (*Mapping[T], error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.err != nil {
			return nil, f.err
		}
		if seen[f.name] {
			return nil, fmt.Errorf("duplicate field %q", f.name)
		}
		seen[f.name] = true
	}
	return &Mapping[T]{table: schema.ParseTableName(table), fields: fields}, nil
}

// MustMapping is like NewMapping but panics on error. It is meant for
// package-level mapping declarations.
func MustMapping[T any](table string, fields ...FieldDef[T]) *Mapping[T] {
	m, err := NewMapping(table, fields...)
	if err != nil {
		panic(fmt.Sprintf("dao: mapping %s: %v", table, err))
	}
	return m
}

func (m *Mapping[T]) TableName() schema.TableName {
	return m.table
}

func (m *Mapping[T]) ColumnNames() []schema.ColumnName {
	columns := make([]schema.ColumnName, len(m.fields))
	for i, f := range m.fields {
		columns[i] = schema.ColumnName{Name: f.name}
	}
	return columns
}

// ToDao converts rec into a Dao with one entry per registered field.
func (m *Mapping[T]) ToDao(rec *T) *Dao {
	d := New()
	for _, f := range m.fields {
		d.Insert(f.name, f.get(rec))
	}
	return d
}

// FromDao constructs a T by looking up every registered field in d.
func (m *Mapping[T]) FromDao(d *Dao) (T, error) {
	var rec T
	for _, f := range m.fields {
		v, ok := d.Value(f.name)
		if !ok {
			return rec, &MissingFieldError{Field: f.name}
		}
		if err := f.set(&rec, v); err != nil {
			return rec, &FieldError{Field: f.name, Err: err}
		}
	}
	return rec, nil
}
