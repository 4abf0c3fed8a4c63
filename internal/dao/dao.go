// Package dao holds the generic row representation exchanged between typed
// records and query results, and the mapping contract records implement.
package dao

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/koba/db-dao/internal/value"
)

// MissingFieldError is returned when a record expects a column the row does not carry.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q in row", e.Field)
}

// FieldError wraps a conversion failure for a single column.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Dao is an ordered mapping from column name to value.
type Dao struct {
	keys   []string
	values map[string]value.Value
}

// New creates an empty Dao.
func New() *Dao {
	return &Dao{values: make(map[string]value.Value)}
}

// Insert sets name to v. Re-inserting an existing name replaces the value
// and keeps its original position.
func (d *Dao) Insert(name string, v value.Value) {
	if v == nil {
		v = value.Nil{}
	}
	if _, exists := d.values[name]; !exists {
		d.keys = append(d.keys, name)
	}
	d.values[name] = v
}

// Value returns the raw value stored under name.
func (d *Dao) Value(name string) (value.Value, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Remove takes the value out of the Dao.
func (d *Dao) Remove(name string) (value.Value, bool) {
	v, ok := d.values[name]
	if !ok {
		return nil, false
	}
	delete(d.values, name)
	for i, key := range d.keys {
		if key == name {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return v, true
}

// Keys returns the column names in insertion order.
func (d *Dao) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

func (d *Dao) Len() int { return len(d.keys) }

// Get converts the value stored under name into T. A missing column yields a
// *MissingFieldError.
func Get[T any](d *Dao, name string) (T, error) {
	var out T
	v, ok := d.values[name]
	if !ok {
		return out, &MissingFieldError{Field: name}
	}
	if err := value.Assign(&out, v); err != nil {
		return out, &FieldError{Field: name, Err: err}
	}
	return out, nil
}

// GetOpt is Get for nullable columns: a Nil value or an absent column yield nil.
func GetOpt[T any](d *Dao, name string) (*T, error) {
	v, ok := d.values[name]
	if !ok || value.IsNil(v) {
		return nil, nil
	}
	var out T
	if err := value.Assign(&out, v); err != nil {
		return nil, &FieldError{Field: name, Err: err}
	}
	return &out, nil
}

// MarshalJSON renders the row as a JSON object keeping column order.
func (d *Dao) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(value.Native(d.values[key]))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
