// Package value defines the closed set of scalar, array and null values that
// travel between typed records and database rows.
package value

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// ErrUnsupported is returned when a Go type has no Value representation.
var ErrUnsupported = errors.New("unsupported type")

// Value is a single database value. The implementations in this package are
// the only ones; use a type switch over them to inspect a value.
type Value interface {
	isValue()
}

type (
	Nil       struct{}
	Bool      bool
	Tinyint   int8
	Smallint  int16
	Int       int32
	Bigint    int64
	Float     float32
	Double    float64
	Text      string
	Blob      []byte
	Char      rune
	Uuid      uuid.UUID
	Date      civil.Date
	Timestamp time.Time
	Array     []Value
)

func (Nil) isValue()       {}
func (Bool) isValue()      {}
func (Tinyint) isValue()   {}
func (Smallint) isValue()  {}
func (Int) isValue()       {}
func (Bigint) isValue()    {}
func (Float) isValue()     {}
func (Double) isValue()    {}
func (Text) isValue()      {}
func (Blob) isValue()      {}
func (Char) isValue()      {}
func (Uuid) isValue()      {}
func (Date) isValue()      {}
func (Timestamp) isValue() {}
func (Array) isValue()     {}

// ConversionError reports a value that cannot be converted to the requested type.
type ConversionError struct {
	From string
	To   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// IsNil reports whether v represents SQL NULL.
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Nil)
	return ok
}

// TypeName returns the variant name of v, used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Nil:
		return "Nil"
	case Bool:
		return "Bool"
	case Tinyint:
		return "Tinyint"
	case Smallint:
		return "Smallint"
	case Int:
		return "Int"
	case Bigint:
		return "Bigint"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case Text:
		return "Text"
	case Blob:
		return "Blob"
	case Char:
		return "Char"
	case Uuid:
		return "Uuid"
	case Date:
		return "Date"
	case Timestamp:
		return "Timestamp"
	case Array:
		return "Array"
	}
	return fmt.Sprintf("%T", v)
}

// From converts a Go value into a Value. Nil pointers and nil slices become Nil.
func From(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Nil{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int8:
		return Tinyint(v), nil
	case int16:
		return Smallint(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Bigint(v), nil
	case int:
		return Bigint(v), nil
	case float32:
		return Float(v), nil
	case float64:
		return Double(v), nil
	case string:
		return Text(v), nil
	case []byte:
		if v == nil {
			return Nil{}, nil
		}
		return Blob(v), nil
	case uuid.UUID:
		return Uuid(v), nil
	case civil.Date:
		return Date(v), nil
	case time.Time:
		return Timestamp(v), nil
	case []string:
		return arrayOf(v, func(s string) Value { return Text(s) }), nil
	case []int16:
		return arrayOf(v, func(i int16) Value { return Smallint(i) }), nil
	case []int32:
		return arrayOf(v, func(i int32) Value { return Int(i) }), nil
	case []int64:
		return arrayOf(v, func(i int64) Value { return Bigint(i) }), nil
	case []float32:
		return arrayOf(v, func(f float32) Value { return Float(f) }), nil
	case []float64:
		return arrayOf(v, func(f float64) Value { return Double(f) }), nil
	case *bool:
		return fromPtr(v)
	case *int8:
		return fromPtr(v)
	case *int16:
		return fromPtr(v)
	case *int32:
		return fromPtr(v)
	case *int64:
		return fromPtr(v)
	case *int:
		return fromPtr(v)
	case *float32:
		return fromPtr(v)
	case *float64:
		return fromPtr(v)
	case *string:
		return fromPtr(v)
	case *Char:
		return fromPtr(v)
	case *uuid.UUID:
		return fromPtr(v)
	case *civil.Date:
		return fromPtr(v)
	case *time.Time:
		return fromPtr(v)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, x)
}

// MustFrom is like From but panics on unsupported types. Use it for literals.
func MustFrom(x any) Value {
	v, err := From(x)
	if err != nil {
		panic(err)
	}
	return v
}

func fromPtr[T any](p *T) (Value, error) {
	if p == nil {
		return Nil{}, nil
	}
	return From(*p)
}

func arrayOf[T any](items []T, wrap func(T) Value) Value {
	if items == nil {
		return Nil{}
	}
	arr := make(Array, len(items))
	for i, item := range items {
		arr[i] = wrap(item)
	}
	return arr
}

// Native returns the plain Go representation of v, suitable for JSON encoding
// and for handing to database/sql drivers.
func Native(v Value) any {
	switch x := v.(type) {
	case nil, Nil:
		return nil
	case Bool:
		return bool(x)
	case Tinyint:
		return int64(x)
	case Smallint:
		return int64(x)
	case Int:
		return int64(x)
	case Bigint:
		return int64(x)
	case Float:
		return float64(x)
	case Double:
		return float64(x)
	case Text:
		return string(x)
	case Blob:
		return []byte(x)
	case Char:
		return string(rune(x))
	case Uuid:
		return uuid.UUID(x).String()
	case Date:
		return civil.Date(x).String()
	case Timestamp:
		return time.Time(x)
	case Array:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = Native(item)
		}
		return items
	}
	return nil
}
