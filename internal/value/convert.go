package value

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

func convErr(v Value, to string) error {
	return &ConversionError{From: TypeName(v), To: to}
}

// AsBool accepts Bool and the integer variants MySQL uses for tinyint(1).
func AsBool(v Value) (bool, error) {
	switch x := v.(type) {
	case Bool:
		return bool(x), nil
	case Tinyint, Smallint, Int, Bigint:
		n, _ := AsInt64(x)
		return n != 0, nil
	}
	return false, convErr(v, "bool")
}

// AsInt64 accepts any integer variant.
func AsInt64(v Value) (int64, error) {
	switch x := v.(type) {
	case Tinyint:
		return int64(x), nil
	case Smallint:
		return int64(x), nil
	case Int:
		return int64(x), nil
	case Bigint:
		return int64(x), nil
	}
	return 0, convErr(v, "int64")
}

func asSigned(v Value, bits int, to string) (int64, error) {
	n, err := AsInt64(v)
	if err != nil {
		return 0, convErr(v, to)
	}
	if bits < 64 {
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if n < lo || n > hi {
			return 0, fmt.Errorf("value %d overflows %s", n, to)
		}
	}
	return n, nil
}

func AsInt8(v Value) (int8, error) {
	n, err := asSigned(v, 8, "int8")
	return int8(n), err
}

func AsInt16(v Value) (int16, error) {
	n, err := asSigned(v, 16, "int16")
	return int16(n), err
}

func AsInt32(v Value) (int32, error) {
	n, err := asSigned(v, 32, "int32")
	return int32(n), err
}

func AsInt(v Value) (int, error) {
	n, err := asSigned(v, strconv.IntSize, "int")
	return int(n), err
}

// AsFloat64 accepts the floating variants and widens integers.
func AsFloat64(v Value) (float64, error) {
	switch x := v.(type) {
	case Float:
		return float64(x), nil
	case Double:
		return float64(x), nil
	case Tinyint, Smallint, Int, Bigint:
		n, _ := AsInt64(x)
		return float64(n), nil
	}
	return 0, convErr(v, "float64")
}

func AsFloat32(v Value) (float32, error) {
	if f, ok := v.(Float); ok {
		return float32(f), nil
	}
	f, err := AsFloat64(v)
	if err != nil {
		return 0, convErr(v, "float32")
	}
	if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %g overflows float32", f)
	}
	return float32(f), nil
}

// AsString accepts Text, Char and Uuid.
func AsString(v Value) (string, error) {
	switch x := v.(type) {
	case Text:
		return string(x), nil
	case Char:
		return string(rune(x)), nil
	case Uuid:
		return uuid.UUID(x).String(), nil
	}
	return "", convErr(v, "string")
}

func AsBytes(v Value) ([]byte, error) {
	switch x := v.(type) {
	case Blob:
		return []byte(x), nil
	case Text:
		return []byte(x), nil
	}
	return nil, convErr(v, "[]byte")
}

// AsChar accepts Char and single-character Text, which is how most drivers
// hand back char(1) columns.
func AsChar(v Value) (Char, error) {
	switch x := v.(type) {
	case Char:
		return x, nil
	case Text:
		if utf8.RuneCountInString(string(x)) == 1 {
			r, _ := utf8.DecodeRuneInString(string(x))
			return Char(r), nil
		}
	}
	return 0, convErr(v, "char")
}

func AsUUID(v Value) (uuid.UUID, error) {
	switch x := v.(type) {
	case Uuid:
		return uuid.UUID(x), nil
	case Text:
		id, err := uuid.Parse(string(x))
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to parse uuid %q: %w", string(x), err)
		}
		return id, nil
	case Blob:
		id, err := uuid.FromBytes(x)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to parse uuid bytes: %w", err)
		}
		return id, nil
	}
	return uuid.Nil, convErr(v, "uuid")
}

func AsDate(v Value) (civil.Date, error) {
	switch x := v.(type) {
	case Date:
		return civil.Date(x), nil
	case Timestamp:
		return civil.DateOf(time.Time(x)), nil
	}
	return civil.Date{}, convErr(v, "date")
}

func AsTime(v Value) (time.Time, error) {
	switch x := v.(type) {
	case Timestamp:
		return time.Time(x), nil
	case Date:
		return civil.Date(x).In(time.UTC), nil
	}
	return time.Time{}, convErr(v, "time")
}

func asSlice[T any](v Value, to string, conv func(Value) (T, error)) ([]T, error) {
	arr, ok := v.(Array)
	if !ok {
		return nil, convErr(v, to)
	}
	out := make([]T, len(arr))
	for i, item := range arr {
		x, err := conv(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}

func AsStrings(v Value) ([]string, error)   { return asSlice(v, "[]string", AsString) }
func AsInt16s(v Value) ([]int16, error)     { return asSlice(v, "[]int16", AsInt16) }
func AsInt32s(v Value) ([]int32, error)     { return asSlice(v, "[]int32", AsInt32) }
func AsInt64s(v Value) ([]int64, error)     { return asSlice(v, "[]int64", AsInt64) }
func AsFloat32s(v Value) ([]float32, error) { return asSlice(v, "[]float32", AsFloat32) }
func AsFloat64s(v Value) ([]float64, error) { return asSlice(v, "[]float64", AsFloat64) }

// Assign stores v into the variable dst points to. Pointer-to-pointer
// destinations receive nil for Nil; nil-able slices receive nil as well.
// Any other destination type fails with ErrUnsupported.
func Assign(dst any, v Value) error {
	switch d := dst.(type) {
	case *Value:
		*d = v
		return nil
	case *bool:
		return set(d, v, AsBool)
	case **bool:
		return setOpt(d, v, AsBool)
	case *int8:
		return set(d, v, AsInt8)
	case **int8:
		return setOpt(d, v, AsInt8)
	case *int16:
		return set(d, v, AsInt16)
	case **int16:
		return setOpt(d, v, AsInt16)
	case *int32:
		return set(d, v, AsInt32)
	case **int32:
		return setOpt(d, v, AsInt32)
	case *int64:
		return set(d, v, AsInt64)
	case **int64:
		return setOpt(d, v, AsInt64)
	case *int:
		return set(d, v, AsInt)
	case **int:
		return setOpt(d, v, AsInt)
	case *float32:
		return set(d, v, AsFloat32)
	case **float32:
		return setOpt(d, v, AsFloat32)
	case *float64:
		return set(d, v, AsFloat64)
	case **float64:
		return setOpt(d, v, AsFloat64)
	case *string:
		return set(d, v, AsString)
	case **string:
		return setOpt(d, v, AsString)
	case *Char:
		return set(d, v, AsChar)
	case **Char:
		return setOpt(d, v, AsChar)
	case *uuid.UUID:
		return set(d, v, AsUUID)
	case **uuid.UUID:
		return setOpt(d, v, AsUUID)
	case *civil.Date:
		return set(d, v, AsDate)
	case **civil.Date:
		return setOpt(d, v, AsDate)
	case *time.Time:
		return set(d, v, AsTime)
	case **time.Time:
		return setOpt(d, v, AsTime)
	case *[]byte:
		return setSlice(d, v, AsBytes)
	case *[]string:
		return setSlice(d, v, AsStrings)
	case *[]int16:
		return setSlice(d, v, AsInt16s)
	case *[]int32:
		return setSlice(d, v, AsInt32s)
	case *[]int64:
		return setSlice(d, v, AsInt64s)
	case *[]float32:
		return setSlice(d, v, AsFloat32s)
	case *[]float64:
		return setSlice(d, v, AsFloat64s)
	case *Bool:
		return set(d, v, wrap(AsBool, func(b bool) Bool { return Bool(b) }))
	case *Tinyint:
		return set(d, v, wrap(AsInt8, func(n int8) Tinyint { return Tinyint(n) }))
	case *Smallint:
		return set(d, v, wrap(AsInt16, func(n int16) Smallint { return Smallint(n) }))
	case *Int:
		return set(d, v, wrap(AsInt32, func(n int32) Int { return Int(n) }))
	case *Bigint:
		return set(d, v, wrap(AsInt64, func(n int64) Bigint { return Bigint(n) }))
	case *Float:
		return set(d, v, wrap(AsFloat32, func(f float32) Float { return Float(f) }))
	case *Double:
		return set(d, v, wrap(AsFloat64, func(f float64) Double { return Double(f) }))
	case *Text:
		return set(d, v, wrap(AsString, func(s string) Text { return Text(s) }))
	case *Blob:
		return set(d, v, wrap(AsBytes, func(b []byte) Blob { return Blob(b) }))
	case *Uuid:
		return set(d, v, wrap(AsUUID, func(id uuid.UUID) Uuid { return Uuid(id) }))
	case *Date:
		return set(d, v, wrap(AsDate, func(dt civil.Date) Date { return Date(dt) }))
	case *Timestamp:
		return set(d, v, wrap(AsTime, func(t time.Time) Timestamp { return Timestamp(t) }))
	case *Array:
		arr, ok := v.(Array)
		if !ok {
			return convErr(v, "Array")
		}
		*d = arr
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupported, dst)
}

// wrap lifts a scalar converter to one of the named variants.
func wrap[S, T any](conv func(Value) (S, error), variant func(S) T) func(Value) (T, error) {
	return func(v Value) (T, error) {
		s, err := conv(v)
		if err != nil {
			var zero T
			return zero, err
		}
		return variant(s), nil
	}
}

func set[T any](d *T, v Value, conv func(Value) (T, error)) error {
	x, err := conv(v)
	if err != nil {
		return err
	}
	*d = x
	return nil
}

func setOpt[T any](d **T, v Value, conv func(Value) (T, error)) error {
	if IsNil(v) {
		*d = nil
		return nil
	}
	x, err := conv(v)
	if err != nil {
		return err
	}
	*d = &x
	return nil
}

func setSlice[T any](d *[]T, v Value, conv func(Value) ([]T, error)) error {
	if IsNil(v) {
		*d = nil
		return nil
	}
	return set(d, v, conv)
}
