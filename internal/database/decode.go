package database

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/koba/db-dao/internal/value"
)

// decodeValue converts what a database/sql driver scanned into a Value.
// typeName is the driver's DatabaseTypeName for the column; together with
// the dialect it decides the width of numbers and how textual payloads
// (uuid, arrays) are read.
func decodeValue(src any, typeName string, dialect Dialect) (value.Value, error) {
	typeName = strings.ToUpper(typeName)
	switch v := src.(type) {
	case nil:
		return value.Nil{}, nil
	case bool:
		return value.Bool(v), nil
	case int64:
		return intOfWidth(v, typeName), nil
	case int32:
		return value.Int(v), nil
	case int16:
		return value.Smallint(v), nil
	case int8:
		return value.Tinyint(v), nil
	case int:
		return value.Bigint(v), nil
	case float32:
		return value.Float(v), nil
	case float64:
		if isSinglePrecision(typeName, dialect) {
			return value.Float(v), nil
		}
		return value.Double(v), nil
	case time.Time:
		if typeName == "DATE" {
			return value.Date(civil.DateOf(v)), nil
		}
		return value.Timestamp(v), nil
	case [16]byte:
		return value.Uuid(v), nil
	case []byte:
		if typeName == "UNIQUEIDENTIFIER" {
			var id mssql.UniqueIdentifier
			if err := id.Scan(v); err != nil {
				return nil, fmt.Errorf("failed to decode uniqueidentifier: %w", err)
			}
			return value.Uuid(id), nil
		}
		if isBinary(typeName) {
			b := make([]byte, len(v))
			copy(b, v)
			return value.Blob(b), nil
		}
		return decodeText(string(v), typeName, dialect)
	case string:
		return decodeText(v, typeName, dialect)
	}
	return nil, &value.ConversionError{From: fmt.Sprintf("%T", src), To: "Value"}
}

// intOfWidth narrows n to the variant the column type names. Values that do
// not fit (SQLite INTEGER is always 64-bit) stay Bigint.
func intOfWidth(n int64, typeName string) value.Value {
	switch typeName {
	case "TINYINT":
		if n >= math.MinInt8 && n <= math.MaxInt8 {
			return value.Tinyint(n)
		}
	case "INT2", "SMALLINT", "YEAR":
		if n >= math.MinInt16 && n <= math.MaxInt16 {
			return value.Smallint(n)
		}
	case "INT4", "INT", "INTEGER", "MEDIUMINT", "OID":
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return value.Int(n)
		}
	}
	return value.Bigint(n)
}

// isSinglePrecision reports 4-byte float columns. SQLite REAL and SQL
// Server FLOAT are 8 bytes wide.
func isSinglePrecision(typeName string, dialect Dialect) bool {
	switch dialect {
	case DialectPostgres:
		return typeName == "FLOAT4"
	case DialectMySQL:
		return typeName == "FLOAT"
	}
	return false
}

func isBinary(typeName string) bool {
	switch typeName {
	case "BYTEA", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "IMAGE":
		return true
	}
	return false
}

func decodeText(s, typeName string, dialect Dialect) (value.Value, error) {
	switch typeName {
	case "UUID", "UNIQUEIDENTIFIER":
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("failed to decode uuid %q: %w", s, err)
		}
		return value.Uuid(id), nil
	case "BOOL", "BOOLEAN":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("failed to decode bool %q: %w", s, err)
		}
		return value.Bool(b), nil
	case "TINYINT", "INT2", "SMALLINT", "YEAR", "INT4", "INT", "INTEGER", "MEDIUMINT", "OID", "INT8", "BIGINT":
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode integer %q: %w", s, err)
		}
		return intOfWidth(n, typeName), nil
	case "FLOAT4", "FLOAT", "REAL", "FLOAT8", "DOUBLE", "NUMERIC", "DECIMAL":
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode number %q: %w", s, err)
		}
		if isSinglePrecision(typeName, dialect) {
			return value.Float(f), nil
		}
		return value.Double(f), nil
	case "DATE":
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("failed to decode date %q: %w", s, err)
		}
		return value.Date(d), nil
	case "_INT2", "_INT4", "_INT8":
		var arr pq.Int64Array
		if err := arr.Scan([]byte(s)); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", typeName, err)
		}
		elemType := strings.TrimPrefix(typeName, "_")
		out := make(value.Array, len(arr))
		for i, n := range arr {
			out[i] = intOfWidth(n, elemType)
		}
		return out, nil
	case "_FLOAT4", "_FLOAT8", "_NUMERIC":
		var arr pq.Float64Array
		if err := arr.Scan([]byte(s)); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", typeName, err)
		}
		out := make(value.Array, len(arr))
		for i, f := range arr {
			if typeName == "_FLOAT4" {
				out[i] = value.Float(f)
			} else {
				out[i] = value.Double(f)
			}
		}
		return out, nil
	case "_BOOL":
		var arr pq.BoolArray
		if err := arr.Scan([]byte(s)); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", typeName, err)
		}
		out := make(value.Array, len(arr))
		for i, b := range arr {
			out[i] = value.Bool(b)
		}
		return out, nil
	case "_TEXT", "_VARCHAR", "_BPCHAR", "_NAME", "_CHAR", "_UUID":
		var arr pq.StringArray
		if err := arr.Scan([]byte(s)); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", typeName, err)
		}
		out := make(value.Array, len(arr))
		for i, item := range arr {
			if typeName == "_UUID" {
				id, err := uuid.Parse(item)
				if err != nil {
					return nil, fmt.Errorf("failed to decode uuid %q: %w", item, err)
				}
				out[i] = value.Uuid(id)
				continue
			}
			out[i] = value.Text(item)
		}
		return out, nil
	}
	return value.Text(s), nil
}

// bindValue converts a Value into an argument the dialect's driver accepts.
func bindValue(v value.Value, dialect Dialect) (any, error) {
	switch x := v.(type) {
	case nil, value.Nil:
		return nil, nil
	case value.Date:
		return civil.Date(x).String(), nil
	case value.Array:
		if dialect != DialectPostgres {
			return nil, fmt.Errorf("array parameters are not supported by %s", dialect)
		}
		return bindArray(x)
	}
	return value.Native(v), nil
}

func bindArray(arr value.Array) (any, error) {
	if len(arr) == 0 {
		return pq.StringArray{}, nil
	}
	switch arr[0].(type) {
	case value.Tinyint, value.Smallint, value.Int, value.Bigint:
		out := make(pq.Int64Array, len(arr))
		for i, item := range arr {
			n, err := value.AsInt64(item)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case value.Float, value.Double:
		out := make(pq.Float64Array, len(arr))
		for i, item := range arr {
			f, err := value.AsFloat64(item)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	case value.Bool:
		out := make(pq.BoolArray, len(arr))
		for i, item := range arr {
			b, err := value.AsBool(item)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = b
		}
		return out, nil
	default:
		out := make(pq.StringArray, len(arr))
		for i, item := range arr {
			s, err := value.AsString(item)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	}
}
