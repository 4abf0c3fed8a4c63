package database

import (
	"reflect"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/koba/db-dao/internal/value"
)

func TestDecodeValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		src      any
		typeName string
		dialect  Dialect
		want     value.Value
	}{
		{"null", nil, "TEXT", DialectPostgres, value.Nil{}},
		{"int2", int64(5), "INT2", DialectPostgres, value.Smallint(5)},
		{"int4", int64(5), "INT4", DialectPostgres, value.Int(5)},
		{"int8", int64(5), "INT8", DialectPostgres, value.Bigint(5)},
		{"sqlite integer fits", int64(5), "INTEGER", DialectSQLite, value.Int(5)},
		{"sqlite integer wide", int64(1) << 40, "INTEGER", DialectSQLite, value.Bigint(1 << 40)},
		{"float4", float64(1.5), "FLOAT4", DialectPostgres, value.Float(1.5)},
		{"float8", float64(1.5), "FLOAT8", DialectPostgres, value.Double(1.5)},
		{"numeric text", []byte("4.99"), "NUMERIC", DialectPostgres, value.Double(4.99)},
		{"mysql int text", []byte("42"), "INT", DialectMySQL, value.Int(42)},
		{"mysql float", float64(1.5), "FLOAT", DialectMySQL, value.Float(1.5)},
		{"mysql double", float64(0.1), "DOUBLE", DialectMySQL, value.Double(0.1)},
		{"sqlite real", float64(0.1), "REAL", DialectSQLite, value.Double(0.1)},
		{"sqlite real text", []byte("0.1"), "REAL", DialectSQLite, value.Double(0.1)},
		{"sqlserver float", float64(0.1), "FLOAT", DialectSQLServer, value.Double(0.1)},
		{"bool", true, "BOOL", DialectPostgres, value.Bool(true)},
		{"text", "abc", "VARCHAR", DialectPostgres, value.Text("abc")},
		{"uuid text", id.String(), "UUID", DialectPostgres, value.Uuid(id)},
		{"uniqueidentifier", []byte{0x10, 0xb8, 0xa7, 0x6b, 0xad, 0x9d, 0xd1, 0x11, 0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8},
			"UNIQUEIDENTIFIER", DialectSQLServer, value.Uuid(id)},
		{"uniqueidentifier text", id.String(), "UNIQUEIDENTIFIER", DialectSQLServer, value.Uuid(id)},
		{"bytea", []byte{0, 1}, "BYTEA", DialectPostgres, value.Blob{0, 1}},
		{"date", ts, "DATE", DialectPostgres, value.Date(civil.DateOf(ts))},
		{"timestamp", ts, "TIMESTAMPTZ", DialectPostgres, value.Timestamp(ts)},
		{"int array", []byte("{2,1,2}"), "_INT4", DialectPostgres, value.Array{value.Int(2), value.Int(1), value.Int(2)}},
		{"name array", []byte(`{G,"NC-17"}`), "_NAME", DialectPostgres, value.Array{value.Text("G"), value.Text("NC-17")}},
		{"empty text array", []byte("{}"), "_TEXT", DialectPostgres, value.Array{}},
		{"float array", []byte("{1.5}"), "_FLOAT8", DialectPostgres, value.Array{value.Double(1.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeValue(tt.src, tt.typeName, tt.dialect)
			if err != nil {
				t.Fatalf("decodeValue: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decodeValue(%v, %s) = %#v, want %#v", tt.src, tt.typeName, got, tt.want)
			}
		})
	}
}

func TestDecodeValueErrors(t *testing.T) {
	if _, err := decodeValue("not-a-uuid", "UUID", DialectPostgres); err == nil {
		t.Error("expected uuid error")
	}
	if _, err := decodeValue(struct{}{}, "TEXT", DialectPostgres); err == nil {
		t.Error("expected error for unknown driver type")
	}
	if _, err := decodeValue([]byte{1, 2, 3}, "UNIQUEIDENTIFIER", DialectSQLServer); err == nil {
		t.Error("expected error for a short uniqueidentifier")
	}
}

func TestBindValue(t *testing.T) {
	arg, err := bindValue(value.Array{value.Int(1), value.Int(2)}, DialectPostgres)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arg, pq.Int64Array{1, 2}) {
		t.Errorf("bindValue int array = %#v", arg)
	}

	if _, err := bindValue(value.Array{value.Int(1)}, DialectMySQL); err == nil {
		t.Error("expected error binding an array on mysql")
	}

	arg, err = bindValue(value.Date(civil.Date{Year: 2024, Month: time.May, Day: 6}), DialectMySQL)
	if err != nil || arg != "2024-05-06" {
		t.Errorf("bindValue date = %#v, %v", arg, err)
	}

	arg, err = bindValue(value.Nil{}, DialectPostgres)
	if err != nil || arg != nil {
		t.Errorf("bindValue nil = %#v, %v", arg, err)
	}
}
