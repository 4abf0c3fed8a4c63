package dao

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"

	"github.com/koba/db-dao/internal/value"
)

// everything holds one field of each type a mapping accepts.
type everything struct {
	Bool    bool
	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	Int     int
	Float32 float32
	Float64 float64
	String  string
	Char    value.Char
	UUID    uuid.UUID
	Date    civil.Date
	Time    time.Time

	OptBool    *bool
	OptInt8    *int8
	OptInt16   *int16
	OptInt32   *int32
	OptInt64   *int64
	OptInt     *int
	OptFloat32 *float32
	OptFloat64 *float64
	OptString  *string
	OptChar    *value.Char
	OptUUID    *uuid.UUID
	OptDate    *civil.Date
	OptTime    *time.Time

	Bytes    []byte
	Strings  []string
	Int16s   []int16
	Int32s   []int32
	Int64s   []int64
	Float32s []float32
	Float64s []float64

	Any       value.Value
	Text      value.Text
	Bigint    value.Bigint
	Double    value.Double
	Blob      value.Blob
	Uuid      value.Uuid
	Date2     value.Date
	Timestamp value.Timestamp
	Array     value.Array
}

var everythingMapping = MustMapping("everything",
	Field("bool", func(e *everything) *bool { return &e.Bool }),
	Field("int8", func(e *everything) *int8 { return &e.Int8 }),
	Field("int16", func(e *everything) *int16 { return &e.Int16 }),
	Field("int32", func(e *everything) *int32 { return &e.Int32 }),
	Field("int64", func(e *everything) *int64 { return &e.Int64 }),
	Field("int", func(e *everything) *int { return &e.Int }),
	Field("float32", func(e *everything) *float32 { return &e.Float32 }),
	Field("float64", func(e *everything) *float64 { return &e.Float64 }),
	Field("string", func(e *everything) *string { return &e.String }),
	Field("char", func(e *everything) *value.Char { return &e.Char }),
	Field("uuid", func(e *everything) *uuid.UUID { return &e.UUID }),
	Field("date", func(e *everything) *civil.Date { return &e.Date }),
	Field("time", func(e *everything) *time.Time { return &e.Time }),

	Field("opt_bool", func(e *everything) **bool { return &e.OptBool }),
	Field("opt_int8", func(e *everything) **int8 { return &e.OptInt8 }),
	Field("opt_int16", func(e *everything) **int16 { return &e.OptInt16 }),
	Field("opt_int32", func(e *everything) **int32 { return &e.OptInt32 }),
	Field("opt_int64", func(e *everything) **int64 { return &e.OptInt64 }),
	Field("opt_int", func(e *everything) **int { return &e.OptInt }),
	Field("opt_float32", func(e *everything) **float32 { return &e.OptFloat32 }),
	Field("opt_float64", func(e *everything) **float64 { return &e.OptFloat64 }),
	Field("opt_string", func(e *everything) **string { return &e.OptString }),
	Field("opt_char", func(e *everything) **value.Char { return &e.OptChar }),
	Field("opt_uuid", func(e *everything) **uuid.UUID { return &e.OptUUID }),
	Field("opt_date", func(e *everything) **civil.Date { return &e.OptDate }),
	Field("opt_time", func(e *everything) **time.Time { return &e.OptTime }),

	Field("bytes", func(e *everything) *[]byte { return &e.Bytes }),
	Field("strings", func(e *everything) *[]string { return &e.Strings }),
	Field("int16s", func(e *everything) *[]int16 { return &e.Int16s }),
	Field("int32s", func(e *everything) *[]int32 { return &e.Int32s }),
	Field("int64s", func(e *everything) *[]int64 { return &e.Int64s }),
	Field("float32s", func(e *everything) *[]float32 { return &e.Float32s }),
	Field("float64s", func(e *everything) *[]float64 { return &e.Float64s }),

	Field("any", func(e *everything) *value.Value { return &e.Any }),
	Field("text", func(e *everything) *value.Text { return &e.Text }),
	Field("bigint", func(e *everything) *value.Bigint { return &e.Bigint }),
	Field("double", func(e *everything) *value.Double { return &e.Double }),
	Field("blob", func(e *everything) *value.Blob { return &e.Blob }),
	Field("uuid_value", func(e *everything) *value.Uuid { return &e.Uuid }),
	Field("date_value", func(e *everything) *value.Date { return &e.Date2 }),
	Field("timestamp", func(e *everything) *value.Timestamp { return &e.Timestamp }),
	Field("array", func(e *everything) *value.Array { return &e.Array }),
)

func ptr[T any](v T) *T { return &v }

func TestMappingRoundTripAllFieldTypes(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	day := civil.Date{Year: 2024, Month: time.February, Day: 29}
	at := time.Date(2024, 2, 29, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   everything
	}{
		{
			name: "set",
			in: everything{
				Bool: true, Int8: -8, Int16: 1600, Int32: -320000, Int64: 1 << 40, Int: 42,
				Float32: 0.5, Float64: 0.1, String: "abc", Char: 'x', UUID: id, Date: day, Time: at,

				OptBool: ptr(false), OptInt8: ptr(int8(8)), OptInt16: ptr(int16(-16)), OptInt32: ptr(int32(32)),
				OptInt64: ptr(int64(-64)), OptInt: ptr(7), OptFloat32: ptr(float32(1.25)), OptFloat64: ptr(2.5),
				OptString: ptr(""), OptChar: ptr(value.Char('y')), OptUUID: ptr(id), OptDate: ptr(day), OptTime: ptr(at),

				Bytes: []byte{0, 1, 2}, Strings: []string{"a", "b"}, Int16s: []int16{1, -1}, Int32s: []int32{2},
				Int64s: []int64{}, Float32s: []float32{0.5}, Float64s: []float64{0.1, 0.2},

				Any: value.Int(9), Text: "t", Bigint: 99, Double: 0.3, Blob: value.Blob{9},
				Uuid: value.Uuid(id), Date2: value.Date(day), Timestamp: value.Timestamp(at),
				Array: value.Array{value.Text("a"), value.Int(1)},
			},
		},
		{
			name: "nil",
			in:   everything{Any: value.Nil{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := everythingMapping.ToDao(&tt.in)
			if got, want := d.Len(), len(everythingMapping.ColumnNames()); got != want {
				t.Fatalf("ToDao has %d entries, want %d", got, want)
			}
			out, err := everythingMapping.FromDao(d)
			if err != nil {
				t.Fatalf("FromDao: %v", err)
			}
			if !reflect.DeepEqual(out, tt.in) {
				t.Errorf("round trip = %+v, want %+v", out, tt.in)
			}
		})
	}
}

func TestMappingNilFieldsBecomeNil(t *testing.T) {
	d := everythingMapping.ToDao(&everything{})
	for _, name := range []string{"opt_bool", "opt_uuid", "opt_time", "bytes", "strings", "float64s", "any"} {
		if v, _ := d.Value(name); !value.IsNil(v) {
			t.Errorf("%s = %#v, want Nil", name, v)
		}
	}
}

func TestMappingVariantFieldConverts(t *testing.T) {
	d := everythingMapping.ToDao(&everything{Any: value.Nil{}})
	d.Insert("bigint", value.Int(5))
	d.Insert("text", value.Char('z'))

	out, err := everythingMapping.FromDao(d)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bigint != 5 || out.Text != "z" {
		t.Errorf("bigint = %d, text = %q", out.Bigint, out.Text)
	}

	d.Insert("array", value.Text("not an array"))
	var conv *value.ConversionError
	if _, err := everythingMapping.FromDao(d); !errors.As(err, &conv) {
		t.Errorf("expected ConversionError for array field, got %v", err)
	}
}

func TestGetterPanicsOnUnconvertibleField(t *testing.T) {
	type broken struct{ Attrs map[string]int }
	get := getter("attrs", func(b *broken) *map[string]int { return &b.Attrs })

	defer func() {
		r := recover()
		msg, _ := r.(string)
		if !strings.Contains(msg, `"attrs"`) {
			t.Errorf("recovered %v, want a panic naming the field", r)
		}
	}()
	get(&broken{})
}
