package introspect

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/koba/db-dao/internal/schema"
)

func TestParseDefault(t *testing.T) {
	var (
		integer   = schema.Type(schema.TypeInt)
		smallint  = schema.Type(schema.TypeSmallint)
		numeric   = schema.Type(schema.TypeNumeric)
		boolean   = schema.Type(schema.TypeBool)
		varchar   = schema.Type(schema.TypeVarchar)
		text      = schema.Type(schema.TypeText)
		jsonb     = schema.Type(schema.TypeJSON)
		uuidType  = schema.Type(schema.TypeUUID)
		timestamp = schema.Type(schema.TypeTimestamp)
		date      = schema.Type(schema.TypeDate)
		rating    = schema.Enum("mpaa_rating", []string{"G", "PG", "PG-13", "R", "NC-17"})
	)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name string
		t    schema.SqlType
		raw  string
		want schema.Literal
	}{
		{"null", integer, "NULL", schema.NullLiteral()},
		{"integer", smallint, "1", schema.IntegerLiteral(1)},
		{"negative integer", integer, "'-3'::integer", schema.IntegerLiteral(-3)},
		{"wrapped integer", integer, "(0)", schema.IntegerLiteral(0)},
		{"numeric", numeric, "4.99", schema.DoubleLiteral(4.99)},
		{"numeric with cast", numeric, "(0)::numeric", schema.IntegerLiteral(0)},
		{"numeric expression", numeric, "(0.5 * 3)", schema.DoubleLiteral(1.5)},
		{"numeric null cast", numeric, "NULL::numeric", schema.NullLiteral()},
		{"bool", boolean, "true", schema.BoolLiteral(true)},
		{"bool false", boolean, "false", schema.BoolLiteral(false)},
		{"enum", rating, "'G'::mpaa_rating", schema.StringLiteral("'G'")},
		{"varchar", varchar, "'b'::character varying", schema.StringLiteral("'b'")},
		{"text with colons", text, "'a::b'::text", schema.StringLiteral("'a::b'")},
		{"varchar null cast", varchar, "NULL::character varying", schema.NullLiteral()},
		{"json", jsonb, "'{}'::jsonb", schema.StringLiteral("'{}'")},
		{"uuid generator", uuidType, "uuid_generate_v4()", schema.UUIDGenerateV4()},
		{"gen_random_uuid", uuidType, "gen_random_uuid()", schema.UUIDGenerateV4()},
		{"uuid value", uuidType, "'" + id.String() + "'::uuid", schema.UUIDLiteral(id)},
		{"now", timestamp, "now()", schema.CurrentTimestamp()},
		{"utc now", timestamp, "timezone('utc'::text, now())", schema.CurrentTimestamp()},
		{"mysql current timestamp", timestamp, "CURRENT_TIMESTAMP", schema.CurrentTimestamp()},
		{"fixed timestamp", timestamp, "'2020-01-01 00:00:00'::timestamp without time zone", schema.NullLiteral()},
		{"today", date, "('now'::text)::date", schema.CurrentDate()},
		{"current date", date, "CURRENT_DATE", schema.CurrentDate()},
		{"int array", schema.ArrayOf(integer), "'{2,1,2}'::integer[]", schema.ArrayIntLiteral([]int64{2, 1, 2})},
		{"empty int array", schema.ArrayOf(integer), "'{}'::integer[]", schema.ArrayIntLiteral([]int64{})},
		{"array constructor", schema.ArrayOf(integer), "ARRAY[1, 2]", schema.ArrayIntLiteral([]int64{1, 2})},
		{"float array", schema.ArrayOf(numeric), "'{1.5,2}'::numeric[]", schema.ArrayFloatLiteral([]float64{1.5, 2})},
		{"empty float array", schema.ArrayOf(numeric), "'{}'::numeric[]", schema.ArrayFloatLiteral([]float64{})},
		{"text array", schema.ArrayOf(text), "'{a,b}'::text[]", schema.ArrayStringLiteral([]string{"a", "b"})},
		{"empty text array", schema.ArrayOf(text), "'{}'::text[]", schema.ArrayStringLiteral([]string{})},
		{"enum array", schema.ArrayOf(rating), "'{G,PG}'::mpaa_rating[]", schema.ArrayStringLiteral([]string{"G", "PG"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDefault(tt.t, tt.raw)
			if err != nil {
				t.Fatalf("ParseDefault(%s, %q): %v", tt.t, tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDefault(%s, %q) = %+v, want %+v", tt.t, tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDefaultEmptyFloatArrayIsFloat(t *testing.T) {
	got, err := ParseDefault(schema.ArrayOf(schema.Type(schema.TypeDouble)), "'{}'::double precision[]")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != schema.LiteralArrayFloat {
		t.Errorf("kind = %s, want %s", got.Kind, schema.LiteralArrayFloat)
	}
}

func TestParseDefaultUnsupported(t *testing.T) {
	tests := []struct {
		name string
		t    schema.SqlType
		raw  string
	}{
		{"integer garbage", schema.Type(schema.TypeInt), "abc"},
		{"bool garbage", schema.Type(schema.TypeBool), "'maybe'::boolean"},
		{"fixed date", schema.Type(schema.TypeDate), "'2020-01-01'::date"},
		{"bad uuid", schema.Type(schema.TypeUUID), "'nope'::uuid"},
		{"inet", schema.Type(schema.TypeIPAddress), "'127.0.0.1'::inet"},
		{"bool array", schema.ArrayOf(schema.Type(schema.TypeBool)), "'{t}'::boolean[]"},
		{"int array garbage", schema.ArrayOf(schema.Type(schema.TypeInt)), "'{a}'::integer[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefault(tt.t, tt.raw)
			if !errors.Is(err, ErrUnsupportedDefault) {
				t.Errorf("ParseDefault(%s, %q) err = %v, want ErrUnsupportedDefault", tt.t, tt.raw, err)
			}
		})
	}
}

func TestAutoIncrementSequence(t *testing.T) {
	seq, ok := AutoIncrementSequence("nextval('actor_actor_id_seq'::regclass)")
	if !ok || seq != "actor_actor_id_seq" {
		t.Errorf("AutoIncrementSequence = %q, %v", seq, ok)
	}
	seq, ok = AutoIncrementSequence("nextval('Public.\"Film_Seq\"'::regclass)")
	if !ok || seq != "Public.\"Film_Seq\"" {
		t.Errorf("AutoIncrementSequence kept case = %q, %v", seq, ok)
	}
	if _, ok := AutoIncrementSequence("4.99"); ok {
		t.Error("4.99 is not a sequence default")
	}
}
