package introspect

import (
	"errors"
	"testing"

	"github.com/koba/db-dao/internal/schema"
)

func TestExtractDatatypeWithCapacity(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantCap  *schema.Capacity
	}{
		{"character varying(45)", "character varying", schema.Limit(45)},
		{"varchar(45)", "varchar", schema.Limit(45)},
		{"numeric(4,2)", "numeric", schema.Range(4, 2)},
		{"text", "text", nil},
		{"character varying(45)[]", "character varying[]", schema.Limit(45)},
		{"timestamp(6) without time zone", "timestamp without time zone", schema.Limit(6)},
		{"int(10) unsigned", "int unsigned", schema.Limit(10)},
		{"enum('a','b')", "enum('a','b')", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, capacity := ExtractDatatypeWithCapacity(tt.in)
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if (capacity == nil) != (tt.wantCap == nil) || (capacity != nil && *capacity != *tt.wantCap) {
				t.Errorf("capacity = %v, want %v", capacity, tt.wantCap)
			}
		})
	}
}

func TestTypeRegistryResolve(t *testing.T) {
	r := DefaultTypeRegistry()

	tests := []struct {
		in   string
		want schema.SqlType
	}{
		{"integer", schema.Type(schema.TypeInt)},
		{"character varying(45)", schema.Type(schema.TypeVarchar)},
		{"double precision", schema.Type(schema.TypeDouble)},
		{"timestamp with time zone", schema.Type(schema.TypeTimestampTz)},
		{"text[]", schema.ArrayOf(schema.Type(schema.TypeText))},
		{"INTEGER[]", schema.ArrayOf(schema.Type(schema.TypeInt))},
		{"tsvector", schema.Type(schema.TypeTsVector)},
	}
	for _, tt := range tests {
		got, _, err := r.Resolve(tt.in)
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Resolve(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, _, err := r.Resolve("geometry"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestTypeRegistryRegister(t *testing.T) {
	r := NewTypeRegistry()
	r.Register("citext", schema.Type(schema.TypeText))
	r.Register("money", schema.Type(schema.TypeNumeric))
	r.Register("CITEXT", schema.Type(schema.TypeVarchar))

	if got := r.Names(); len(got) != 2 || got[0] != "citext" || got[1] != "money" {
		t.Errorf("Names() = %v", got)
	}
	if got, ok := r.Lookup("citext"); !ok || got.Kind != schema.TypeVarchar {
		t.Errorf("Lookup(citext) = %v, %v", got, ok)
	}
}
