package dao

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/koba/db-dao/internal/schema"
	"github.com/koba/db-dao/internal/value"
)

type actor struct {
	ID        int32
	FirstName string
	Nickname  *string
	Token     uuid.UUID
	Scores    []int64
}

var actorMapping = MustMapping("public.actor",
	Field("actor_id", func(a *actor) *int32 { return &a.ID }),
	Field("first_name", func(a *actor) *string { return &a.FirstName }),
	Field("nickname", func(a *actor) **string { return &a.Nickname }),
	Field("token", func(a *actor) *uuid.UUID { return &a.Token }),
	Field("scores", func(a *actor) *[]int64 { return &a.Scores }),
)

func TestMappingDescriptor(t *testing.T) {
	if got := actorMapping.TableName(); got != (schema.TableName{Schema: "public", Name: "actor"}) {
		t.Errorf("TableName() = %+v", got)
	}
	want := []schema.ColumnName{{Name: "actor_id"}, {Name: "first_name"}, {Name: "nickname"}, {Name: "token"}, {Name: "scores"}}
	if got := actorMapping.ColumnNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("ColumnNames() = %v, want %v", got, want)
	}
}

func TestMappingRoundTrip(t *testing.T) {
	nick := "pen"
	tests := []struct {
		name string
		in   actor
	}{
		{"all fields", actor{ID: 1, FirstName: "Penelope", Nickname: &nick, Token: uuid.New(), Scores: []int64{3, 1}}},
		{"null nickname", actor{ID: 2, FirstName: "Nick", Token: uuid.New()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := actorMapping.ToDao(&tt.in)
			if got, want := d.Keys(), []string{"actor_id", "first_name", "nickname", "token", "scores"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("ToDao keys = %v, want %v", got, want)
			}
			out, err := actorMapping.FromDao(d)
			if err != nil {
				t.Fatalf("FromDao: %v", err)
			}
			if !reflect.DeepEqual(out, tt.in) {
				t.Errorf("round trip = %+v, want %+v", out, tt.in)
			}
		})
	}
}

func TestMappingNullable(t *testing.T) {
	in := actor{ID: 3, FirstName: "Ed"}
	d := actorMapping.ToDao(&in)
	if v, _ := d.Value("nickname"); !value.IsNil(v) {
		t.Errorf("nickname = %#v, want Nil", v)
	}
}

func TestMappingMissingField(t *testing.T) {
	d := New()
	d.Insert("actor_id", value.Int(1))

	_, err := actorMapping.FromDao(d)
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if missing.Field != "first_name" {
		t.Errorf("missing field = %q, want first_name", missing.Field)
	}
}

func TestMappingWrongType(t *testing.T) {
	d := actorMapping.ToDao(&actor{ID: 1, FirstName: "x"})
	d.Insert("actor_id", value.Text("not a number"))

	_, err := actorMapping.FromDao(d)
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "actor_id" {
		t.Fatalf("expected FieldError on actor_id, got %v", err)
	}
}

func TestNewMappingRejects(t *testing.T) {
	type odd struct {
		Attrs map[string]string
		Name  string
	}

	_, err := NewMapping("odd", Field("attrs", func(o *odd) *map[string]string { return &o.Attrs }))
	if !errors.Is(err, value.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for map field, got %v", err)
	}

	_, err = NewMapping("odd",
		Field("name", func(o *odd) *string { return &o.Name }),
		Field("name", func(o *odd) *string { return &o.Name }),
	)
	if err == nil {
		t.Error("expected duplicate field error")
	}
}
