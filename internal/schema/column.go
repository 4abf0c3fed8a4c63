package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CapacityKind tells a length limit apart from a numeric precision
type CapacityKind string

const (
	CapacityLimit CapacityKind = "limit"
	CapacityRange CapacityKind = "range"
)

// Capacity is a column's length limit or (precision, scale) pair
type Capacity struct {
	Kind      CapacityKind `json:"kind"`
	Limit     int          `json:"limit,omitempty"`
	Precision int          `json:"precision,omitempty"`
	Scale     int          `json:"scale,omitempty"`
}

func Limit(n int) *Capacity {
	return &Capacity{Kind: CapacityLimit, Limit: n}
}

func Range(precision, scale int) *Capacity {
	return &Capacity{Kind: CapacityRange, Precision: precision, Scale: scale}
}

func (c *Capacity) String() string {
	if c == nil {
		return ""
	}
	if c.Kind == CapacityRange {
		return fmt.Sprintf("(%d,%d)", c.Precision, c.Scale)
	}
	return fmt.Sprintf("(%d)", c.Limit)
}

// LiteralKind names a default expression variant
type LiteralKind string

const (
	LiteralNull             LiteralKind = "null"
	LiteralBool             LiteralKind = "bool"
	LiteralInteger          LiteralKind = "integer"
	LiteralDouble           LiteralKind = "double"
	LiteralString           LiteralKind = "string"
	LiteralUUID             LiteralKind = "uuid"
	LiteralUUIDGenerateV4   LiteralKind = "uuid_generate_v4"
	LiteralCurrentTimestamp LiteralKind = "current_timestamp"
	LiteralCurrentDate      LiteralKind = "current_date"
	LiteralArrayInt         LiteralKind = "array_int"
	LiteralArrayFloat       LiteralKind = "array_float"
	LiteralArrayString      LiteralKind = "array_string"
)

// Literal is a declared column default, as opposed to a stored value.
// Only the field matching Kind is meaningful.
type Literal struct {
	Kind    LiteralKind `json:"kind"`
	Bool    bool        `json:"bool,omitempty"`
	Integer int64       `json:"integer,omitempty"`
	Double  float64     `json:"double,omitempty"`
	Text    string      `json:"text,omitempty"`
	UUID    *uuid.UUID  `json:"uuid,omitempty"`
	Ints    []int64     `json:"ints,omitempty"`
	Floats  []float64   `json:"floats,omitempty"`
	Strings []string    `json:"strings,omitempty"`
}

func NullLiteral() Literal               { return Literal{Kind: LiteralNull} }
func BoolLiteral(b bool) Literal         { return Literal{Kind: LiteralBool, Bool: b} }
func IntegerLiteral(i int64) Literal     { return Literal{Kind: LiteralInteger, Integer: i} }
func DoubleLiteral(f float64) Literal    { return Literal{Kind: LiteralDouble, Double: f} }
func StringLiteral(s string) Literal     { return Literal{Kind: LiteralString, Text: s} }
func UUIDGenerateV4() Literal            { return Literal{Kind: LiteralUUIDGenerateV4} }
func CurrentTimestamp() Literal          { return Literal{Kind: LiteralCurrentTimestamp} }
func CurrentDate() Literal               { return Literal{Kind: LiteralCurrentDate} }
func ArrayIntLiteral(v []int64) Literal  { return Literal{Kind: LiteralArrayInt, Ints: v} }
func ArrayFloatLiteral(v []float64) Literal {
	return Literal{Kind: LiteralArrayFloat, Floats: v}
}
func ArrayStringLiteral(v []string) Literal {
	return Literal{Kind: LiteralArrayString, Strings: v}
}

func UUIDLiteral(id uuid.UUID) Literal {
	return Literal{Kind: LiteralUUID, UUID: &id}
}

func (l Literal) Equal(o Literal) bool {
	if l.Kind != o.Kind {
		return false
	}
	switch l.Kind {
	case LiteralBool:
		return l.Bool == o.Bool
	case LiteralInteger:
		return l.Integer == o.Integer
	case LiteralDouble:
		return l.Double == o.Double
	case LiteralString:
		return l.Text == o.Text
	case LiteralUUID:
		if l.UUID == nil || o.UUID == nil {
			return l.UUID == o.UUID
		}
		return *l.UUID == *o.UUID
	case LiteralArrayInt:
		return slices.Equal(l.Ints, o.Ints)
	case LiteralArrayFloat:
		return slices.Equal(l.Floats, o.Floats)
	case LiteralArrayString:
		return slices.Equal(l.Strings, o.Strings)
	}
	return true
}

// SQL renders the literal as a default expression.
func (l Literal) SQL() string {
	switch l.Kind {
	case LiteralBool:
		return strconv.FormatBool(l.Bool)
	case LiteralInteger:
		return strconv.FormatInt(l.Integer, 10)
	case LiteralDouble:
		return strconv.FormatFloat(l.Double, 'g', -1, 64)
	case LiteralString:
		return l.Text
	case LiteralUUID:
		if l.UUID == nil {
			return "NULL"
		}
		return "'" + l.UUID.String() + "'"
	case LiteralUUIDGenerateV4:
		return "uuid_generate_v4()"
	case LiteralCurrentTimestamp:
		return "CURRENT_TIMESTAMP"
	case LiteralCurrentDate:
		return "CURRENT_DATE"
	case LiteralArrayInt:
		parts := make([]string, len(l.Ints))
		for i, v := range l.Ints {
			parts[i] = strconv.FormatInt(v, 10)
		}
		return "'{" + strings.Join(parts, ",") + "}'"
	case LiteralArrayFloat:
		parts := make([]string, len(l.Floats))
		for i, v := range l.Floats {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return "'{" + strings.Join(parts, ",") + "}'"
	case LiteralArrayString:
		return "'{" + strings.Join(l.Strings, ",") + "}'"
	}
	return "NULL"
}

// ConstraintKind names a column constraint variant
type ConstraintKind string

const (
	ConstraintNotNull       ConstraintKind = "not_null"
	ConstraintDefaultValue  ConstraintKind = "default_value"
	ConstraintAutoIncrement ConstraintKind = "auto_increment"
)

// ColumnConstraint is one of NotNull, DefaultValue(literal) or
// AutoIncrement(sequence). An empty Sequence means the backend did not name one.
type ColumnConstraint struct {
	Kind     ConstraintKind `json:"kind"`
	Default  *Literal       `json:"default,omitempty"`
	Sequence string         `json:"sequence,omitempty"`
}

func NotNull() ColumnConstraint {
	return ColumnConstraint{Kind: ConstraintNotNull}
}

func DefaultValue(l Literal) ColumnConstraint {
	return ColumnConstraint{Kind: ConstraintDefaultValue, Default: &l}
}

func AutoIncrement(sequence string) ColumnConstraint {
	return ColumnConstraint{Kind: ConstraintAutoIncrement, Sequence: sequence}
}

func (c ColumnConstraint) Equal(o ColumnConstraint) bool {
	if c.Kind != o.Kind || c.Sequence != o.Sequence {
		return false
	}
	if c.Default == nil || o.Default == nil {
		return c.Default == o.Default
	}
	return c.Default.Equal(*o.Default)
}

// ColumnSpecification is the type, capacity and constraints of a column
type ColumnSpecification struct {
	SqlType     SqlType            `json:"sql_type"`
	Capacity    *Capacity          `json:"capacity,omitempty"`
	Constraints []ColumnConstraint `json:"constraints"`
}

func (s ColumnSpecification) Equal(o ColumnSpecification) bool {
	if !s.SqlType.Equal(o.SqlType) {
		return false
	}
	if (s.Capacity == nil) != (o.Capacity == nil) {
		return false
	}
	if s.Capacity != nil && *s.Capacity != *o.Capacity {
		return false
	}
	return slices.EqualFunc(s.Constraints, o.Constraints, ColumnConstraint.Equal)
}

func (s ColumnSpecification) NotNull() bool {
	return slices.ContainsFunc(s.Constraints, func(c ColumnConstraint) bool {
		return c.Kind == ConstraintNotNull
	})
}

// Default returns the declared default literal, if any.
func (s ColumnSpecification) Default() *Literal {
	for _, c := range s.Constraints {
		if c.Kind == ConstraintDefaultValue {
			return c.Default
		}
	}
	return nil
}

// AutoIncrement reports whether the column is fed by a sequence and its name.
func (s ColumnSpecification) AutoIncrement() (string, bool) {
	for _, c := range s.Constraints {
		if c.Kind == ConstraintAutoIncrement {
			return c.Sequence, true
		}
	}
	return "", false
}

// ColumnStat holds planner statistics for a column
type ColumnStat struct {
	AvgWidth  int32   `json:"avg_width"`
	NDistinct float32 `json:"n_distinct"`
}

// ColumnDef is a normalized snapshot of one column as read from the catalog
type ColumnDef struct {
	Table         TableName           `json:"table"`
	Name          ColumnName          `json:"name"`
	Comment       *string             `json:"comment,omitempty"`
	Specification ColumnSpecification `json:"specification"`
	Stat          *ColumnStat         `json:"stat,omitempty"`
}

// Equal compares the declared shape of two columns. Statistics are ignored.
func (c ColumnDef) Equal(o ColumnDef) bool {
	if c.Name != o.Name {
		return false
	}
	if (c.Comment == nil) != (o.Comment == nil) || (c.Comment != nil && *c.Comment != *o.Comment) {
		return false
	}
	return c.Specification.Equal(o.Specification)
}
