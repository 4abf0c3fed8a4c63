package schema

import (
	"fmt"
	"slices"
)

// TypeKind names a portable column type
type TypeKind string

const (
	TypeBool        TypeKind = "bool"
	TypeTinyint     TypeKind = "tinyint"
	TypeSmallint    TypeKind = "smallint"
	TypeInt         TypeKind = "int"
	TypeBigint      TypeKind = "bigint"
	TypeReal        TypeKind = "real"
	TypeFloat       TypeKind = "float"
	TypeDouble      TypeKind = "double"
	TypeNumeric     TypeKind = "numeric"
	TypeTinyblob    TypeKind = "tinyblob"
	TypeMediumblob  TypeKind = "mediumblob"
	TypeBlob        TypeKind = "blob"
	TypeLongblob    TypeKind = "longblob"
	TypeVarbinary   TypeKind = "varbinary"
	TypeChar        TypeKind = "char"
	TypeVarchar     TypeKind = "varchar"
	TypeTinytext    TypeKind = "tinytext"
	TypeMediumtext  TypeKind = "mediumtext"
	TypeText        TypeKind = "text"
	TypeJSON        TypeKind = "json"
	TypeTsVector    TypeKind = "tsvector"
	TypeUUID        TypeKind = "uuid"
	TypeDate        TypeKind = "date"
	TypeTime        TypeKind = "time"
	TypeTimeTz      TypeKind = "timetz"
	TypeTimestamp   TypeKind = "timestamp"
	TypeTimestampTz TypeKind = "timestamptz"
	TypeIPAddress   TypeKind = "inet"
	TypePoint       TypeKind = "point"
	TypeInterval    TypeKind = "interval"
	TypeEnum        TypeKind = "enum"
	TypeArray       TypeKind = "array"
)

// SqlType is a portable column type. Enum carries its name and ordered
// labels; Array carries its element type, which may itself be an Enum.
type SqlType struct {
	Kind    TypeKind `json:"kind"`
	Name    string   `json:"name,omitempty"`
	Choices []string `json:"choices,omitempty"`
	Elem    *SqlType `json:"elem,omitempty"`
}

// Type returns the plain SqlType of kind k.
func Type(k TypeKind) SqlType {
	return SqlType{Kind: k}
}

func Enum(name string, choices []string) SqlType {
	return SqlType{Kind: TypeEnum, Name: name, Choices: choices}
}

func ArrayOf(elem SqlType) SqlType {
	return SqlType{Kind: TypeArray, Elem: &elem}
}

func (t SqlType) Equal(o SqlType) bool {
	if t.Kind != o.Kind || t.Name != o.Name || !slices.Equal(t.Choices, o.Choices) {
		return false
	}
	if t.Elem == nil || o.Elem == nil {
		return t.Elem == o.Elem
	}
	return t.Elem.Equal(*o.Elem)
}

func (t SqlType) IsIntegral() bool {
	switch t.Kind {
	case TypeTinyint, TypeSmallint, TypeInt, TypeBigint:
		return true
	}
	return false
}

func (t SqlType) IsFloating() bool {
	switch t.Kind {
	case TypeReal, TypeFloat, TypeDouble, TypeNumeric:
		return true
	}
	return false
}

func (t SqlType) IsTextual() bool {
	switch t.Kind {
	case TypeChar, TypeVarchar, TypeTinytext, TypeMediumtext, TypeText:
		return true
	}
	return false
}

func (t SqlType) String() string {
	switch t.Kind {
	case TypeEnum:
		return t.Name
	case TypeArray:
		if t.Elem == nil {
			return "array"
		}
		return fmt.Sprintf("%s[]", t.Elem.String())
	}
	return string(t.Kind)
}
