package introspect

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/koba/db-dao/internal/schema"
)

// TypeRegistry maps normalized native type names to portable SqlTypes.
// Entries keep registration order; registering a name again replaces its type.
type TypeRegistry struct {
	mu      sync.RWMutex
	names   []string
	entries map[string]schema.SqlType
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{entries: make(map[string]schema.SqlType)}
}

// DefaultTypeRegistry returns a fresh registry holding the PostgreSQL and
// MySQL type names this package understands out of the box.
func DefaultTypeRegistry() *TypeRegistry {
	r := NewTypeRegistry()
	for _, e := range defaultTypes {
		r.Register(e.name, e.sqlType)
	}
	return r
}

// Register adds or replaces the mapping for name.
func (r *TypeRegistry) Register(name string, t schema.SqlType) {
	name = normalizeTypeName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; !exists {
		r.names = append(r.names, name)
	}
	r.entries[name] = t
}

// Lookup returns the SqlType registered for name.
func (r *TypeRegistry) Lookup(name string) (schema.SqlType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.entries[normalizeTypeName(name)]
	return t, ok
}

// Names lists the registered names in registration order.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Resolve splits the capacity off a formatted type such as varchar(45) and
// looks the remaining name up.
func (r *TypeRegistry) Resolve(dataType string) (schema.SqlType, *schema.Capacity, error) {
	name, capacity := ExtractDatatypeWithCapacity(dataType)
	t, ok := r.Lookup(name)
	if !ok {
		return schema.SqlType{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedType, dataType)
	}
	return t, capacity, nil
}

func normalizeTypeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ExtractDatatypeWithCapacity splits a formatted type into its name and the
// capacity given in parentheses: varchar(45) is varchar with Limit(45),
// numeric(4,2) is numeric with Range(4,2). Text after the parentheses stays
// part of the name, so character varying(45)[] yields character varying[].
// Parentheses that do not hold numbers leave the type untouched.
func ExtractDatatypeWithCapacity(dataType string) (string, *schema.Capacity) {
	dataType = strings.TrimSpace(dataType)
	open := strings.IndexByte(dataType, '(')
	if open < 0 {
		return dataType, nil
	}
	end := strings.IndexByte(dataType[open:], ')')
	if end < 0 {
		return dataType, nil
	}
	end += open

	var numbers []int
	for _, part := range strings.Split(dataType[open+1:end], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return dataType, nil
		}
		numbers = append(numbers, n)
	}

	name := strings.TrimSpace(dataType[:open]) + dataType[end+1:]
	switch len(numbers) {
	case 1:
		return name, schema.Limit(numbers[0])
	case 2:
		return name, schema.Range(numbers[0], numbers[1])
	}
	return dataType, nil
}

type typeEntry struct {
	name    string
	sqlType schema.SqlType
}

func entry(name string, k schema.TypeKind) typeEntry {
	return typeEntry{name: name, sqlType: schema.Type(k)}
}

func arrayEntry(name string, k schema.TypeKind) typeEntry {
	return typeEntry{name: name, sqlType: schema.ArrayOf(schema.Type(k))}
}

var defaultTypes = []typeEntry{
	entry("boolean", schema.TypeBool),
	entry("bool", schema.TypeBool),
	entry("bit", schema.TypeBool),
	entry("tinyint", schema.TypeTinyint),
	entry("tinyint unsigned", schema.TypeSmallint),
	entry("smallint", schema.TypeSmallint),
	entry("year", schema.TypeSmallint),
	entry("smallint unsigned", schema.TypeInt),
	entry("mediumint", schema.TypeInt),
	entry("mediumint unsigned", schema.TypeInt),
	entry("int", schema.TypeInt),
	entry("integer", schema.TypeInt),
	entry("oid", schema.TypeInt),
	entry("int unsigned", schema.TypeBigint),
	entry("bigint", schema.TypeBigint),
	entry("bigint unsigned", schema.TypeBigint),
	entry("real", schema.TypeReal),
	entry("float", schema.TypeFloat),
	entry("double", schema.TypeDouble),
	entry("double precision", schema.TypeDouble),
	entry("numeric", schema.TypeNumeric),
	entry("decimal", schema.TypeNumeric),
	entry("tinyblob", schema.TypeTinyblob),
	entry("mediumblob", schema.TypeMediumblob),
	entry("blob", schema.TypeBlob),
	entry("bytea", schema.TypeBlob),
	entry("longblob", schema.TypeLongblob),
	entry("varbinary", schema.TypeVarbinary),
	entry("binary", schema.TypeVarbinary),
	entry("char", schema.TypeChar),
	entry("bpchar", schema.TypeChar),
	entry(`"char"`, schema.TypeChar),
	entry("varchar", schema.TypeVarchar),
	entry("character varying", schema.TypeVarchar),
	entry("character", schema.TypeVarchar),
	entry("name", schema.TypeVarchar),
	entry("tinytext", schema.TypeTinytext),
	entry("mediumtext", schema.TypeMediumtext),
	entry("text", schema.TypeText),
	entry("longtext", schema.TypeText),
	entry("unknown", schema.TypeText),
	entry("json", schema.TypeJSON),
	entry("jsonb", schema.TypeJSON),
	entry("tsvector", schema.TypeTsVector),
	entry("uuid", schema.TypeUUID),
	entry("date", schema.TypeDate),
	entry("time", schema.TypeTime),
	entry("time without time zone", schema.TypeTime),
	entry("time with time zone", schema.TypeTimeTz),
	entry("timestamp", schema.TypeTimestamp),
	entry("timestamp without time zone", schema.TypeTimestamp),
	entry("datetime", schema.TypeTimestamp),
	entry("timestamp with time zone", schema.TypeTimestampTz),
	entry("inet", schema.TypeIPAddress),
	entry("point", schema.TypePoint),
	entry("interval", schema.TypeInterval),
	arrayEntry("int[]", schema.TypeInt),
	arrayEntry("integer[]", schema.TypeInt),
	arrayEntry("smallint[]", schema.TypeSmallint),
	arrayEntry("bigint[]", schema.TypeBigint),
	arrayEntry("real[]", schema.TypeFloat),
	arrayEntry("double precision[]", schema.TypeDouble),
	arrayEntry("numeric[]", schema.TypeNumeric),
	arrayEntry("boolean[]", schema.TypeBool),
	arrayEntry("uuid[]", schema.TypeUUID),
	arrayEntry("text[]", schema.TypeText),
	arrayEntry("varchar[]", schema.TypeText),
	arrayEntry("character varying[]", schema.TypeText),
	arrayEntry("name[]", schema.TypeText),
}
