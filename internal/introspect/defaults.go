package introspect

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/google/uuid"

	"github.com/koba/db-dao/internal/schema"
)

var nowExpressions = []string{
	"now()",
	"timezone('utc'::text, now())",
	"current_timestamp",
	"current_timestamp()",
	"localtimestamp",
	"transaction_timestamp()",
}

// A timestamp cast to text and back to date is how PostgreSQL stores today().
var todayExpressions = []string{
	"today()",
	"now()",
	"('now'::text)::date",
	"current_date",
	"current_date()",
	"curdate()",
}

var uuidGenerators = []string{
	"uuid_generate_v4()",
	"gen_random_uuid()",
}

// AutoIncrementSequence extracts the sequence name from a
// nextval('<seq>'::regclass) default.
func AutoIncrementSequence(raw string) (string, bool) {
	def := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(def), "nextval(") {
		return "", false
	}
	seq := def[len("nextval("):]
	seq = strings.TrimPrefix(seq, "'")
	seq = strings.TrimSuffix(seq, ")")
	seq = strings.TrimSuffix(seq, "::regclass")
	seq = strings.TrimSuffix(seq, "'")
	return seq, true
}

// ParseDefault turns a catalog default expression into a Literal for a
// column of type t. Shapes it does not recognize return ErrUnsupportedDefault.
func ParseDefault(t schema.SqlType, raw string) (schema.Literal, error) {
	def := strings.TrimSpace(raw)
	if strings.EqualFold(def, "null") {
		return schema.NullLiteral(), nil
	}

	switch {
	case t.Kind == schema.TypeBool:
		v := strings.Trim(removeValueCast(def), "'")
		b, err := strconv.ParseBool(v)
		if err != nil {
			return schema.Literal{}, unsupportedDefault(t, def, err)
		}
		return schema.BoolLiteral(b), nil

	case t.IsIntegral():
		v := strings.Trim(trimParenthesis(removeValueCast(def)), "'")
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return schema.Literal{}, unsupportedDefault(t, def, err)
		}
		return schema.IntegerLiteral(n), nil

	case t.IsFloating():
		// some defaults carry a cast, e.g. (0)::numeric
		v := trimParenthesis(removeValueCast(def))
		if strings.EqualFold(v, "null") {
			return schema.NullLiteral(), nil
		}
		v = strings.Trim(v, "'")
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return schema.IntegerLiteral(n), nil
		}
		f, err := evalFloat(v)
		if err != nil {
			return schema.Literal{}, unsupportedDefault(t, def, err)
		}
		return schema.DoubleLiteral(f), nil

	case t.Kind == schema.TypeUUID:
		if slices.Contains(uuidGenerators, strings.ToLower(def)) {
			return schema.UUIDGenerateV4(), nil
		}
		id, err := uuid.Parse(strings.Trim(removeValueCast(def), "'"))
		if err != nil {
			return schema.Literal{}, unsupportedDefault(t, def, err)
		}
		return schema.UUIDLiteral(id), nil

	case t.Kind == schema.TypeTimestamp || t.Kind == schema.TypeTimestampTz:
		if slices.Contains(nowExpressions, strings.ToLower(def)) {
			return schema.CurrentTimestamp(), nil
		}
		slog.Warn("timestamp default is not a current-time expression, treating as NULL", "default", def)
		return schema.NullLiteral(), nil

	case t.Kind == schema.TypeDate:
		if slices.Contains(todayExpressions, strings.ToLower(def)) {
			return schema.CurrentDate(), nil
		}
		return schema.Literal{}, unsupportedDefault(t, def, nil)

	case t.IsTextual() || t.Kind == schema.TypeEnum || t.Kind == schema.TypeJSON:
		// e.g. 'G'::mpaa_rating keeps its quotes: 'G'
		v := removeValueCast(def)
		if strings.EqualFold(v, "null") {
			return schema.NullLiteral(), nil
		}
		return schema.StringLiteral(v), nil

	case t.Kind == schema.TypeArray && t.Elem != nil:
		return parseArrayDefault(t, def)
	}

	return schema.Literal{}, unsupportedDefault(t, def, nil)
}

// parseArrayDefault handles '{2,1,2}'::integer[] and ARRAY[2, 1, 2] forms.
func parseArrayDefault(t schema.SqlType, def string) (schema.Literal, error) {
	body := strings.TrimSpace(removeValueCast(def))
	if strings.HasPrefix(strings.ToUpper(body), "ARRAY[") && strings.HasSuffix(body, "]") {
		body = body[len("ARRAY[") : len(body)-1]
	} else {
		body = strings.Trim(body, "'")
		body = strings.TrimPrefix(body, "{")
		body = strings.TrimSuffix(body, "}")
	}

	var items []string
	if strings.TrimSpace(body) != "" {
		items = strings.Split(body, ",")
	}

	elem := *t.Elem
	switch {
	case elem.IsIntegral():
		ints := make([]int64, 0, len(items))
		for _, item := range items {
			n, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(removeValueCast(item)), "'"), 10, 64)
			if err != nil {
				return schema.Literal{}, unsupportedDefault(t, def, err)
			}
			ints = append(ints, n)
		}
		return schema.ArrayIntLiteral(ints), nil

	case elem.IsFloating():
		floats := make([]float64, 0, len(items))
		for _, item := range items {
			f, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(removeValueCast(item)), "'"), 64)
			if err != nil {
				return schema.Literal{}, unsupportedDefault(t, def, err)
			}
			floats = append(floats, f)
		}
		return schema.ArrayFloatLiteral(floats), nil

	case elem.IsTextual() || elem.Kind == schema.TypeEnum:
		strs := make([]string, 0, len(items))
		strs = append(strs, items...)
		return schema.ArrayStringLiteral(strs), nil
	}

	return schema.Literal{}, unsupportedDefault(t, def, nil)
}

func unsupportedDefault(t schema.SqlType, def string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %q for %s: %v", ErrUnsupportedDefault, def, t, cause)
	}
	return fmt.Errorf("%w: %q for %s", ErrUnsupportedDefault, def, t)
}

// removeValueCast drops the first type cast found outside quotes:
// 'b'::character varying becomes 'b'.
func removeValueCast(value string) string {
	inQuote := false
	for i := 0; i < len(value)-1; i++ {
		switch {
		case value[i] == '\'':
			inQuote = !inQuote
		case !inQuote && value[i] == ':' && value[i+1] == ':':
			return value[:i]
		}
	}
	return value
}

// trimParenthesis strips parentheses that wrap the whole expression.
func trimParenthesis(value string) string {
	value = strings.TrimSpace(value)
	for len(value) >= 2 && value[0] == '(' && value[len(value)-1] == ')' && closingParen(value) == len(value)-1 {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}
	return value
}

// closingParen returns the index of the parenthesis closing value[0].
func closingParen(value string) int {
	depth := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// evalFloat evaluates a numeric default such as 4.99 or (0.5 * 2).
func evalFloat(expression string) (float64, error) {
	out, err := expr.Eval(expression, nil)
	if err != nil {
		return 0, err
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("expression %q evaluates to %T", expression, out)
}
