package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/koba/db-dao/internal/value"
)

// PlaceholderStyle is how a driver expects bind parameters to be written
type PlaceholderStyle int

const (
	// PlaceholderDollar keeps $1, $2, ... as written.
	PlaceholderDollar PlaceholderStyle = iota
	// PlaceholderQuestion rewrites each $n to ? and orders the arguments by occurrence.
	PlaceholderQuestion
	// PlaceholderAtP rewrites $n to @pn.
	PlaceholderAtP
)

func (d Dialect) placeholderStyle() PlaceholderStyle {
	switch d {
	case DialectMySQL, DialectSQLite:
		return PlaceholderQuestion
	case DialectSQLServer:
		return PlaceholderAtP
	}
	return PlaceholderDollar
}

// Rebind rewrites the $n placeholders of query for style and returns the
// argument list the rewritten query expects. Placeholders inside quoted
// strings and identifiers are left alone.
func Rebind(query string, params []value.Value, style PlaceholderStyle) (string, []value.Value, error) {
	if style == PlaceholderDollar {
		return query, params, nil
	}

	var sb strings.Builder
	sb.Grow(len(query))
	var args []value.Value
	if style == PlaceholderAtP {
		args = params
	}

	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if quote != 0 {
			sb.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
			sb.WriteByte(ch)
			continue
		case '$':
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j == i+1 {
				sb.WriteByte(ch)
				continue
			}
			n, err := strconv.Atoi(query[i+1 : j])
			if err != nil || n < 1 || n > len(params) {
				return "", nil, fmt.Errorf("placeholder $%s has no matching parameter (%d given)", query[i+1:j], len(params))
			}
			if style == PlaceholderQuestion {
				sb.WriteByte('?')
				args = append(args, params[n-1])
			} else {
				sb.WriteString("@p")
				sb.WriteString(strconv.Itoa(n))
			}
			i = j - 1
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String(), args, nil
}
