package sqlite

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// jsonPath addresses a top-level field of the doc column.
func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

// buildWhere translates an equality filter into a SQL condition. An empty
// filter yields "1 = 1".
func buildWhere(where query.Where) (string, []any, error) {
	if len(where) == 0 {
		return "1 = 1", nil, nil
	}
	fields := make([]string, 0, len(where))
	for f := range where {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	conds := make([]string, 0, len(fields))
	var args []any
	for _, f := range fields {
		cond, condArgs, err := condition(f, where[f])
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}
	return strings.Join(conds, " AND "), args, nil
}

// buildAny ORs the filters together.
func buildAny(filters []query.Where) (string, []any, error) {
	conds := make([]string, 0, len(filters))
	var args []any
	for _, f := range filters {
		cond, condArgs, err := buildWhere(f)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, "("+cond+")")
		args = append(args, condArgs...)
	}
	return strings.Join(conds, " OR "), args, nil
}

func condition(field string, value any) (string, []any, error) {
	path := jsonPath(field)
	switch v := query.Normalize(value).(type) {
	case nil:
		return "(json_type(doc, ?) IS NULL OR json_type(doc, ?) = 'null')", []any{path, path}, nil
	case bool:
		lit := "false"
		if v {
			lit = "true"
		}
		return "json_type(doc, ?) = ?", []any{path, lit}, nil
	case string:
		return "(json_type(doc, ?) = 'text' AND json_extract(doc, ?) = ?)", []any{path, path, v}, nil
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %v: %w", field, err, store.ErrUnsupportedValue)
		}
		return "json_extract(doc, ?) = json(?)", []any{path, string(b)}, nil
	default:
		if n, ok := query.AsInteger(v); ok {
			if u, big := n.(uint64); big {
				// SQLite holds integers above int64 as REAL
				n = float64(u)
			}
			return "(json_type(doc, ?) IN ('integer', 'real') AND json_extract(doc, ?) = ?)", []any{path, path, n}, nil
		}
		f, ok := number(v)
		if !ok {
			return "", nil, fmt.Errorf("field %s has unsupported value %T: %w", field, value, store.ErrUnsupportedValue)
		}
		return "(json_type(doc, ?) IN ('integer', 'real') AND json_extract(doc, ?) = ?)", []any{path, path, f}, nil
	}
}

func number(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
