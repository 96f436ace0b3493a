package mariadb

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// jsonPath addresses a top-level member of doc.
func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(strings.ReplaceAll(field, `\`, `\\`), `"`, `\"`) + `"`
}

// buildWhere translates an equality filter into a GORM condition with "?"
// placeholders. An empty filter yields "TRUE".
func buildWhere(where query.Where) (string, []any, error) {
	if len(where) == 0 {
		return "TRUE", nil, nil
	}
	fields := make([]string, 0, len(where))
	for f := range where {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	conds := make([]string, 0, len(fields))
	var args []any
	for _, f := range fields {
		cond, condArgs, err := fieldCond(jsonPath(f), query.Normalize(where[f]))
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", f, err)
		}
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}
	return strings.Join(conds, " AND "), args, nil
}

func fieldCond(path string, v any) (string, []any, error) {
	switch tv := v.(type) {
	case nil:
		return "(JSON_EXTRACT(doc, ?) IS NULL OR JSON_TYPE(JSON_EXTRACT(doc, ?)) = 'NULL')",
			[]any{path, path}, nil
	case string:
		return "(JSON_TYPE(JSON_EXTRACT(doc, ?)) = 'STRING' AND BINARY JSON_UNQUOTE(JSON_EXTRACT(doc, ?)) = ?)",
			[]any{path, path, tv}, nil
	case bool:
		lit := "false"
		if tv {
			lit = "true"
		}
		return "(JSON_TYPE(JSON_EXTRACT(doc, ?)) = 'BOOLEAN' AND JSON_UNQUOTE(JSON_EXTRACT(doc, ?)) = ?)",
			[]any{path, path, lit}, nil
	case map[string]any, []any:
		b, err := json.Marshal(tv)
		if err != nil {
			return "", nil, fmt.Errorf("%v: %w", err, store.ErrUnsupportedValue)
		}
		return "JSON_EQUALS(JSON_EXTRACT(doc, ?), ?) = 1", []any{path, string(b)}, nil
	}
	if n, ok := query.AsInteger(v); ok {
		return intCond(path, n)
	}
	f, ok := toFloat(v)
	if !ok {
		return "", nil, fmt.Errorf("%T: %w", v, store.ErrUnsupportedValue)
	}
	if f == math.Trunc(f) && f >= -two63 && f < two63 {
		return "(" + signedCond + " OR " + doubleCond + ")",
			[]any{path, path, int64(f), path, path, f}, nil
	}
	return doubleCond, []any{path, path, f}, nil
}

const (
	two63 = float64(1 << 63)

	// maxExactFloat bounds the integers that convert to float64 exactly.
	maxExactFloat = 1 << 53
)

const (
	signedCond   = "(JSON_TYPE(JSON_EXTRACT(doc, ?)) = 'INTEGER' AND CAST(JSON_EXTRACT(doc, ?) AS SIGNED) = ?)"
	unsignedCond = "(JSON_TYPE(JSON_EXTRACT(doc, ?)) = 'INTEGER' AND CAST(JSON_EXTRACT(doc, ?) AS UNSIGNED) = ?)"
	doubleCond   = "(JSON_TYPE(JSON_EXTRACT(doc, ?)) = 'DOUBLE' AND JSON_EXTRACT(doc, ?) + 0 = ?)"
)

// intCond matches stored integers exactly. Stored doubles are compared as
// well when n converts to float64 without rounding.
func intCond(path string, n any) (string, []any, error) {
	switch v := n.(type) {
	case uint64:
		return unsignedCond, []any{path, path, v}, nil
	case int64:
		if v >= -maxExactFloat && v <= maxExactFloat {
			return "(" + signedCond + " OR " + doubleCond + ")",
				[]any{path, path, v, path, path, float64(v)}, nil
		}
	}
	return signedCond, []any{path, path, n}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
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
