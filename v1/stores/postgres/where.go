package postgres

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
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
		v := query.Normalize(where[f])
		if v == nil {
			conds = append(conds, "(doc -> ?::text IS NULL OR doc -> ?::text = 'null'::jsonb)")
			args = append(args, f, f)
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %v: %w", f, err, store.ErrUnsupportedValue)
		}
		conds = append(conds, "doc -> ?::text = ?::jsonb")
		args = append(args, f, string(b))
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
