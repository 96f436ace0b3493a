package query

import (
	"reflect"
	"sort"
)

// Filter returns the rows that match where, preserving their order.
func Filter(rows []Object, where Where) []Object {
	out := make([]Object, 0, len(rows))
	for _, row := range rows {
		if Match(row, where) {
			out = append(out, row)
		}
	}
	return out
}

// SortRows orders rows in place by the given fields. The sort is stable, so
// rows that compare equal keep their original (insertion) order.
func SortRows(rows []Object, fields []SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, f := range fields {
			c := Compare(rows[i][f.Field], rows[j][f.Field])
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Window applies offset and limit to rows. A zero limit means unbounded.
func Window(rows []Object, offset, limit int) []Object {
	if offset >= len(rows) {
		return []Object{}
	}
	if offset > 0 {
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// Project keeps only the selected fields of every row. An empty selection
// returns rows unchanged.
func Project(rows []Object, fields []string) []Object {
	if len(fields) == 0 {
		return rows
	}
	out := make([]Object, len(rows))
	for i, row := range rows {
		p := make(Object, len(fields))
		for _, f := range fields {
			if v, ok := row[f]; ok {
				p[f] = v
			}
		}
		out[i] = p
	}
	return out
}

// Evaluate answers q over an in-memory slice of rows. It is the reference
// evaluation used by stores that have no native query engine.
func Evaluate(rows []Object, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	matched := Filter(rows, q.Where)
	SortRows(matched, q.Sort)
	return &Result{
		Query:   q,
		NumRows: len(matched),
		Rows:    Project(Window(matched, q.Offset, q.Limit), q.Select),
	}, nil
}

// Clone returns a deep copy of obj. Nested objects and slices are copied;
// slices keep their element type so vectors stay []float32.
func Clone(obj Object) Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return Clone(tv)
	case []any:
		if tv == nil {
			return tv
		}
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i)))
		}
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value()))
		}
		return out.Interface()
	}
	return v
}

// cloneElem deep-copies an element while keeping it assignable to its
// container's element type.
func cloneElem(e reflect.Value) reflect.Value {
	if e.Kind() == reflect.Interface {
		if e.IsNil() {
			return e
		}
		c := cloneValue(e.Interface())
		if c == nil {
			return reflect.Zero(e.Type())
		}
		return reflect.ValueOf(c)
	}
	if !e.CanInterface() {
		return e
	}
	return reflect.ValueOf(cloneValue(e.Interface())).Convert(e.Type())
}
