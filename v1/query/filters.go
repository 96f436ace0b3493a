package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// FilterFromObject returns the equality filter that matches every record whose
// fields equal all of obj's fields. An empty object yields an empty filter,
// which matches everything.
func FilterFromObject(obj Object) Where {
	where := make(Where, len(obj))
	for k, v := range obj {
		where[k] = v
	}
	return where
}

// Match reports whether obj satisfies every constraint in where.
//
// A nil constraint matches both an explicit null and an absent field.
func Match(obj Object, where Where) bool {
	for field, want := range where {
		got, ok := obj[field]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !Equal(got, want) {
			return false
		}
	}
	return true
}

// Equal compares two field values structurally. Numbers compare by value
// regardless of their Go type, so int64(3) equals float64(3), which is what
// values decoded from JSON or BSON need. Integers compare exactly; a float
// equals an integer only when it is whole.
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)

	if an, ok := toNumeric(a); ok {
		bn, ok := toNumeric(b)
		return ok && compareNumeric(an, bn) == 0
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Compare orders two field values: nil sorts first, then booleans, numbers,
// strings and finally anything else by its textual form.
func Compare(a, b any) int {
	a, b = Normalize(a), Normalize(b)
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 0:
		return 0
	case 1:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 2:
		an, _ := toNumeric(a)
		bn, _ := toNumeric(b)
		return compareNumeric(an, bn)
	case 3:
		return strings.Compare(a.(string), b.(string))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func rank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := v.(bool); ok {
		return 1
	}
	if _, ok := toNumeric(v); ok {
		return 2
	}
	if _, ok := v.(string); ok {
		return 3
	}
	return 4
}

// Normalize converts typed slices and string-keyed maps into []any and
// map[string]any so that values coming from different decoders compare equal.
// Scalars are returned unchanged.
func Normalize(v any) any {
	switch tv := v.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = Normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return v
}
