package qdrant

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"

	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// ── Filter Conversion ────────────────────────────────────────────────────────

// convertWhere splits an equality filter into the Qdrant conditions it can
// express and a residual filter that has to be applied in Go. A nil filter
// means "match everything".
func convertWhere(where query.Where) (*qdrant.Filter, query.Where) {
	if len(where) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var must []*qdrant.Condition
	var residual query.Where
	for _, k := range keys {
		cond, ok := convertMatch(k, where[k])
		if !ok {
			if residual == nil {
				residual = query.Where{}
			}
			residual[k] = where[k]
			continue
		}
		must = append(must, cond)
	}
	if len(must) == 0 {
		return nil, residual
	}
	return &qdrant.Filter{Must: must}, residual
}

// convertMatch converts one field constraint. Numbers match by range so
// that integer and float payloads compare by value; numbers beyond 2^53 are
// left to the residual filter.
func convertMatch(key string, value any) (*qdrant.Condition, bool) {
	switch v := query.Normalize(value).(type) {
	case nil:
		// null or missing
		return nestedFilter(&qdrant.Filter{Should: []*qdrant.Condition{
			qdrant.NewIsNull(key),
			qdrant.NewIsEmpty(key),
		}}), true
	case string:
		return qdrant.NewMatch(key, v), true
	case bool:
		return qdrant.NewMatchBool(key, v), true
	case map[string]any, []any:
		return nil, false
	default:
		f, ok := number(v)
		if !ok || math.Abs(f) > maxExactFloat {
			// Qdrant ranges are float64; larger integers are compared in Go
			return nil, false
		}
		return qdrant.NewRange(key, &qdrant.Range{Gte: &f, Lte: &f}), true
	}
}

// maxExactFloat bounds the integers that convert to float64 exactly.
const maxExactFloat = 1 << 53

func nestedFilter(f *qdrant.Filter) *qdrant.Condition {
	return &qdrant.Condition{ConditionOneOf: &qdrant.Condition_Filter{Filter: f}}
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

// ── Payload Conversion ───────────────────────────────────────────────────────

// toPayload converts an object into a Qdrant payload.
func toPayload(obj query.Object) (map[string]*qdrant.Value, error) {
	out := make(map[string]*qdrant.Value, len(obj))
	for k, v := range obj {
		val, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func toValue(v any) (*qdrant.Value, error) {
	switch tv := query.Normalize(v).(type) {
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{NullValue: qdrant.NullValue_NULL_VALUE}}, nil
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: tv}}, nil
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: tv}}, nil
	case map[string]any:
		fields, err := toPayload(tv)
		if err != nil {
			return nil, err
		}
		return &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: fields}}}, nil
	case []any:
		values := make([]*qdrant.Value, len(tv))
		for i, e := range tv {
			val, err := toValue(e)
			if err != nil {
				return nil, err
			}
			values[i] = val
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}, nil
	default:
		rv := reflect.ValueOf(tv)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: rv.Int()}}, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if rv.Uint() > math.MaxInt64 {
				return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: float64(rv.Uint())}}, nil
			}
			return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(rv.Uint())}}, nil
		}
		if n, ok := query.AsInteger(tv); ok {
			if i, ok := n.(int64); ok {
				return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: i}}, nil
			}
		}
		if f, ok := number(tv); ok {
			return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: f}}, nil
		}
		return nil, fmt.Errorf("value of type %T: %w", v, store.ErrUnsupportedValue)
	}
}

// fromPayload converts Qdrant's protobuf payload to a generic map.
func fromPayload(payload map[string]*qdrant.Value) query.Object {
	result := make(query.Object, len(payload))
	for k, v := range payload {
		result[k] = fromValue(v)
	}
	return result
}

// fromValue recursively converts a Qdrant Value to a Go native type.
func fromValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_StructValue:
		if val.StructValue == nil {
			return nil
		}
		return map[string]any(fromPayload(val.StructValue.Fields))
	case *qdrant.Value_ListValue:
		if val.ListValue == nil {
			return nil
		}
		items := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			items[i] = fromValue(item)
		}
		return items
	default:
		return nil
	}
}

// pointID extracts a string ID from Qdrant's PointId type.
func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%020d", v.Num)
	case *qdrant.PointId_Uuid:
		return v.Uuid
	}
	return ""
}
