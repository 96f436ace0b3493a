package query

import (
	"bytes"
	"cmp"
	"encoding/json"
	"math"
	"strconv"
)

type numKind uint8

const (
	signedNum numKind = iota
	unsignedNum
	floatNum
)

// numeric holds a number in the narrowest exact form: int64, uint64 above
// math.MaxInt64, or float64.
type numeric struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func fromUint(u uint64) numeric {
	if u <= math.MaxInt64 {
		return numeric{kind: signedNum, i: int64(u)}
	}
	return numeric{kind: unsignedNum, u: u}
}

func toNumeric(v any) (numeric, bool) {
	switch n := v.(type) {
	case int:
		return numeric{kind: signedNum, i: int64(n)}, true
	case int8:
		return numeric{kind: signedNum, i: int64(n)}, true
	case int16:
		return numeric{kind: signedNum, i: int64(n)}, true
	case int32:
		return numeric{kind: signedNum, i: int64(n)}, true
	case int64:
		return numeric{kind: signedNum, i: n}, true
	case uint:
		return fromUint(uint64(n)), true
	case uint8:
		return fromUint(uint64(n)), true
	case uint16:
		return fromUint(uint64(n)), true
	case uint32:
		return fromUint(uint64(n)), true
	case uint64:
		return fromUint(n), true
	case float32:
		return numeric{kind: floatNum, f: float64(n)}, true
	case float64:
		return numeric{kind: floatNum, f: n}, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return numeric{kind: signedNum, i: i}, true
		}
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return fromUint(u), true
		}
		f, err := n.Float64()
		return numeric{kind: floatNum, f: f}, err == nil
	}
	return numeric{}, false
}

// compareNumeric orders two numbers without rounding integers through
// float64.
func compareNumeric(a, b numeric) int {
	switch {
	case a.kind == floatNum && b.kind == floatNum:
		return cmp.Compare(a.f, b.f)
	case a.kind == floatNum:
		return -compareIntFloat(b, a.f)
	case b.kind == floatNum:
		return compareIntFloat(a, b.f)
	case a.kind == signedNum && b.kind == signedNum:
		return cmp.Compare(a.i, b.i)
	case a.kind == unsignedNum && b.kind == unsignedNum:
		return cmp.Compare(a.u, b.u)
	case a.kind == signedNum:
		return -1
	default:
		return 1
	}
}

const (
	two63 = float64(1 << 63)
	two64 = two63 * 2
)

// compareIntFloat orders an integer against a float. A float only equals an
// integer when it is whole and inside the integer's range.
func compareIntFloat(x numeric, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f >= two64:
		return -1
	case f < -two63:
		return 1
	}

	if x.kind == unsignedNum {
		if f < two63 {
			return 1
		}
		// every float64 in [2^63, 2^64) is whole
		return cmp.Compare(x.u, uint64(f))
	}
	if f >= two63 {
		return -1
	}
	t := math.Trunc(f)
	if c := cmp.Compare(x.i, int64(t)); c != 0 {
		return c
	}
	switch {
	case f > t:
		return -1
	case f < t:
		return 1
	}
	return 0
}

// AsInteger reports whether v is an integer value, returning it as int64 or,
// above math.MaxInt64, as uint64.
func AsInteger(v any) (any, bool) {
	n, ok := toNumeric(v)
	switch {
	case !ok:
		return nil, false
	case n.kind == signedNum:
		return n.i, true
	case n.kind == unsignedNum:
		return n.u, true
	}
	return nil, false
}

// UnmarshalObject decodes a JSON document. Integers come back as int64 (or
// uint64 above its range) and every other number as float64, so large IDs
// survive the round trip.
func UnmarshalObject(b []byte) (Object, error) {
	obj := Object{}
	if err := unmarshalNumbers(b, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// UnmarshalObjects decodes a JSON array of documents like UnmarshalObject.
func UnmarshalObjects(b []byte) ([]Object, error) {
	var rows []Object
	if err := unmarshalNumbers(b, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func unmarshalNumbers(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	switch t := v.(type) {
	case *Object:
		for k, x := range *t {
			(*t)[k] = FromJSONNumbers(x)
		}
	case *[]Object:
		for _, obj := range *t {
			for k, x := range obj {
				obj[k] = FromJSONNumbers(x)
			}
		}
	}
	return nil
}

// FromJSONNumbers replaces every json.Number in v, in place, with int64,
// uint64 or float64.
func FromJSONNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		n, ok := toNumeric(t)
		if !ok {
			return t.String()
		}
		switch n.kind {
		case signedNum:
			return n.i
		case unsignedNum:
			return n.u
		}
		return n.f
	case map[string]any:
		for k, x := range t {
			t[k] = FromJSONNumbers(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = FromJSONNumbers(x)
		}
		return t
	}
	return v
}
