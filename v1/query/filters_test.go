package query

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFilterFromObject_CopiesEveryField(t *testing.T) {
	obj := Object{"id": "p1", "age": 33}
	where := FilterFromObject(obj)

	if len(where) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(where))
	}
	obj["age"] = 34
	if where["age"] != 33 {
		t.Errorf("filter must not alias the object, got age=%v", where["age"])
	}
}

func TestFilterFromObject_EmptyMatchesAll(t *testing.T) {
	where := FilterFromObject(Object{})
	if !Match(Object{"x": 1}, where) {
		t.Error("empty filter should match any object")
	}
}

func TestMatch_Conjunction(t *testing.T) {
	obj := Object{"name": "John", "age": int64(33)}

	cases := []struct {
		name  string
		where Where
		want  bool
	}{
		{"single field", Where{"name": "John"}, true},
		{"all fields", Where{"name": "John", "age": 33}, true},
		{"one mismatch", Where{"name": "John", "age": 34}, false},
		{"missing field", Where{"city": "Berlin"}, false},
		{"nil matches missing", Where{"city": nil}, true},
		{"nil does not match value", Where{"name": nil}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Match(obj, tc.where); got != tc.want {
				t.Errorf("Match(%v) = %v, want %v", tc.where, got, tc.want)
			}
		})
	}
}

func TestEqual_NumericNormalisation(t *testing.T) {
	if !Equal(int(3), float64(3)) {
		t.Error("int and float64 with same value should be equal")
	}
	if !Equal(json.Number("2.5"), float32(2.5)) {
		t.Error("json.Number should compare by value")
	}
	if Equal(3, "3") {
		t.Error("number and string must differ")
	}
}

func TestEqual_Nested(t *testing.T) {
	a := map[string]any{"tags": []string{"a", "b"}, "n": map[string]int{"x": 1}}
	b := map[string]any{"tags": []any{"a", "b"}, "n": map[string]any{"x": 1.0}}
	if !Equal(a, b) {
		t.Error("structurally equal values from different decoders should be equal")
	}
	b["tags"] = []any{"b", "a"}
	if Equal(a, b) {
		t.Error("list order is significant")
	}
}

func TestCompare_Ranks(t *testing.T) {
	ordered := []any{nil, false, true, -1, 2.5, 10, "a", "b"}
	for i := 0; i < len(ordered)-1; i++ {
		if c := Compare(ordered[i], ordered[i+1]); c >= 0 {
			t.Errorf("Compare(%v, %v) = %d, want < 0", ordered[i], ordered[i+1], c)
		}
	}
	if Compare(3, 3.0) != 0 {
		t.Error("equal numbers should compare as 0")
	}
}

func TestValidate(t *testing.T) {
	if err := New("t").Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := New("t").WithLimit(-1).Validate(); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
	if err := New("t").WithOffset(-2).Validate(); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
	if err := New("t").WithSort(SortField{}).Validate(); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestWithHelpers_DoNotMutate(t *testing.T) {
	where := Where{"a": 1}
	base := New("t")
	q := base.WithWhere(where).WithLimit(5)

	if base.Limit != 0 || base.Where != nil {
		t.Errorf("base query was modified: %+v", base)
	}
	where["a"] = 2
	if q.Where["a"] != 1 {
		t.Errorf("query must keep its own copy of the filter, got %v", q.Where["a"])
	}
}
