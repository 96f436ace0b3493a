package query

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is returned when a Query cannot be executed as written,
// for example because of a negative limit or offset.
var ErrInvalidQuery = errors.New("invalid query")

// Object is a single record: a mapping from field names to scalars, nested
// objects or lists.
type Object = map[string]any

// Where is a conjunction of field equality constraints. Fields that are absent
// from the map are unconstrained; an empty Where matches every record.
type Where = map[string]any

// SortField orders results by one field.
type SortField struct {
	Field string `yaml:"field" json:"field"`
	Desc  bool   `yaml:"desc" json:"desc"`
}

// Query is an immutable description of a read. Use New and the With* helpers,
// which always return a modified copy.
type Query struct {
	// From names the collection. Collection.Query ignores it; Database.Query
	// uses it to route the query.
	From string `yaml:"from" json:"from"`

	// Select restricts the fields returned per row. Empty returns whole rows.
	Select []string `yaml:"select" json:"select,omitempty"`

	Where Where `yaml:"where" json:"where,omitempty"`

	Sort []SortField `yaml:"sort" json:"sort,omitempty"`

	// Limit caps the number of returned rows. Zero means unbounded.
	Limit int `yaml:"limit" json:"limit,omitempty"`

	// Offset skips that many matching rows before the first returned one.
	Offset int `yaml:"offset" json:"offset,omitempty"`
}

// New returns a query over the named collection that matches everything.
func New(from string) Query {
	return Query{From: from}
}

// WithWhere returns a copy of q filtered by where. The map is copied, so
// later changes to where do not leak into the query.
func (q Query) WithWhere(where Where) Query {
	q.Where = cloneWhere(where)
	return q
}

// WithSelect returns a copy of q that keeps only fields in each row. No
// fields selects every field.
func (q Query) WithSelect(fields ...string) Query {
	q.Select = append([]string(nil), fields...)
	return q
}

// WithSort returns a copy of q ordered by fields, the first field being the
// most significant.
func (q Query) WithSort(fields ...SortField) Query {
	q.Sort = append([]SortField(nil), fields...)
	return q
}

// WithLimit returns a copy of q returning at most limit rows. Zero removes
// the cap.
func (q Query) WithLimit(limit int) Query {
	q.Limit = limit
	return q
}

// WithOffset returns a copy of q that skips the first offset matching rows.
func (q Query) WithOffset(offset int) Query {
	q.Offset = offset
	return q
}

// Validate reports whether the query can be executed.
func (q Query) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("limit %d is negative: %w", q.Limit, ErrInvalidQuery)
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset %d is negative: %w", q.Offset, ErrInvalidQuery)
	}
	for _, s := range q.Sort {
		if s.Field == "" {
			return fmt.Errorf("sort field is empty: %w", ErrInvalidQuery)
		}
	}
	return nil
}

// Result is the answer to a Query.
//
// NumRows counts every record matching the filter, independent of Limit and
// Offset, so len(Rows) <= NumRows always holds.
type Result struct {
	Query   Query    `yaml:"query" json:"query"`
	NumRows int      `yaml:"num_rows" json:"num_rows"`
	Rows    []Object `yaml:"rows" json:"rows"`
}

func cloneWhere(where Where) Where {
	if where == nil {
		return nil
	}
	out := make(Where, len(where))
	for k, v := range where {
		out[k] = v
	}
	return out
}
