// Package query defines the backend-neutral query model shared by every store
// adapter.
//
// A Query describes which collection to read, an equality filter (Where), an
// optional projection, sort order and a limit/offset window. Adapters translate
// it into their native query language; stores without a native filter use the
// in-process evaluation helpers in this package (Match, SortRows, Window and
// Project) so that every backend answers a Query with the same semantics.
//
// Basic usage:
//
//	q := query.New("Person").
//	    WithWhere(query.Where{"name": "John"}).
//	    WithSort(query.SortField{Field: "age", Desc: true}).
//	    WithLimit(10)
//	res, err := collection.Query(ctx, q)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.NumRows, len(res.Rows))
//
// The With* builders return copies, so a base query can be specialised
// several times without the variants sharing state.
//
// # Filters
//
// A Where is a conjunction of field equalities. A nil value matches both an
// explicit null and a missing field. Nested objects and lists match when
// they are equal as a whole:
//
//	query.Where{"city": "Berlin", "manager": nil}
//	query.Where{"address": map[string]any{"city": "Berlin", "zip": "10115"}}
//
// Objects double as filters: FilterFromObject turns an object into the Where
// clause that matches every record with the same field values, which is how
// collections implement delete-by-object.
//
// # Numbers
//
// Values are compared by value, not by Go type: int32(3), int64(3) and
// float64(3) are equal. Integers compare exactly, including those beyond
// 2^53 that float64 cannot represent; a float equals an integer only when it
// is whole. Adapters that decode JSON use UnmarshalObject and
// UnmarshalObjects, which keep integers as int64 (uint64 above the int64
// range) instead of float64.
//
// # Ordering
//
// SortRows is stable and orders values of different kinds by rank:
// null, booleans, numbers, strings, then everything else. Fields missing
// from a row sort as null.
//
// # Results
//
// Result.NumRows counts every record matching the filter, independent of
// Limit and Offset. A Limit of zero returns every row after Offset.
//
// # Evaluation
//
// Evaluate runs a whole Query over a slice of rows: Filter, SortRows, Window
// and Project, in that order. Stores whose native engine cannot express a
// part of the query fetch candidates natively and hand the rest to these
// helpers.
package query
