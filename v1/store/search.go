package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/query"
)

// Search ranks the rows of c that match where by similarity to text.
//
// Rows that carry a vector under the index field are ranked with it; all
// other rows are embedded on the fly. Under cosine similarity, rows whose
// vector is all zeros are left out of the hits. The full scan makes this suitable for
// small collections only; vector stores implement Searcher natively.
func Search(ctx context.Context, c Collection, ix *index.Index, text string, where query.Where, limit int) ([]Hit, error) {
	if ix == nil {
		return nil, fmt.Errorf("collection %s has no index: %w", c.Name(), ErrNotImplemented)
	}
	res, err := c.Query(ctx, query.Query{From: c.Name(), Where: where})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return []Hit{}, nil
	}

	field := ix.IndexField()
	candidates := make([]index.Candidate, len(res.Rows))
	var pending []int
	var pendingObjs []map[string]any
	for n, row := range res.Rows {
		candidates[n].ID = strconv.Itoa(n)
		if v, ok := VectorOf(row[field]); ok {
			candidates[n].Vector = v
			continue
		}
		obj := query.Clone(row)
		delete(obj, field)
		pending = append(pending, n)
		pendingObjs = append(pendingObjs, obj)
	}
	if len(pending) > 0 {
		vecs, err := ix.ObjectsToVectors(ctx, pendingObjs)
		if err != nil {
			return nil, err
		}
		for k, n := range pending {
			candidates[n].Vector = vecs[k]
		}
	}

	if ix.Metric() == index.Cosine || ix.Metric() == "" {
		// a zero vector has no direction; such rows cannot rank
		kept := candidates[:0]
		for _, c := range candidates {
			if !isZero(c.Vector) {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	scored, err := ix.Search(ctx, text, candidates, limit)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(scored))
	for k, s := range scored {
		n, _ := strconv.Atoi(s.ID)
		hits[k] = Hit{Score: s.Score, Object: res.Rows[n]}
	}
	return hits, nil
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

// VectorOf converts a stored vector value, as decoded from JSON, BSON or YAML,
// to []float32.
func VectorOf(v any) ([]float32, bool) {
	switch tv := v.(type) {
	case []float32:
		return tv, true
	case []float64:
		out := make([]float32, len(tv))
		for i, f := range tv {
			out[i] = float32(f)
		}
		return out, true
	}
	list, ok := query.Normalize(v).([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	out := make([]float32, len(list))
	for i, e := range list {
		f, ok := toFloat32(e)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func toFloat32(v any) (float32, bool) {
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case float32:
		return n, true
	case int:
		return float32(n), true
	case int32:
		return float32(n), true
	case int64:
		return float32(n), true
	}
	return 0, false
}
