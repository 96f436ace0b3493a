package qdrant

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

const (
	defaultBatchSize = 200 // chunk size for upserts and deletes
	scrollPageSize   = 256
)

// Collection is a Qdrant collection whose point payloads are the objects.
type Collection struct {
	db     *Database
	name   string
	native string
}

// Name returns the collection name, without the namespace prefix.
func (c *Collection) Name() string { return c.name }

// Database returns the owning database.
func (c *Collection) Database() store.Database { return c.db }

// Insert embeds objs with the database index and upserts them as new points
// in batches.
func (c *Collection) Insert(ctx context.Context, objs ...query.Object) error {
	if len(objs) == 0 {
		return nil
	}
	if err := c.db.CheckOpen(); err != nil {
		return err
	}

	ix := c.db.Index()
	field := ix.IndexField()
	vectors := make([][]float32, len(objs))
	payloads := make([]query.Object, len(objs))
	var pending []int
	var pendingObjs []map[string]any
	for i, obj := range objs {
		payload := query.Clone(obj)
		if v, ok := store.VectorOf(payload[field]); ok {
			vectors[i] = v
		} else {
			pending = append(pending, i)
			pendingObjs = append(pendingObjs, payload)
		}
		delete(payload, field)
		payloads[i] = payload
	}
	if len(pending) > 0 {
		vecs, err := ix.ObjectsToVectors(ctx, pendingObjs)
		if err != nil {
			return fmt.Errorf("[Qdrant] failed to embed objects for %s: %w", c.name, err)
		}
		for k, i := range pending {
			vectors[i] = vecs[k]
		}
	}

	points := make([]*qdrant.PointStruct, len(objs))
	for i := range objs {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		payload, err := toPayload(payloads[i])
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(id.String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		}
	}

	for start := 0; start < len(points); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(points))
		wait := true
		_, err := c.db.api.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: c.native,
			Points:         points[start:end],
			Wait:           &wait,
		})
		if err != nil {
			return fmt.Errorf("[Qdrant] batch upsert failed at [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// Query scrolls the points matching the native part of the filter in id
// order and applies the rest of the filter in Go. NumRows is exact.
func (c *Collection) Query(ctx context.Context, q query.Query) (*query.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.db.CheckOpen(); err != nil {
		return nil, err
	}

	filter, residual := c.filter(ctx, q.Where)
	if residual == nil && len(q.Sort) == 0 {
		exact := true
		total, err := c.db.api.Count(ctx, &qdrant.CountPoints{
			CollectionName: c.native,
			Filter:         filter,
			Exact:          &exact,
		})
		if err != nil {
			return nil, fmt.Errorf("[Qdrant] failed to count %s: %w", c.name, err)
		}
		upTo := 0
		if q.Limit > 0 {
			upTo = q.Offset + q.Limit
		}
		points, err := c.scroll(ctx, filter, upTo)
		if err != nil {
			return nil, err
		}
		rows := query.Window(toRows(points), q.Offset, q.Limit)
		return &query.Result{
			Query:   q,
			NumRows: int(total),
			Rows:    query.Project(rows, q.Select),
		}, nil
	}

	points, err := c.scroll(ctx, filter, 0)
	if err != nil {
		return nil, err
	}
	rest := q
	rest.Where = residual
	res, err := query.Evaluate(toRows(points), rest)
	if err != nil {
		return nil, err
	}
	res.Query = q
	return res, nil
}

// Find returns up to limit objects matching where.
func (c *Collection) Find(ctx context.Context, where query.Where, limit int) (*query.Result, error) {
	return c.Query(ctx, query.Query{From: c.name, Where: where, Limit: limit})
}

// Delete removes every point matching any of objs. Points matched by several
// objects are removed once.
func (c *Collection) Delete(ctx context.Context, objs ...query.Object) (int, error) {
	if len(objs) == 0 {
		return 0, nil
	}
	if err := c.db.CheckOpen(); err != nil {
		return 0, err
	}

	seen := map[string]bool{}
	var ids []*qdrant.PointId
	for _, obj := range objs {
		matched, err := c.matching(ctx, query.FilterFromObject(obj))
		if err != nil {
			return 0, err
		}
		for _, id := range matched {
			if key := pointID(id); !seen[key] {
				seen[key] = true
				ids = append(ids, id)
			}
		}
	}
	if err := c.deleteIDs(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteWhere deletes the points matching where.
func (c *Collection) DeleteWhere(ctx context.Context, where query.Where, missingOK bool) (int, error) {
	if err := c.db.CheckOpen(); err != nil {
		return 0, err
	}
	ids, err := c.matching(ctx, where)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 && !missingOK {
		return 0, fmt.Errorf("no points in %s match %v: %w", c.name, where, store.ErrNotFound)
	}
	if err := c.deleteIDs(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Drop deletes the Qdrant collection.
func (c *Collection) Drop(ctx context.Context) error {
	if err := c.db.CheckOpen(); err != nil {
		return err
	}
	if err := c.db.api.DeleteCollection(ctx, c.native); err != nil {
		return fmt.Errorf("[Qdrant] failed to delete collection '%s': %w", c.native, err)
	}
	c.db.Forget(c.name)
	return nil
}

// Search embeds text with the database index and runs a nearest-neighbour
// query. Ties keep insertion order.
func (c *Collection) Search(ctx context.Context, text string, where query.Where, limit int) ([]store.Hit, error) {
	if err := c.db.CheckOpen(); err != nil {
		return nil, err
	}
	filter, residual := c.filter(ctx, where)
	if residual != nil {
		return store.Search(ctx, c, c.db.Index(), text, where, limit)
	}

	ix := c.db.Index()
	qv, err := ix.TextToVector(ctx, text)
	if err != nil {
		return nil, err
	}
	if ix.Metric() == index.Cosine && isZero(qv) {
		return nil, fmt.Errorf("query %q: %w", text, index.ErrZeroVector)
	}

	n := uint64(limit)
	if limit <= 0 {
		exact := true
		total, err := c.db.api.Count(ctx, &qdrant.CountPoints{CollectionName: c.native, Filter: filter, Exact: &exact})
		if err != nil {
			return nil, fmt.Errorf("[Qdrant] failed to count %s: %w", c.name, err)
		}
		if total == 0 {
			return []store.Hit{}, nil
		}
		n = total
	}

	scored, err := c.db.api.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.native,
		Query:          qdrant.NewQuery(qv...),
		Filter:         filter,
		Limit:          &n,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] search failed: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return pointID(scored[i].Id) < pointID(scored[j].Id)
	})
	hits := make([]store.Hit, len(scored))
	for i, p := range scored {
		hits[i] = store.Hit{Score: float64(p.Score), Object: fromPayload(p.Payload)}
	}
	return hits, nil
}

func (c *Collection) filter(ctx context.Context, where query.Where) (*qdrant.Filter, query.Where) {
	filter, residual := convertWhere(where)
	if filter != nil {
		c.db.Logger().DebugWithContext(ctx, "[Qdrant] filter", nil, map[string]interface{}{
			"collection": c.native,
			"filter":     protojson.Format(filter),
			"residual":   len(residual),
		})
	}
	return filter, residual
}

// matching returns the ids of the points matching where.
func (c *Collection) matching(ctx context.Context, where query.Where) ([]*qdrant.PointId, error) {
	filter, residual := c.filter(ctx, where)
	points, err := c.scroll(ctx, filter, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]*qdrant.PointId, 0, len(points))
	for _, p := range points {
		if residual != nil && !query.Match(fromPayload(p.Payload), residual) {
			continue
		}
		ids = append(ids, p.Id)
	}
	return ids, nil
}

func (c *Collection) deleteIDs(ctx context.Context, ids []*qdrant.PointId) error {
	for start := 0; start < len(ids); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(ids))
		wait := true
		_, err := c.db.api.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: c.native,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{Ids: ids[start:end]},
				},
			},
			Wait: &wait,
		})
		if err != nil {
			return fmt.Errorf("[Qdrant] delete failed: %w", err)
		}
	}
	return nil
}

// scroll pages through the points matching filter in id order. A positive
// upTo stops after that many points.
func (c *Collection) scroll(ctx context.Context, filter *qdrant.Filter, upTo int) ([]*qdrant.RetrievedPoint, error) {
	var out []*qdrant.RetrievedPoint
	var offset *qdrant.PointId
	for {
		// the offset point is returned again at the start of the next page
		limit := uint32(scrollPageSize)
		if offset != nil {
			limit++
		}
		page, err := c.db.api.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: c.native,
			Filter:         filter,
			Offset:         offset,
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("[Qdrant] scroll of %s failed: %w", c.name, err)
		}
		if offset != nil && len(page) > 0 && pointID(page[0].Id) == pointID(offset) {
			page = page[1:]
		}
		out = append(out, page...)
		if upTo > 0 && len(out) >= upTo {
			return out[:upTo], nil
		}
		if len(page) < scrollPageSize {
			return out, nil
		}
		offset = page[len(page)-1].Id
	}
}

func toRows(points []*qdrant.RetrievedPoint) []query.Object {
	rows := make([]query.Object, len(points))
	for i, p := range points {
		rows[i] = fromPayload(p.Payload)
	}
	return rows
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
