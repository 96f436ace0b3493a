package mongodb

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Collection is a MongoDB collection.
type Collection struct {
	db   *Database
	name string
	coll *mongo.Collection
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Database returns the owning database.
func (c *Collection) Database() store.Database { return c.db }

// Insert adds objs with one InsertMany. Nested objects are stored with
// sorted keys so that equality filters on them match.
func (c *Collection) Insert(ctx context.Context, objs ...query.Object) error {
	if len(objs) == 0 {
		return nil
	}
	if err := c.db.CheckOpen(); err != nil {
		return err
	}
	docs := make([]interface{}, len(objs))
	for i, obj := range objs {
		docs[i] = toDocument(obj)
	}
	if _, err := c.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return nil
}

// Query counts the matching documents, then reads them in natural order.
// Limit and offset are applied by MongoDB unless the query sorts, in which
// case the rows are sorted and windowed in Go.
func (c *Collection) Query(ctx context.Context, q query.Query) (*query.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.db.CheckOpen(); err != nil {
		return nil, err
	}

	filter := toFilter(q.Where)
	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "$natural", Value: 1}}).
		SetProjection(bson.M{"_id": 0})
	pushdown := len(q.Sort) == 0
	if pushdown {
		if q.Limit > 0 {
			findOpts.SetLimit(int64(q.Limit))
		}
		if q.Offset > 0 {
			findOpts.SetSkip(int64(q.Offset))
		}
	}

	cur, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.name, err)
	}

	rows := make([]query.Object, len(docs))
	for i, d := range docs {
		rows[i] = toObject(d)
	}
	if !pushdown {
		query.SortRows(rows, q.Sort)
		rows = query.Window(rows, q.Offset, q.Limit)
	}
	return &query.Result{
		Query:   q,
		NumRows: int(total),
		Rows:    query.Project(rows, q.Select),
	}, nil
}

// Find returns up to limit documents matching where.
func (c *Collection) Find(ctx context.Context, where query.Where, limit int) (*query.Result, error) {
	return c.Query(ctx, query.Query{From: c.name, Where: where, Limit: limit})
}

// Delete removes every document matching any of objs with one DeleteMany.
func (c *Collection) Delete(ctx context.Context, objs ...query.Object) (int, error) {
	if len(objs) == 0 {
		return 0, nil
	}
	if err := c.db.CheckOpen(); err != nil {
		return 0, err
	}
	clauses := make(bson.A, len(objs))
	for i, obj := range objs {
		clauses[i] = toFilter(query.FilterFromObject(obj))
	}
	res, err := c.coll.DeleteMany(ctx, bson.M{"$or": clauses})
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	return int(res.DeletedCount), nil
}

// DeleteWhere removes the documents matching where with one DeleteMany.
func (c *Collection) DeleteWhere(ctx context.Context, where query.Where, missingOK bool) (int, error) {
	if err := c.db.CheckOpen(); err != nil {
		return 0, err
	}
	res, err := c.coll.DeleteMany(ctx, toFilter(where))
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	if res.DeletedCount == 0 && !missingOK {
		return 0, fmt.Errorf("no documents in %s match %v: %w", c.name, where, store.ErrNotFound)
	}
	return int(res.DeletedCount), nil
}

// Drop drops the MongoDB collection.
func (c *Collection) Drop(ctx context.Context) error {
	if err := c.db.CheckOpen(); err != nil {
		return err
	}
	if err := c.coll.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop %s: %w", c.name, err)
	}
	c.db.Forget(c.name)
	return nil
}

// toFilter renders an equality filter as a bson.D with sorted keys.
// MongoDB compares embedded documents field by field in order, so
// nested objects are sorted the same way as on insert.
func toFilter(where query.Where) bson.D {
	return toDocument(where)
}

// toDocument converts obj into a bson.D whose keys, at every depth, are
// sorted.
func toDocument(obj map[string]any) bson.D {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: toBSON(query.Normalize(obj[k]))})
	}
	return doc
}

func toBSON(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return toDocument(tv)
	case []any:
		out := make(bson.A, len(tv))
		for i, e := range tv {
			out[i] = toBSON(e)
		}
		return out
	}
	return v
}

// toObject converts a decoded document into plain Go values.
func toObject(d bson.M) query.Object {
	delete(d, "_id")
	return plain(d).(map[string]any)
}

func plain(v any) any {
	switch tv := v.(type) {
	case bson.M:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(tv))
		for _, e := range tv {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = plain(e)
		}
		return out
	case primitive.ObjectID:
		return tv.Hex()
	case primitive.DateTime:
		return tv.Time().UTC()
	case primitive.Null:
		return nil
	}
	return v
}
