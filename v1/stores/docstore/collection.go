package docstore

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Collection is a docstore table.
type Collection struct {
	db   *Database
	name string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Database returns the owning database.
func (c *Collection) Database() store.Database { return c.db }

// Insert appends deep copies of objs, so later changes by the caller do not
// reach the stored rows. The table is marked dirty until the next Commit.
func (c *Collection) Insert(ctx context.Context, objs ...query.Object) error {
	if len(objs) == 0 {
		return nil
	}
	if err := c.db.CheckOpen(); err != nil {
		return err
	}
	return c.db.update(ctx, c.name, func(t *table) bool {
		for _, obj := range objs {
			t.rows = append(t.rows, query.Clone(obj))
		}
		return true
	})
}

// Query evaluates q over the in-memory rows. Returned rows are copies.
func (c *Collection) Query(ctx context.Context, q query.Query) (*query.Result, error) {
	if err := c.db.CheckOpen(); err != nil {
		return nil, err
	}
	rows, err := c.db.rows(ctx, c.name)
	if err != nil {
		return nil, err
	}
	res, err := query.Evaluate(rows, q)
	if err != nil {
		return nil, err
	}
	// rows are shared with the table
	for i, row := range res.Rows {
		res.Rows[i] = query.Clone(row)
	}
	return res, nil
}

// Find returns up to limit rows matching where, in insertion order.
func (c *Collection) Find(ctx context.Context, where query.Where, limit int) (*query.Result, error) {
	return c.Query(ctx, query.Query{From: c.name, Where: where, Limit: limit})
}

// Delete removes every row matching any of objs in one pass.
func (c *Collection) Delete(ctx context.Context, objs ...query.Object) (int, error) {
	if len(objs) == 0 {
		return 0, nil
	}
	filters := make([]query.Where, len(objs))
	for i, obj := range objs {
		filters[i] = query.FilterFromObject(obj)
	}
	return c.remove(ctx, func(row query.Object) bool {
		for _, f := range filters {
			if query.Match(row, f) {
				return true
			}
		}
		return false
	})
}

// DeleteWhere removes the rows matching where. With missingOK unset, no
// match is ErrNotFound.
func (c *Collection) DeleteWhere(ctx context.Context, where query.Where, missingOK bool) (int, error) {
	n, err := c.remove(ctx, func(row query.Object) bool { return query.Match(row, where) })
	if err != nil {
		return 0, err
	}
	if n == 0 && !missingOK {
		return 0, fmt.Errorf("no rows in %s match %v: %w", c.name, where, store.ErrNotFound)
	}
	return n, nil
}

func (c *Collection) remove(ctx context.Context, match func(query.Object) bool) (int, error) {
	if err := c.db.CheckOpen(); err != nil {
		return 0, err
	}
	var removed int
	err := c.db.update(ctx, c.name, func(t *table) bool {
		kept := t.rows[:0]
		for _, row := range t.rows {
			if match(row) {
				removed++
				continue
			}
			kept = append(kept, row)
		}
		// clear the tail so removed rows can be collected
		for i := len(kept); i < len(t.rows); i++ {
			t.rows[i] = nil
		}
		t.rows = kept
		return removed > 0
	})
	return removed, err
}

// Drop removes the table and its persisted copy.
func (c *Collection) Drop(ctx context.Context) error {
	if err := c.db.CheckOpen(); err != nil {
		return err
	}
	if err := c.db.dropTable(ctx, c.name); err != nil {
		return err
	}
	c.db.Forget(c.name)
	return nil
}
