package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Collection is a PostgreSQL table of JSONB documents.
type Collection struct {
	db    *Database
	name  string
	table string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Database returns the owning database.
func (c *Collection) Database() store.Database { return c.db }

// Insert writes objs in one transaction.
func (c *Collection) Insert(ctx context.Context, objs ...query.Object) error {
	if len(objs) == 0 {
		return nil
	}
	if err := c.db.CheckOpen(); err != nil {
		return err
	}

	docs := make([]string, len(objs))
	for i, obj := range objs {
		b, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("object %d: %v: %w", i, err, store.ErrUnsupportedValue)
		}
		docs[i] = string(b)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (doc) VALUES (?::jsonb)`, c.table)
	err := c.db.DB(ctx).Transaction(func(tx *gorm.DB) error {
		for _, doc := range docs {
			if err := tx.Exec(stmt, doc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.name, translateError(err))
	}
	return nil
}

// Query counts and selects the matching rows in row_id order. Limit and
// offset become LIMIT and OFFSET unless the query sorts.
func (c *Collection) Query(ctx context.Context, q query.Query) (*query.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.db.CheckOpen(); err != nil {
		return nil, err
	}

	cond, args, err := buildWhere(q.Where)
	if err != nil {
		return nil, err
	}

	var total int64
	err = c.db.DB(ctx).Raw(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, c.table, cond), args...).Scan(&total).Error
	if err != nil {
		if isUndefinedTable(err) {
			return &query.Result{Query: q, Rows: []query.Object{}}, nil
		}
		return nil, fmt.Errorf("failed to count %s: %w", c.name, translateError(err))
	}

	stmt := fmt.Sprintf(`SELECT doc FROM %s WHERE %s ORDER BY row_id`, c.table, cond)
	pushdown := len(q.Sort) == 0
	if pushdown {
		if q.Limit > 0 {
			stmt += fmt.Sprintf(` LIMIT %d`, q.Limit)
		}
		if q.Offset > 0 {
			stmt += fmt.Sprintf(` OFFSET %d`, q.Offset)
		}
	}

	var docs []string
	if err := c.db.DB(ctx).Raw(stmt, args...).Scan(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, translateError(err))
	}
	rows := make([]query.Object, 0, len(docs))
	for _, doc := range docs {
		obj, err := query.UnmarshalObject([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("failed to decode row of %s: %w", c.name, err)
		}
		rows = append(rows, obj)
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

// Find returns up to limit rows matching where.
func (c *Collection) Find(ctx context.Context, where query.Where, limit int) (*query.Result, error) {
	return c.Query(ctx, query.Query{From: c.name, Where: where, Limit: limit})
}

// Delete removes every row matching any of objs with a single statement.
func (c *Collection) Delete(ctx context.Context, objs ...query.Object) (int, error) {
	if len(objs) == 0 {
		return 0, nil
	}
	filters := make([]query.Where, len(objs))
	for i, obj := range objs {
		filters[i] = query.FilterFromObject(obj)
	}
	cond, args, err := buildAny(filters)
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, cond, args)
}

// DeleteWhere deletes the rows matching where in one statement.
func (c *Collection) DeleteWhere(ctx context.Context, where query.Where, missingOK bool) (int, error) {
	cond, args, err := buildWhere(where)
	if err != nil {
		return 0, err
	}
	n, err := c.exec(ctx, cond, args)
	if err != nil {
		return 0, err
	}
	if n == 0 && !missingOK {
		return 0, fmt.Errorf("no rows in %s match %v: %w", c.name, where, store.ErrNotFound)
	}
	return n, nil
}

func (c *Collection) exec(ctx context.Context, cond string, args []any) (int, error) {
	if err := c.db.CheckOpen(); err != nil {
		return 0, err
	}
	res := c.db.DB(ctx).Exec(fmt.Sprintf(`DELETE FROM %s WHERE %s`, c.table, cond), args...)
	if res.Error != nil {
		if isUndefinedTable(res.Error) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to delete from %s: %w", c.name, translateError(res.Error))
	}
	return int(res.RowsAffected), nil
}

// Drop drops the collection table.
func (c *Collection) Drop(ctx context.Context) error {
	if err := c.db.CheckOpen(); err != nil {
		return err
	}
	if err := c.db.dropTable(ctx, c.name); err != nil {
		return fmt.Errorf("failed to drop %s: %w", c.name, err)
	}
	c.db.Forget(c.name)
	return nil
}
