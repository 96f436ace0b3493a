package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Collection is a SQLite table holding one JSON document per row.
type Collection struct {
	db    *Database
	name  string
	table string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Database returns the owning database.
func (c *Collection) Database() store.Database { return c.db }

// Insert writes objs in a single transaction.
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

	tx, err := c.db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (doc) VALUES (?)`, c.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert into %s: %w", c.name, err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert into %s: %w", c.name, err)
		}
	}
	return tx.Commit()
}

// Query pushes the filter down and, when no sort is requested, the window
// as well.
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

	var total int
	err = c.db.sqlDB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, c.table, cond), args...).Scan(&total)
	if err != nil {
		if isNoSuchTable(err) {
			return &query.Result{Query: q, Rows: []query.Object{}}, nil
		}
		return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
	}

	stmt := fmt.Sprintf(`SELECT doc FROM %s WHERE %s ORDER BY rowid`, c.table, cond)
	pushdown := len(q.Sort) == 0
	if pushdown && (q.Limit > 0 || q.Offset > 0) {
		limit := q.Limit
		if limit == 0 {
			limit = -1
		}
		stmt += ` LIMIT ? OFFSET ?`
		args = append(args, limit, q.Offset)
	}

	rows, err := c.db.sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	objs, err := scanDocs(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.name, err)
	}

	if !pushdown {
		query.SortRows(objs, q.Sort)
		objs = query.Window(objs, q.Offset, q.Limit)
	}
	return &query.Result{
		Query:   q,
		NumRows: total,
		Rows:    query.Project(objs, q.Select),
	}, nil
}

// Find returns up to limit rows matching where.
func (c *Collection) Find(ctx context.Context, where query.Where, limit int) (*query.Result, error) {
	return c.Query(ctx, query.Query{From: c.name, Where: where, Limit: limit})
}

// Delete removes every row matching any of objs in one statement, so a row
// matched by several objects is counted once.
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
	res, err := c.db.sqlDB.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s`, c.table, cond), args...)
	if err != nil {
		if isNoSuchTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
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

func scanDocs(rows *sql.Rows) ([]query.Object, error) {
	defer rows.Close()
	out := []query.Object{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		obj, err := query.UnmarshalObject([]byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

func isNoSuchTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
