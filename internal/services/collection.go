package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/showcase/internal/query"
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Compile-time interface guard.
var _ query.Backend[struct{}] = (*Collection[struct{}])(nil)

// Collection is a query.Backend over one SQLite table. Column names come
// from the schema, never from request input; values are always bound as
// parameters.
type Collection[T any] struct {
	db       *sql.DB
	table    string
	columns  string
	scan     func(RowScanner) (T, error)
	base     string
	baseArgs []any
}

// NewCollection returns a Collection reading columns from table and
// decoding each row with scan.
func NewCollection[T any](db *sql.DB, table, columns string, scan func(RowScanner) (T, error)) *Collection[T] {
	return &Collection[T]{db: db, table: table, columns: columns, scan: scan}
}

// Where returns a copy of c restricted by a fixed predicate that is ANDed
// with every query, such as "status = ?".
func (c *Collection[T]) Where(predicate string, args ...any) *Collection[T] {
	cp := *c
	cp.base = predicate
	cp.baseArgs = args
	return &cp
}

func (c *Collection[T]) Count(ctx context.Context, conds []query.Condition) (int, error) {
	where, args := c.where(conds)
	//nolint:gosec // table and columns are fixed by the repository
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, c.table, where)

	var n int
	if err := c.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return n, nil
}

func (c *Collection[T]) Fetch(ctx context.Context, conds []query.Condition, sort query.Sort, offset, limit int) ([]T, error) {
	where, args := c.where(conds)
	dir := "ASC"
	if sort.Direction == query.Desc {
		dir = "DESC"
	}
	//nolint:gosec // identifiers come from the schema, dir is validated above
	q := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s %s, %s %s LIMIT ? OFFSET ?`,
		c.columns, c.table, where,
		orderTerm(sort.Field), dir, orderTerm(sort.Key), dir,
	)
	args = append(args, limit, offset)

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	defer rows.Close()

	out := make([]T, 0, limit)
	for rows.Next() {
		rec, err := c.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", c.table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.table, err)
	}
	return out, nil
}

func (c *Collection[T]) where(conds []query.Condition) (string, []any) {
	clauses := make([]string, 0, len(conds)+1)
	args := make([]any, 0, len(conds)+len(c.baseArgs))
	if c.base != "" {
		clauses = append(clauses, "("+c.base+")")
		args = append(args, c.baseArgs...)
	}
	for _, cond := range conds {
		clause, arg := conditionSQL(cond)
		clauses = append(clauses, clause)
		if arg != nil {
			args = append(args, arg)
		}
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// conditionSQL renders one condition. Pattern operators fold case with
// LOWER on both sides and escape LIKE wildcards in the value.
func conditionSQL(cond query.Condition) (string, any) {
	col := cond.Field.ColumnName()
	switch cond.Operator {
	case query.OpEmpty:
		return fmt.Sprintf("(%s IS NULL OR %s = '')", col, col), nil
	case query.OpContains:
		return likeClause(col), "%" + escapeLike(strings.ToLower(cond.Value)) + "%"
	case query.OpStartsWith:
		return likeClause(col), escapeLike(strings.ToLower(cond.Value)) + "%"
	case query.OpEndsWith:
		return likeClause(col), "%" + escapeLike(strings.ToLower(cond.Value))
	}

	// equals
	if cond.Field.Kind == query.KindText && cond.Field.CaseInsensitive {
		return col + " = ? COLLATE NOCASE", cond.Arg
	}
	return col + " = ?", bindValue(cond.Arg)
}

func likeClause(col string) string {
	return fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func orderTerm(f query.Field) string {
	if f.Kind == query.KindText && f.CaseInsensitive {
		return f.ColumnName() + " COLLATE NOCASE"
	}
	return f.ColumnName()
}

// bindValue converts parsed filter arguments to their stored form.
func bindValue(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return formatTime(x)
	}
	return v
}
