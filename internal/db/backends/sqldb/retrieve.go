package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/db/query"
)

// Retrieve returns the posts matching q, sorted and paginated by the engine
func (d *Database) Retrieve(ctx context.Context, q *interfaces.Query) ([]entities.Post, error) {
	if q == nil {
		q = &interfaces.Query{}
	}
	db := d.DB()
	if db == nil {
		return nil, interfaces.NewRetrievalError("retrieve", interfaces.ErrDatabaseNotConnected)
	}

	stmt, args, err := d.selectSQL(q)
	if err != nil {
		return nil, interfaces.NewRetrievalError("retrieve", err)
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, interfaces.NewRetrievalError("retrieve", err)
	}
	defer rows.Close()

	posts := []entities.Post{}
	for rows.Next() {
		var p entities.Post
		if err := rows.Scan(p.ScanTargets()...); err != nil {
			return nil, interfaces.NewRetrievalError("scan", err)
		}
		p.Timestamp = p.Timestamp.UTC()
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, interfaces.NewRetrievalError("retrieve", err)
	}
	return posts, nil
}

// Count returns the number of posts matching where
func (d *Database) Count(ctx context.Context, where []interfaces.Predicate, params []any) (int64, error) {
	db := d.DB()
	if db == nil {
		return 0, interfaces.NewRetrievalError("count", interfaces.ErrDatabaseNotConnected)
	}

	clause, n, err := query.WhereClause(where, d.dialect.Placeholder)
	if err != nil {
		return 0, interfaces.NewRetrievalError("count", err)
	}
	args := params
	if args == nil {
		args = query.Params(where)
	}
	if len(args) != n {
		return 0, interfaces.NewRetrievalError("count", fmt.Errorf("%w: %d placeholders, %d params", interfaces.ErrInvalidQuery, n, len(args)))
	}

	stmt := "SELECT COUNT(*) FROM " + d.dialect.from()
	if clause != "" {
		stmt += " " + clause
	}

	var total int64
	if err := db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, interfaces.NewRetrievalError("count", err)
	}
	return total, nil
}

func (d *Database) selectSQL(q *interfaces.Query) (string, []any, error) {
	clause, n, err := query.WhereClause(q.Where, d.dialect.Placeholder)
	if err != nil {
		return "", nil, err
	}

	args := append([]any(nil), q.Params...)
	if q.Params == nil {
		args = query.Params(q.Where)
	}
	if len(args) != n {
		return "", nil, fmt.Errorf("%w: %d placeholders, %d params", interfaces.ErrInvalidQuery, n, len(args))
	}

	order := q.OrderBy
	if len(order) == 0 {
		order = interfaces.DefaultOrder
	}
	orderClause, err := query.OrderClause(order)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(entities.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(d.dialect.from())
	if clause != "" {
		b.WriteString(" ")
		b.WriteString(clause)
	}
	b.WriteString(" ")
	b.WriteString(orderClause)

	if q.Limit > 0 {
		b.WriteString(" LIMIT " + d.dialect.Placeholder(n+1) + " OFFSET " + d.dialect.Placeholder(n+2))
		args = append(args, q.Limit, q.Offset)
	} else if q.Offset > 0 {
		b.WriteString(" OFFSET " + d.dialect.Placeholder(n+1))
		args = append(args, q.Offset)
	}

	return b.String(), args, nil
}
