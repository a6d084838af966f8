package memory

import (
	"context"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/db/query"
)

// Retrieve returns the posts matching q, sorted and paginated
func (db *Database) Retrieve(ctx context.Context, q *interfaces.Query) ([]entities.Post, error) {
	if q == nil {
		q = &interfaces.Query{}
	}
	if err := ctx.Err(); err != nil {
		return nil, interfaces.NewRetrievalError("retrieve", err)
	}

	matched, err := db.match(q.Where)
	if err != nil {
		return nil, err
	}

	order := q.OrderBy
	if len(order) == 0 {
		order = interfaces.DefaultOrder
	}
	query.ApplySort(matched, order)

	return query.ApplyPagination(matched, q.Limit, q.Offset), nil
}

// Count returns the number of posts matching where
func (db *Database) Count(ctx context.Context, where []interfaces.Predicate, params []any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, interfaces.NewRetrievalError("count", err)
	}

	matched, err := db.match(where)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// match copies out every post satisfying where
func (db *Database) match(where []interfaces.Predicate) ([]entities.Post, error) {
	for _, p := range where {
		if !query.IsAllowedColumn(p.Column) {
			return nil, interfaces.NewRetrievalError("match", interfaces.ErrInvalidQuery)
		}
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	if !db.connected {
		return nil, interfaces.NewRetrievalError("match", interfaces.ErrDatabaseNotConnected)
	}

	matched := make([]entities.Post, 0, len(db.posts))
	for _, p := range db.posts {
		if query.Matches(&p, where) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}
