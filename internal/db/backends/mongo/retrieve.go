package mongo

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/db/query"
)

// FilterDocument translates predicates into a MongoDB filter. More than one predicate
// is wrapped in $and so a column may be constrained twice.
func FilterDocument(preds []interfaces.Predicate) (bson.D, error) {
	clauses := make([]bson.D, 0, len(preds))
	for _, p := range preds {
		if !query.IsAllowedColumn(p.Column) {
			return nil, fmt.Errorf("%w: column %q", interfaces.ErrInvalidQuery, p.Column)
		}
		switch p.Op {
		case interfaces.OpIn:
			values := p.Values
			if values == nil {
				values = []any{}
			}
			clauses = append(clauses, bson.D{{Key: p.Column, Value: bson.D{{Key: "$in", Value: values}}}})
		case interfaces.OpBetween:
			if len(p.Values) != 2 {
				return nil, fmt.Errorf("%w: %s BETWEEN needs 2 values", interfaces.ErrInvalidQuery, p.Column)
			}
			clauses = append(clauses, bson.D{{Key: p.Column, Value: bson.D{
				{Key: "$gte", Value: p.Values[0]},
				{Key: "$lte", Value: p.Values[1]},
			}}})
		default:
			return nil, fmt.Errorf("%w: operator %q", interfaces.ErrInvalidQuery, p.Op)
		}
	}

	switch len(clauses) {
	case 0:
		return bson.D{}, nil
	case 1:
		return clauses[0], nil
	}
	return bson.D{{Key: "$and", Value: clauses}}, nil
}

// SortDocument translates an ordering into a MongoDB sort specification
func SortDocument(order []interfaces.OrderBy) (bson.D, error) {
	if len(order) == 0 {
		order = interfaces.DefaultOrder
	}
	doc := make(bson.D, 0, len(order))
	for _, o := range order {
		if !query.IsAllowedColumn(o.Field) {
			return nil, fmt.Errorf("%w: order column %q", interfaces.ErrInvalidQuery, o.Field)
		}
		dir := 1
		if strings.EqualFold(o.Direction, "desc") {
			dir = -1
		}
		doc = append(doc, bson.E{Key: o.Field, Value: dir})
	}
	return doc, nil
}

// Retrieve returns the posts matching q, sorted and paginated by the server
func (d *Database) Retrieve(ctx context.Context, q *interfaces.Query) ([]entities.Post, error) {
	if q == nil {
		q = &interfaces.Query{}
	}
	coll := d.collection()
	if coll == nil {
		return nil, interfaces.NewRetrievalError("retrieve", interfaces.ErrDatabaseNotConnected)
	}

	filter, err := FilterDocument(q.Where)
	if err != nil {
		return nil, interfaces.NewRetrievalError("retrieve", err)
	}
	sort, err := SortDocument(q.OrderBy)
	if err != nil {
		return nil, interfaces.NewRetrievalError("retrieve", err)
	}

	opts := options.Find().SetSort(sort)
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, interfaces.NewRetrievalError("retrieve", err)
	}
	defer cursor.Close(ctx)

	posts := []entities.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, interfaces.NewRetrievalError("decode", err)
	}
	for i := range posts {
		posts[i].Timestamp = posts[i].Timestamp.UTC()
	}
	return posts, nil
}

// Count returns the number of posts matching where
func (d *Database) Count(ctx context.Context, where []interfaces.Predicate, _ []any) (int64, error) {
	coll := d.collection()
	if coll == nil {
		return 0, interfaces.NewRetrievalError("count", interfaces.ErrDatabaseNotConnected)
	}

	filter, err := FilterDocument(where)
	if err != nil {
		return 0, interfaces.NewRetrievalError("count", err)
	}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, interfaces.NewRetrievalError("count", err)
	}
	return total, nil
}
