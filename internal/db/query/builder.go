package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/filter"
)

// Filterable columns. These are the only identifiers that ever reach generated SQL.
const (
	ColumnPlatform       = "platform"
	ColumnBrand          = "brand_name"
	ColumnCampaign       = "campaign_name"
	ColumnSentiment      = "sentiment_label"
	ColumnLanguage       = "language"
	ColumnLocation       = "location"
	ColumnTimestamp      = "timestamp"
	ColumnEngagementRate = "engagement_rate"
	ColumnPostID         = "post_id"
	ColumnImpressions    = "impressions"
)

var allowedColumns = map[string]bool{
	ColumnPlatform:       true,
	ColumnBrand:          true,
	ColumnCampaign:       true,
	ColumnSentiment:      true,
	ColumnLanguage:       true,
	ColumnLocation:       true,
	ColumnTimestamp:      true,
	ColumnEngagementRate: true,
	ColumnPostID:         true,
	ColumnImpressions:    true,
}

// IsAllowedColumn reports whether column may appear in a predicate or ORDER BY
func IsAllowedColumn(column string) bool {
	return allowedColumns[column]
}

// Build translates a normalized filter into predicates and their flattened parameters.
// Predicates are emitted in a fixed order so equal filters yield identical output.
func Build(f filter.Filter) ([]interfaces.Predicate, []any) {
	var preds []interfaces.Predicate

	addSet := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		vals := make([]any, len(values))
		for i, v := range values {
			vals[i] = v
		}
		preds = append(preds, interfaces.Predicate{Column: column, Op: interfaces.OpIn, Values: vals})
	}

	addSet(ColumnPlatform, f.Platforms)
	addSet(ColumnBrand, f.Brands)
	addSet(ColumnCampaign, f.Campaigns)
	addSet(ColumnSentiment, f.Sentiments)
	addSet(ColumnLanguage, f.Languages)

	if f.DateRange != nil {
		preds = append(preds, interfaces.Predicate{
			Column: ColumnTimestamp,
			Op:     interfaces.OpBetween,
			Values: []any{f.DateRange.Start, f.DateRange.End},
		})
	}
	if f.EngagementRange != nil {
		preds = append(preds, interfaces.Predicate{
			Column: ColumnEngagementRate,
			Op:     interfaces.OpBetween,
			Values: []any{f.EngagementRange.Min, f.EngagementRange.Max},
		})
	}

	addSet(ColumnLocation, f.Locations)

	return preds, Params(preds)
}

// Params flattens predicate values in predicate order
func Params(preds []interfaces.Predicate) []any {
	var params []any
	for _, p := range preds {
		params = append(params, p.Values...)
	}
	return params
}

// NewQuery builds a full retrieval request for f, ordered newest first
func NewQuery(f filter.Filter) *interfaces.Query {
	where, params := Build(f)
	return &interfaces.Query{
		Where:   where,
		Params:  params,
		OrderBy: interfaces.DefaultOrder,
		Limit:   f.Limit,
		Offset:  f.Offset,
	}
}

// Placeholder renders the n-th (1-based) positional parameter marker
type Placeholder func(n int) string

// Dollar renders PostgreSQL style markers ($1, $2, ...)
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Question renders ? markers
func Question(int) string { return "?" }

// WhereClause renders preds as a SQL WHERE clause using ph for parameters.
// It returns the clause ("" when preds is empty) and the number of parameters consumed.
func WhereClause(preds []interfaces.Predicate, ph Placeholder) (string, int, error) {
	if len(preds) == 0 {
		return "", 0, nil
	}

	n := 0
	next := func() string {
		n++
		return ph(n)
	}

	conds := make([]string, 0, len(preds))
	for _, p := range preds {
		if !allowedColumns[p.Column] {
			return "", 0, fmt.Errorf("%w: column %q", interfaces.ErrInvalidQuery, p.Column)
		}
		switch p.Op {
		case interfaces.OpIn:
			if len(p.Values) == 0 {
				conds = append(conds, "1 = 0")
				continue
			}
			marks := make([]string, len(p.Values))
			for i := range p.Values {
				marks[i] = next()
			}
			conds = append(conds, fmt.Sprintf("%s IN (%s)", p.Column, strings.Join(marks, ", ")))
		case interfaces.OpBetween:
			if len(p.Values) != 2 {
				return "", 0, fmt.Errorf("%w: %s BETWEEN needs 2 values, got %d", interfaces.ErrInvalidQuery, p.Column, len(p.Values))
			}
			lo := next()
			hi := next()
			conds = append(conds, fmt.Sprintf("%s BETWEEN %s AND %s", p.Column, lo, hi))
		default:
			return "", 0, fmt.Errorf("%w: operator %q", interfaces.ErrInvalidQuery, p.Op)
		}
	}

	return "WHERE " + strings.Join(conds, " AND "), n, nil
}

// OrderClause renders an ORDER BY clause. Unknown columns are rejected.
func OrderClause(order []interfaces.OrderBy) (string, error) {
	if len(order) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(order))
	for _, o := range order {
		if !allowedColumns[o.Field] {
			return "", fmt.Errorf("%w: order column %q", interfaces.ErrInvalidQuery, o.Field)
		}
		dir := "ASC"
		if strings.EqualFold(o.Direction, "desc") {
			dir = "DESC"
		}
		parts = append(parts, o.Field+" "+dir)
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// Matches checks if a post satisfies every predicate
func Matches(post *entities.Post, preds []interfaces.Predicate) bool {
	for _, p := range preds {
		if !matchesPredicate(post, p) {
			return false
		}
	}
	return true
}

func matchesPredicate(post *entities.Post, p interfaces.Predicate) bool {
	fieldValue, ok := post.Field(p.Column)
	if !ok {
		return false
	}

	switch p.Op {
	case interfaces.OpIn:
		for _, v := range p.Values {
			if c, ok := compare(fieldValue, v); ok && c == 0 {
				return true
			}
		}
		return false
	case interfaces.OpBetween:
		if len(p.Values) != 2 {
			return false
		}
		lo, okLo := compare(fieldValue, p.Values[0])
		hi, okHi := compare(fieldValue, p.Values[1])
		return okLo && okHi && lo >= 0 && hi <= 0
	}
	return false
}

// compare orders a against other. The second result is false when the types are not comparable.
func compare(a, other any) (int, bool) {
	switch av := a.(type) {
	case int64:
		if bv, ok := toFloat(other); ok {
			return cmpFloat(float64(av), bv), true
		}
	case float64:
		if bv, ok := toFloat(other); ok {
			return cmpFloat(av, bv), true
		}
	case string:
		if bv, ok := other.(string); ok {
			return strings.Compare(av, bv), true
		}
	case time.Time:
		if bv, ok := other.(time.Time); ok {
			return av.Compare(bv), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

// ApplySort sorts posts in place according to the OrderBy specification
func ApplySort(posts []entities.Post, orderBy []interfaces.OrderBy) {
	if len(orderBy) == 0 {
		return
	}
	sort.SliceStable(posts, func(i, j int) bool {
		for _, order := range orderBy {
			a, _ := posts[i].Field(order.Field)
			b, _ := posts[j].Field(order.Field)
			c, _ := compare(a, b)
			if c == 0 {
				continue
			}
			if strings.EqualFold(order.Direction, "desc") {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// ApplyPagination applies limit and offset to the posts. A non-positive limit means no limit.
func ApplyPagination(posts []entities.Post, limit, offset int) []entities.Post {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(posts) {
		return []entities.Post{}
	}

	end := len(posts)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return posts[offset:end]
}
