package interfaces

import (
	"errors"
)

// Op is the kind of a column predicate
type Op string

const (
	// OpIn matches when the column equals one of Values
	OpIn Op = "IN"
	// OpBetween matches when Values[0] <= column <= Values[1]
	OpBetween Op = "BETWEEN"
)

// Predicate is one column-level matching condition. Predicates compose with AND only.
type Predicate struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Values []any  `json:"values"`
}

// OrderBy represents sorting configuration
type OrderBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

// Query is a retrieval request: predicates, their positional parameters, ordering and a page window.
// Params holds the values of Where flattened in predicate order, for engines that bind by position.
type Query struct {
	Where   []Predicate `json:"where,omitempty"`
	Params  []any       `json:"params,omitempty"`
	OrderBy []OrderBy   `json:"order_by,omitempty"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

// DefaultOrder is timestamp descending with post_id as a deterministic tiebreak
var DefaultOrder = []OrderBy{
	{Field: "timestamp", Direction: "desc"},
	{Field: "post_id", Direction: "asc"},
}

// Common database errors
var (
	ErrDatabaseNotConnected = errors.New("database not connected")
	ErrInvalidQuery         = errors.New("invalid query")
)

// RetrievalError reports that a backend could not answer a predicate query
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return "retrieval failed: " + e.Op + ": " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// NewRetrievalError wraps err unless it already is a RetrievalError
func NewRetrievalError(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *RetrievalError
	if errors.As(err, &re) {
		return err
	}
	return &RetrievalError{Op: op, Err: err}
}
