package analytics

import "fmt"

// AggregationFault reports a post that breaks an invariant the aggregate relies on
type AggregationFault struct {
	Aggregate string
	PostID    string
	Reason    string
}

func (e *AggregationFault) Error() string {
	if e.PostID == "" {
		return fmt.Sprintf("aggregation %s failed: %s", e.Aggregate, e.Reason)
	}
	return fmt.Sprintf("aggregation %s failed on post %s: %s", e.Aggregate, e.PostID, e.Reason)
}

// AggregateError names the aggregate that failed inside a fan-out
type AggregateError struct {
	Aggregate string
	Err       error
}

func (e *AggregateError) Error() string {
	return e.Aggregate + ": " + e.Err.Error()
}

func (e *AggregateError) Unwrap() error {
	return e.Err
}

func fault(aggregate, postID, reason string) error {
	return &AggregationFault{Aggregate: aggregate, PostID: postID, Reason: reason}
}
