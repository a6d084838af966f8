package interfaces

import (
	"context"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
)

// Backend is the retrieval capability the analytics core needs from storage
type Backend interface {
	// Retrieve returns the posts matching the query, ordered and paginated
	Retrieve(ctx context.Context, q *Query) ([]entities.Post, error)

	// Count returns the number of posts matching the predicates
	Count(ctx context.Context, where []Predicate, params []any) (int64, error)
}

// Database is a Backend with an explicit lifecycle. The owner connects it once,
// hands it to request handlers, and disconnects it on shutdown.
type Database interface {
	Backend

	// Connect establishes a connection to the database
	Connect(ctx context.Context) error

	// Disconnect closes the database connection
	Disconnect(ctx context.Context) error

	// IsHealthy checks if the database connection is healthy
	IsHealthy(ctx context.Context) bool

	// Migrate creates the posts table (or collection indexes)
	Migrate(ctx context.Context) error

	// Seed inserts posts
	Seed(ctx context.Context, posts []entities.Post) error
}
