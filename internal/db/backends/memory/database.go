package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
)

// Database implements the Database interface for in-memory storage
type Database struct {
	mu        sync.RWMutex
	posts     map[string]entities.Post // postID -> post
	connected bool
	logger    *zap.SugaredLogger
}

// NewDatabase creates a new in-memory database
func NewDatabase(logger *zap.SugaredLogger) *Database {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Database{
		posts:  make(map[string]entities.Post),
		logger: logger,
	}
}

// Connect establishes a connection to the database
func (db *Database) Connect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = true
	db.logger.Infow("Connected to in-memory database")
	return nil
}

// Disconnect closes the database connection and drops all data
func (db *Database) Disconnect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = false
	db.posts = make(map[string]entities.Post)
	db.logger.Infow("Disconnected from in-memory database")
	return nil
}

// IsHealthy checks if the database connection is healthy
func (db *Database) IsHealthy(ctx context.Context) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.connected
}

// Migrate is a no-op beyond the connection check; the post table always exists
func (db *Database) Migrate(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if !db.connected {
		return interfaces.ErrDatabaseNotConnected
	}
	return nil
}

// Seed inserts posts, replacing any existing post with the same ID
func (db *Database) Seed(ctx context.Context, posts []entities.Post) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.connected {
		return interfaces.ErrDatabaseNotConnected
	}

	for i, p := range posts {
		if p.PostID == "" {
			return fmt.Errorf("post %d: empty post_id", i)
		}
		p.Timestamp = p.Timestamp.UTC()
		db.posts[p.PostID] = p
	}

	db.logger.Infow("Seeded posts", "count", len(posts), "table", entities.TableName)
	return nil
}

// Len returns the number of stored posts
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.posts)
}
