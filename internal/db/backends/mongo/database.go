package mongo

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
)

// Config selects the deployment and collection holding posts
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Database implements interfaces.Database on a MongoDB collection
type Database struct {
	cfg    Config
	logger *zap.SugaredLogger

	mu     sync.RWMutex
	client *mongo.Client
	coll   *mongo.Collection
}

// NewDatabase creates a database that connects to cfg.URI on Connect
func NewDatabase(cfg Config, logger *zap.SugaredLogger) *Database {
	if cfg.Collection == "" {
		cfg.Collection = entities.TableName
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Database{cfg: cfg, logger: logger}
}

// Connect dials the deployment and pings the primary
func (d *Database) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg.URI == "" {
		return fmt.Errorf("mongo: empty uri")
	}
	if d.cfg.Database == "" {
		return fmt.Errorf("mongo: empty database name")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(d.cfg.URI))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	d.client = client
	d.coll = client.Database(d.cfg.Database).Collection(d.cfg.Collection)
	d.logger.Infow("Connected to mongo", "database", d.cfg.Database, "collection", d.cfg.Collection)
	return nil
}

// Disconnect closes the client
func (d *Database) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}
	err := d.client.Disconnect(ctx)
	d.client = nil
	d.coll = nil
	d.logger.Infow("Disconnected from mongo")
	return err
}

// IsHealthy checks if the database connection is healthy
func (d *Database) IsHealthy(ctx context.Context) bool {
	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()

	if client == nil {
		return false
	}
	return client.Ping(ctx, readpref.Primary()) == nil
}

// Migrate creates the indexes used by retrieval
func (d *Database) Migrate(ctx context.Context) error {
	coll := d.collection()
	if coll == nil {
		return interfaces.ErrDatabaseNotConnected
	}

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "post_id", Value: 1}}},
		{Keys: bson.D{{Key: "platform", Value: 1}}},
		{Keys: bson.D{{Key: "brand_name", Value: 1}}},
		{Keys: bson.D{{Key: "campaign_name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Seed upserts posts by post_id
func (d *Database) Seed(ctx context.Context, posts []entities.Post) error {
	if len(posts) == 0 {
		return nil
	}
	coll := d.collection()
	if coll == nil {
		return interfaces.ErrDatabaseNotConnected
	}

	models := make([]mongo.WriteModel, len(posts))
	for i := range posts {
		p := posts[i]
		p.Timestamp = p.Timestamp.UTC()
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "post_id", Value: p.PostID}}).
			SetReplacement(p).
			SetUpsert(true)
	}

	res, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	d.logger.Infow("Seeded posts", "upserted", res.UpsertedCount, "modified", res.ModifiedCount)
	return nil
}

func (d *Database) collection() *mongo.Collection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.coll
}
