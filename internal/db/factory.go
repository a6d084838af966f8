package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard-backend/internal/db/backends/memory"
	"github.com/pulseboard/pulseboard-backend/internal/db/backends/mongo"
	"github.com/pulseboard/pulseboard-backend/internal/db/backends/sqldb"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
)

// Backend names accepted by NewDatabase
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
	BackendMongo      = "mongo"
)

// Config holds database configuration
type Config struct {
	Backend         string // "memory", "postgres", "clickhouse", "mongo"
	PostgresDSN     string
	ClickHouseDSN   string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	MaxOpenConns    int // Maximum open connections (for SQL backends)
	MaxIdleConns    int // Maximum idle connections (for SQL backends)
	ConnMaxLifetime time.Duration
}

// NewDatabase creates a new database instance based on configuration.
// The returned database is not connected yet.
func NewDatabase(config *Config, logger *zap.SugaredLogger) (interfaces.Database, error) {
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	opts := sqldb.Options{
		MaxOpenConns:    config.MaxOpenConns,
		MaxIdleConns:    config.MaxIdleConns,
		ConnMaxLifetime: config.ConnMaxLifetime,
	}

	switch config.Backend {
	case "", BackendMemory:
		logger.Infow("Using in-memory database")
		return memory.NewDatabase(logger), nil
	case BackendPostgres:
		if config.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires a dsn")
		}
		logger.Infow("Using postgres database")
		return sqldb.NewDatabase(sqldb.Postgres, config.PostgresDSN, opts, logger), nil
	case BackendClickHouse:
		if config.ClickHouseDSN == "" {
			return nil, fmt.Errorf("clickhouse backend requires a dsn")
		}
		logger.Infow("Using clickhouse database")
		return sqldb.NewDatabase(sqldb.ClickHouse, config.ClickHouseDSN, opts, logger), nil
	case BackendMongo:
		if config.MongoURI == "" {
			return nil, fmt.Errorf("mongo backend requires a uri")
		}
		logger.Infow("Using mongo database")
		return mongo.NewDatabase(mongo.Config{
			URI:        config.MongoURI,
			Database:   config.MongoDatabase,
			Collection: config.MongoCollection,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", config.Backend)
	}
}

// MustNewDatabase creates a new database instance and panics on error
func MustNewDatabase(config *Config, logger *zap.SugaredLogger) interfaces.Database {
	db, err := NewDatabase(config, logger)
	if err != nil {
		panic(fmt.Sprintf("failed to create database: %v", err))
	}
	return db
}

// NewInMemoryDatabase creates a new in-memory database instance
func NewInMemoryDatabase(logger *zap.SugaredLogger) *memory.Database {
	return memory.NewDatabase(logger)
}

// ConnectAndMigrate connects to the database and runs migrations
func ConnectAndMigrate(ctx context.Context, db interfaces.Database, migrate bool) error {
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if !db.IsHealthy(ctx) {
		return fmt.Errorf("database health check failed")
	}

	if !migrate {
		return nil
	}
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
