package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard-backend/internal/db/backends/memory"
	"github.com/pulseboard/pulseboard-backend/internal/db/backends/mongo"
	"github.com/pulseboard/pulseboard-backend/internal/db/backends/sqldb"
	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/db/query"
	"github.com/pulseboard/pulseboard-backend/internal/filter"
)

func TestInMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()

	db := NewInMemoryDatabase(logger.Sugar())
	require.NoError(t, ConnectAndMigrate(ctx, db, true))
	defer db.Disconnect(ctx)

	require.True(t, db.IsHealthy(ctx))
	require.NoError(t, db.Seed(ctx, PostFixtures()))
	assert.Equal(t, len(PostFixtures()), db.Len())

	t.Run("Retrieve newest first", func(t *testing.T) {
		posts, err := db.Retrieve(ctx, query.NewQuery(filter.Normalize(filter.RawFilter{})))
		require.NoError(t, err)
		require.Len(t, posts, len(PostFixtures()))
		for i := 1; i < len(posts); i++ {
			assert.False(t, posts[i].Timestamp.After(posts[i-1].Timestamp))
		}
		assert.Equal(t, "mock_001", posts[0].PostID)
	})

	t.Run("Filter by platform and sentiment", func(t *testing.T) {
		f := filter.Normalize(filter.RawFilter{
			Platforms:  []string{"Instagram"},
			Sentiments: []string{entities.SentimentNeutral},
		})
		posts, err := db.Retrieve(ctx, query.NewQuery(f))
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "mock_006", posts[0].PostID)
	})

	t.Run("Count ignores pagination", func(t *testing.T) {
		f := filter.Normalize(filter.RawFilter{Brands: []string{"Google", "Samsung"}, Limit: "1"})
		where, params := query.Build(f)

		total, err := db.Count(ctx, where, params)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)

		page, err := db.Retrieve(ctx, query.NewQuery(f))
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})

	t.Run("Offset past end", func(t *testing.T) {
		f := filter.Normalize(filter.RawFilter{Offset: "100"})
		posts, err := db.Retrieve(ctx, query.NewQuery(f))
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}

func TestNewDatabase(t *testing.T) {
	testCases := []struct {
		name     string
		config   *Config
		expected any
		wantErr  bool
	}{
		{name: "default", config: nil, expected: &memory.Database{}},
		{name: "memory", config: &Config{Backend: BackendMemory}, expected: &memory.Database{}},
		{name: "postgres", config: &Config{Backend: BackendPostgres, PostgresDSN: "postgres://localhost/pulse"}, expected: &sqldb.Database{}},
		{name: "clickhouse", config: &Config{Backend: BackendClickHouse, ClickHouseDSN: "clickhouse://localhost:9000/default"}, expected: &sqldb.Database{}},
		{name: "mongo", config: &Config{Backend: BackendMongo, MongoURI: "mongodb://localhost:27017", MongoDatabase: "pulse"}, expected: &mongo.Database{}},
		{name: "postgres without dsn", config: &Config{Backend: BackendPostgres}, wantErr: true},
		{name: "unknown", config: &Config{Backend: "sqlite"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, err := NewDatabase(tc.config, nil)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.expected, db)
		})
	}
}

func TestMemoryNotConnected(t *testing.T) {
	ctx := context.Background()
	db := NewInMemoryDatabase(nil)

	_, err := db.Retrieve(ctx, nil)
	var re *interfaces.RetrievalError
	assert.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, interfaces.ErrDatabaseNotConnected)
	assert.ErrorIs(t, db.Seed(ctx, PostFixtures()), interfaces.ErrDatabaseNotConnected)
}
