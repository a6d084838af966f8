package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard-backend/internal/analytics"
	"github.com/pulseboard/pulseboard-backend/internal/db"
	"github.com/pulseboard/pulseboard-backend/internal/db/backends/memory"
	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/store"
	"github.com/pulseboard/pulseboard-backend/pkg/kv"
)

// countingBackend counts Retrieve calls on the wrapped backend
type countingBackend struct {
	interfaces.Backend
	retrieves atomic.Int64
}

func (c *countingBackend) Retrieve(ctx context.Context, q *interfaces.Query) ([]entities.Post, error) {
	c.retrieves.Add(1)
	return c.Backend.Retrieve(ctx, q)
}

// failingBackend fails every call with err
type failingBackend struct {
	err error
}

func (f failingBackend) Retrieve(context.Context, *interfaces.Query) ([]entities.Post, error) {
	return nil, f.err
}

func (f failingBackend) Count(context.Context, []interfaces.Predicate, []any) (int64, error) {
	return 0, f.err
}

// postsBackend serves a fixed slice, ignoring predicates
type postsBackend struct {
	posts []entities.Post
}

func (p postsBackend) Retrieve(_ context.Context, q *interfaces.Query) ([]entities.Post, error) {
	if q.Offset >= len(p.posts) {
		return nil, nil
	}
	return p.posts[q.Offset:], nil
}

func (p postsBackend) Count(context.Context, []interfaces.Predicate, []any) (int64, error) {
	return int64(len(p.posts)), nil
}

// gateBackend blocks every Retrieve until release is closed or the caller's context ends
type gateBackend struct {
	interfaces.Backend
	entered chan struct{}
	release chan struct{}
}

func (g *gateBackend) Retrieve(ctx context.Context, q *interfaces.Query) ([]entities.Post, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Backend.Retrieve(ctx, q)
}

// downStore is a cache store whose server never answers
type downStore struct {
	kv.Store
}

func (downStore) Ping(context.Context) error { return kv.ErrBackendUnavailable }
func (downStore) Close() error               { return nil }

func newMemoryDB(t *testing.T, posts []entities.Post) *memory.Database {
	t.Helper()
	database := db.NewInMemoryDatabase(zap.NewNop().Sugar())
	require.NoError(t, database.Connect(context.Background()))
	require.NoError(t, database.Seed(context.Background(), posts))
	return database
}

func newTestRouter(backend interfaces.Backend, health HealthChecker, cache *store.Cache) http.Handler {
	logger := zap.NewNop().Sugar()
	svc := analytics.NewService(backend, logger, nil)
	h := NewHandler(svc, health, cache, 5*time.Second, logger)
	m := NewMiddleware(logger, nil)
	return h.Routes(m, nil, []string{"http://localhost:3000"}, 0, 5*time.Second)
}

func doGet(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGetDashboard_TwoPlatforms(t *testing.T) {
	ts := time.Date(2024, 12, 9, 11, 0, 0, 0, time.UTC)
	database := newMemoryDB(t, []entities.Post{
		{PostID: "ig", Platform: "Instagram", EngagementRate: 0.195, Timestamp: ts, SentimentLabel: entities.SentimentPositive},
		{PostID: "tw", Platform: "Twitter", EngagementRate: 0.074, Timestamp: ts.Add(-time.Hour), SentimentLabel: entities.SentimentNeutral},
		{PostID: "yt", Platform: "YouTube", EngagementRate: 0.5, Timestamp: ts, SentimentLabel: entities.SentimentNegative},
	})
	router := newTestRouter(database, database, nil)

	rec := doGet(t, router, "/api/dashboard?platforms=Instagram,Twitter&limit=1000&offset=0")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[DashboardResponse](t, rec)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, int64(2), resp.Data.TotalPosts)
	assert.InDelta(t, 0.1345, resp.Data.AvgEngagement, 1e-9)
	require.Len(t, resp.Data.PlatformStats, 2)
	for _, ps := range resp.Data.PlatformStats {
		assert.Equal(t, int64(1), ps.PostCount)
	}
	assert.Equal(t, []string{"Instagram", "Twitter"}, resp.Data.Filters.Platforms)
	assert.Equal(t, 1000, resp.Data.Filters.Limit)
}

func TestGetDashboard_RoundsAverage(t *testing.T) {
	ts := time.Date(2024, 12, 9, 11, 0, 0, 0, time.UTC)
	database := newMemoryDB(t, []entities.Post{
		{PostID: "a", Platform: "Instagram", EngagementRate: 0.1, Timestamp: ts, SentimentLabel: entities.SentimentPositive},
		{PostID: "b", Platform: "Instagram", EngagementRate: 0.2, Timestamp: ts, SentimentLabel: entities.SentimentPositive},
		{PostID: "c", Platform: "Instagram", EngagementRate: 0.2, Timestamp: ts, SentimentLabel: entities.SentimentPositive},
	})
	router := newTestRouter(database, database, nil)

	rec := doGet(t, router, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[DashboardResponse](t, rec)
	assert.Equal(t, 0.1667, resp.Data.AvgEngagement)
}

func TestGetPosts_Pagination(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	router := newTestRouter(database, database, nil)

	rec := doGet(t, router, "/api/posts?limit=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[PostsResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(6), resp.Data.TotalCount)
	require.Len(t, resp.Data.Posts, 2)
	assert.Equal(t, "mock_001", resp.Data.Posts[0].PostID)
	assert.Equal(t, "mock_002", resp.Data.Posts[1].PostID)
	assert.Equal(t, analytics.Pagination{Limit: 2, Offset: 0, HasMore: true}, resp.Data.Pagination)

	rec = doGet(t, router, "/api/posts?limit=2&offset=4")
	resp = decode[PostsResponse](t, rec)
	require.Len(t, resp.Data.Posts, 2)
	assert.False(t, resp.Data.Pagination.HasMore)
}

func TestGetPosts_NormalizesOutOfRangePaging(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	router := newTestRouter(database, database, nil)

	rec := doGet(t, router, "/api/posts?limit=50000&offset=-10")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[PostsResponse](t, rec)
	assert.Equal(t, 10000, resp.Data.Filters.Limit)
	assert.Equal(t, 0, resp.Data.Filters.Offset)
	assert.Len(t, resp.Data.Posts, 6)
}

func TestGetPosts_StartDateWithoutEndIsIgnored(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	router := newTestRouter(database, database, nil)

	rec := doGet(t, router, "/api/posts?startDate=2024-12-08")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[PostsResponse](t, rec)
	assert.Nil(t, resp.Data.Filters.DateRange)
	assert.Equal(t, int64(6), resp.Data.TotalCount)
}

func TestMalformedParamsAreRejected(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	router := newTestRouter(database, database, nil)

	for _, target := range []string{
		"/api/posts?startDate=yesterday&endDate=2024-12-09",
		"/api/dashboard?minEngagement=low&maxEngagement=1",
		"/api/analytics/brands?startDate=2024-12-01&endDate=soon",
	} {
		rec := doGet(t, router, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		resp := decode[ErrorResponse](t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, ErrInvalidParam, resp.Error)
	}
}

func TestGetAnalytics(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	router := newTestRouter(database, database, nil)

	rec := doGet(t, router, "/api/analytics?brands=Google,Samsung")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[AnalyticsResponse](t, rec)
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.BrandStats, 2)
	var total int64
	for _, b := range resp.Data.BrandStats {
		total += b.PostCount
	}
	assert.Equal(t, int64(4), total)
	require.Len(t, resp.Data.SentimentAnalysis, 3)
	assert.Equal(t, []string{"Google", "Samsung"}, resp.Data.Filters.Brands)
}

func TestSingleAggregateRoutes(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	router := newTestRouter(database, database, nil)

	for _, path := range []string{"platforms", "brands", "campaigns", "sentiment", "trends", "top-posts"} {
		rec := doGet(t, router, "/api/analytics/"+path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		resp := decode[map[string]any](t, rec)
		assert.Equal(t, true, resp["success"], path)
		assert.NotNil(t, resp["data"], path)
		assert.Contains(t, resp, "filters", path)
	}
}

func TestGetTopPosts_Limit(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	router := newTestRouter(database, database, nil)

	rec := doGet(t, router, "/api/analytics/top-posts?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                `json:"success"`
		Data    []analytics.TopPost `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.GreaterOrEqual(t, resp.Data[0].EngagementRate, resp.Data[1].EngagementRate)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	ts := time.Date(2024, 12, 9, 11, 0, 0, 0, time.UTC)
	testCases := []struct {
		name     string
		backend  interfaces.Backend
		target   string
		status   int
		category string
	}{
		{
			name:     "retrieval failure",
			backend:  failingBackend{err: interfaces.NewRetrievalError("retrieve", errors.New("dial tcp 10.0.0.5:5432: connection refused"))},
			target:   "/api/dashboard",
			status:   http.StatusServiceUnavailable,
			category: ErrFetchDashboard,
		},
		{
			name:     "not connected",
			backend:  failingBackend{err: interfaces.ErrDatabaseNotConnected},
			target:   "/api/posts",
			status:   http.StatusServiceUnavailable,
			category: ErrFetchPosts,
		},
		{
			name:     "aggregation fault",
			backend:  postsBackend{posts: []entities.Post{{PostID: "bad", Platform: "Instagram", LikesCount: -1, Timestamp: ts}}},
			target:   "/api/analytics",
			status:   http.StatusInternalServerError,
			category: ErrFetchAnalytics,
		},
		{
			name:     "plain backend error",
			backend:  failingBackend{err: errors.New("pq: relation does not exist")},
			target:   "/api/analytics/platforms",
			status:   http.StatusServiceUnavailable,
			category: ErrFetchAnalytics,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(tc.backend, nil, nil)

			rec := doGet(t, router, tc.target)
			assert.Equal(t, tc.status, rec.Code)

			resp := decode[ErrorResponse](t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.category, resp.Error)
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
			assert.NotContains(t, rec.Body.String(), "relation")
		})
	}
}

func TestStatusFor(t *testing.T) {
	status, _ := statusFor(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _ = statusFor(&analytics.AggregateError{
		Aggregate: analytics.AggregateBrands,
		Err:       &analytics.AggregationFault{Aggregate: analytics.AggregateBrands, Reason: "negative engagement counter"},
	})
	assert.Equal(t, http.StatusInternalServerError, status)

	status, message := statusFor(&analytics.AggregateError{
		Aggregate: analytics.AggregateTrends,
		Err:       interfaces.NewRetrievalError("scan", context.DeadlineExceeded),
	})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.NotContains(t, message, "deadline")
}

func TestDashboardCache(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	backend := &countingBackend{Backend: database}
	cache := store.NewInMemoryCache(time.Minute, zap.NewNop().Sugar(), nil)
	defer cache.Close()
	router := newTestRouter(backend, database, cache)

	first := doGet(t, router, "/api/dashboard?platforms=Instagram")
	require.Equal(t, http.StatusOK, first.Code)
	calls := backend.retrieves.Load()
	require.Positive(t, calls)

	second := doGet(t, router, "/api/dashboard?platforms=Instagram")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, calls, backend.retrieves.Load(), "second request should be served from cache")

	a := decode[DashboardResponse](t, first)
	b := decode[DashboardResponse](t, second)
	assert.Equal(t, a.Data, b.Data)

	doGet(t, router, "/api/dashboard?platforms=Twitter")
	assert.Greater(t, backend.retrieves.Load(), calls, "a different filter is a different entry")
}

func TestDashboardWithoutCacheAlwaysRetrieves(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	backend := &countingBackend{Backend: database}
	router := newTestRouter(backend, database, nil)

	doGet(t, router, "/api/dashboard")
	calls := backend.retrieves.Load()
	doGet(t, router, "/api/dashboard")
	assert.Equal(t, 2*calls, backend.retrieves.Load())
}

func TestHealthEndpoints(t *testing.T) {
	database := newMemoryDB(t, nil)
	router := newTestRouter(database, database, nil)

	rec := doGet(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = doGet(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, router, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, database.Disconnect(context.Background()))
	rec = doGet(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode[HealthDTO](t, rec).Status)
}

func TestCoalescedRequestSurvivesCancelledCaller(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	gate := &gateBackend{Backend: database, entered: make(chan struct{}, 1), release: make(chan struct{})}
	router := newTestRouter(gate, database, nil)

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- serve(firstCtx) }()

	select {
	case <-gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("dashboard computation never reached the backend")
	}

	second := make(chan *httptest.ResponseRecorder, 1)
	go func() { second <- serve(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	rec := <-first
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	close(gate.release)
	rec = <-second
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(6), decode[DashboardResponse](t, rec).Data.TotalPosts)
}

func TestNonFiniteValuesAreServerErrors(t *testing.T) {
	ts := time.Date(2024, 12, 9, 11, 0, 0, 0, time.UTC)
	backend := postsBackend{posts: []entities.Post{
		{PostID: "ok", Platform: "Instagram", BrandName: "Google", CampaignName: "C1", SentimentLabel: entities.SentimentPositive, EngagementRate: 0.1, Timestamp: ts},
		{PostID: "nan", Platform: "Instagram", BrandName: "Google", CampaignName: "C1", SentimentLabel: entities.SentimentPositive, EngagementRate: math.NaN(), Timestamp: ts},
	}}
	router := newTestRouter(backend, nil, nil)

	for target, category := range map[string]string{
		"/api/analytics":           ErrFetchAnalytics,
		"/api/dashboard":           ErrFetchDashboard,
		"/api/analytics/platforms": ErrFetchAnalytics,
	} {
		rec := doGet(t, router, target)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)

		resp := decode[ErrorResponse](t, rec)
		assert.False(t, resp.Success, target)
		assert.Equal(t, category, resp.Error, target)
	}
}

func TestRespond_UnencodableValue(t *testing.T) {
	h := NewHandler(nil, nil, nil, 0, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	rec := httptest.NewRecorder()

	h.respond(rec, req, ErrFetchAnalytics, AggregateResponse{Success: true, Data: math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, ErrFetchAnalytics, resp.Error)
}

func TestAggregateRoutesUseCache(t *testing.T) {
	database := newMemoryDB(t, db.PostFixtures())
	backend := &countingBackend{Backend: database}
	cache := store.NewInMemoryCache(time.Minute, zap.NewNop().Sugar(), nil)
	defer cache.Close()
	router := newTestRouter(backend, database, cache)

	require.Equal(t, http.StatusOK, doGet(t, router, "/api/analytics/brands").Code)
	calls := backend.retrieves.Load()
	require.Positive(t, calls)

	require.Equal(t, http.StatusOK, doGet(t, router, "/api/analytics/brands").Code)
	assert.Equal(t, calls, backend.retrieves.Load())

	two := doGet(t, router, "/api/analytics/top-posts?limit=2")
	three := doGet(t, router, "/api/analytics/top-posts?limit=3")
	var a, b struct {
		Data []analytics.TopPost `json:"data"`
	}
	require.NoError(t, json.Unmarshal(two.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(three.Body.Bytes(), &b))
	assert.Len(t, a.Data, 2)
	assert.Len(t, b.Data, 3, "each top-posts count is cached separately")
}

func TestReadyz_CacheDown(t *testing.T) {
	database := newMemoryDB(t, nil)
	cache := store.NewCacheWithStore(downStore{}, time.Minute, zap.NewNop().Sugar(), nil)
	router := newTestRouter(database, database, cache)

	rec := doGet(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, []string{"CACHE_UNHEALTHY"}, decode[HealthDTO](t, rec).Reasons)
}
