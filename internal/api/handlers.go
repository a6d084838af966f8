package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pulseboard/pulseboard-backend/internal/analytics"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/filter"
	"github.com/pulseboard/pulseboard-backend/internal/store"
)

// Error categories reported in the failure envelope
const (
	ErrFetchPosts     = "Failed to fetch posts"
	ErrFetchAnalytics = "Failed to fetch analytics data"
	ErrFetchDashboard = "Failed to fetch dashboard metrics"
	ErrInvalidParam   = "Invalid query parameter"
)

// avgEngagementPlaces is the presentation precision of the dashboard average
const avgEngagementPlaces = 4

// HealthChecker reports whether the data source is reachable
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// DefaultComputeTimeout bounds a shared computation when no timeout is configured
const DefaultComputeTimeout = 30 * time.Second

type Handler struct {
	svc            *analytics.Service
	health         HealthChecker
	cache          *store.Cache
	group          singleflight.Group
	computeTimeout time.Duration
	logger         *zap.SugaredLogger
}

// NewHandler wires the API handlers. computeTimeout bounds each coalesced
// computation independently of the requests waiting on it.
func NewHandler(svc *analytics.Service, health HealthChecker, cache *store.Cache, computeTimeout time.Duration, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if computeTimeout <= 0 {
		computeTimeout = DefaultComputeTimeout
	}
	return &Handler{
		svc:            svc,
		health:         health,
		cache:          cache,
		computeTimeout: computeTimeout,
		logger:         logger,
	}
}

// parseFilter reads and normalizes the filter from the query string.
// It writes a 400 and returns false when a date or engagement bound is unparseable.
func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (filter.Filter, bool) {
	raw := filter.ParseQuery(r.URL.Query())
	if param := filter.Validate(raw); param != "" {
		h.writeError(w, r, http.StatusBadRequest, ErrInvalidParam, "Malformed value for "+param, nil)
		return filter.Filter{}, false
	}
	return filter.Normalize(raw), true
}

// shared computes a response once per identical in-flight request, through the response cache.
// The computation runs detached from every caller under its own timeout; a caller whose
// context ends only abandons its own wait.
func shared[T any](ctx context.Context, h *Handler, kind, key string, compute func(context.Context) (T, error)) (T, error) {
	ch := h.group.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.computeTimeout)
		defer cancel()
		return store.Fetch(cctx, h.cache, kind, key, compute)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, interfaces.NewRetrievalError("wait", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	page, err := h.svc.Posts(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, ErrFetchPosts, err)
		return
	}

	h.respond(w, r, ErrFetchPosts, PostsResponse{
		Success: true,
		Data: PostsDTO{
			Posts:      page.Posts,
			TotalCount: page.TotalCount,
			Filters:    f,
			Pagination: page.Pagination,
		},
	})
}

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	report, err := shared(r.Context(), h, store.KeyAnalytics, store.Key(store.KeyAnalytics, f.Key()), func(ctx context.Context) (*analytics.Report, error) {
		return h.svc.Analytics(ctx, f)
	})
	if err != nil {
		h.writeServiceError(w, r, ErrFetchAnalytics, err)
		return
	}

	h.respond(w, r, ErrFetchAnalytics, AnalyticsResponse{
		Success: true,
		Data:    AnalyticsDTO{Report: *report, Filters: f},
	})
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	metrics, err := shared(r.Context(), h, store.KeyDashboard, store.Key(store.KeyDashboard, f.Key()), func(ctx context.Context) (*analytics.DashboardMetrics, error) {
		return h.svc.Dashboard(ctx, f)
	})
	if err != nil {
		h.writeServiceError(w, r, ErrFetchDashboard, err)
		return
	}

	dto := DashboardDTO{DashboardMetrics: *metrics, Filters: f}
	dto.AvgEngagement = roundAvg(dto.AvgEngagement)

	h.respond(w, r, ErrFetchDashboard, DashboardResponse{
		Success:   true,
		Data:      dto,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) GetPlatformStats(w http.ResponseWriter, r *http.Request) {
	serveAggregate(h, w, r, analytics.AggregatePlatforms, "", h.svc.PlatformStats)
}

func (h *Handler) GetBrandStats(w http.ResponseWriter, r *http.Request) {
	serveAggregate(h, w, r, analytics.AggregateBrands, "", h.svc.BrandStats)
}

func (h *Handler) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	serveAggregate(h, w, r, analytics.AggregateCampaigns, "", h.svc.CampaignStats)
}

func (h *Handler) GetSentimentAnalysis(w http.ResponseWriter, r *http.Request) {
	serveAggregate(h, w, r, analytics.AggregateSentiment, "", h.svc.SentimentAnalysis)
}

func (h *Handler) GetEngagementTrends(w http.ResponseWriter, r *http.Request) {
	serveAggregate(h, w, r, analytics.AggregateTrends, "", h.svc.EngagementTrends)
}

// GetTopPosts reads limit as the number of posts to return (default 10)
func (h *Handler) GetTopPosts(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get(filter.ParamLimit))
	if err != nil || n <= 0 {
		n = analytics.DefaultTopPosts
	}
	if n > filter.MaxLimit {
		n = filter.MaxLimit
	}

	serveAggregate(h, w, r, analytics.AggregateTopPosts, "limit="+strconv.Itoa(n), func(ctx context.Context, f filter.Filter) ([]analytics.TopPost, error) {
		return h.svc.TopPosts(ctx, f, n)
	})
}

// serveAggregate answers one aggregate route. variant distinguishes responses that
// depend on more than the filter, such as the top-posts count.
func serveAggregate[T any](h *Handler, w http.ResponseWriter, r *http.Request, name, variant string, compute func(context.Context, filter.Filter) (T, error)) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	kind := store.KeyAggregate + ":" + name
	key := store.Key(kind, f.Key()+"|"+variant)
	data, err := shared(r.Context(), h, kind, key, func(ctx context.Context) (T, error) {
		return compute(ctx, f)
	})
	if err != nil {
		h.writeServiceError(w, r, ErrFetchAnalytics, err)
		return
	}

	h.respond(w, r, ErrFetchAnalytics, AggregateResponse{Success: true, Data: data, Filters: f})
}

// Health and ops endpoints
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var reasons []string
	if h.health != nil && !h.health.IsHealthy(r.Context()) {
		reasons = append(reasons, "DATABASE_UNHEALTHY")
	}
	if err := h.cache.Ping(r.Context()); err != nil {
		h.logger.Warnw("Cache ping failed", "error", err)
		reasons = append(reasons, "CACHE_UNHEALTHY")
	}

	if len(reasons) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, HealthDTO{Status: "unavailable", Reasons: reasons})
		return
	}
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok"})
}

func roundAvg(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(avgEngagementPlaces).InexactFloat64()
}

// statusFor maps a core error onto an HTTP status and a caller-safe message
func statusFor(err error) (int, string) {
	var retrieval *interfaces.RetrievalError
	var fault *analytics.AggregationFault

	switch {
	case errors.As(err, &retrieval), errors.Is(err, interfaces.ErrDatabaseNotConnected):
		return http.StatusServiceUnavailable, "The data source is unavailable, try again later"
	case errors.As(err, &fault):
		return http.StatusInternalServerError, "Analytics could not be computed for this data"
	default:
		return http.StatusInternalServerError, "An unexpected error occurred"
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, category string, err error) {
	status, message := statusFor(err)

	var aggErr *analytics.AggregateError
	aggregate := ""
	if errors.As(err, &aggErr) {
		aggregate = aggErr.Aggregate
	}

	h.writeError(w, r, status, category, message, err, "aggregate", aggregate)
}

// Utility methods

// writeJSON encodes data before committing the status
func writeJSON(w http.ResponseWriter, status int, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}

// respond writes a 200 response, or a 500 under category when it cannot be encoded
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, category string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, category, "The response could not be encoded", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Debugw("Response write failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, category, message string, cause error, fields ...any) {
	fields = append([]any{
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"category", category,
		"error", cause,
	}, fields...)

	if status >= http.StatusInternalServerError {
		h.logger.Errorw("API error", fields...)
	} else {
		h.logger.Warnw("API request rejected", fields...)
	}

	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   category,
		Message: message,
	})
}
