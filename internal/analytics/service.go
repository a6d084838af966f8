// Package analytics computes dashboard aggregates over the posts a filter selects.
//
// Every aggregate reads its full matching set from an interfaces.Backend and reduces
// it in memory. A filter's Limit and Offset page only the raw post listing.
package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/db/query"
	"github.com/pulseboard/pulseboard-backend/internal/filter"
)

// Dashboard list sizes
const (
	DashboardTopBrands    = 10
	DashboardTopCampaigns = 10
	DashboardTopPosts     = 5
)

// Recorder observes each aggregate run
type Recorder interface {
	RecordAggregation(ctx context.Context, name string, duration time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordAggregation(context.Context, string, time.Duration, error) {}

// Service answers aggregate queries against one backend
type Service struct {
	backend   interfaces.Backend
	logger    *zap.SugaredLogger
	recorder  Recorder
	batchSize int
}

func NewService(backend interfaces.Backend, logger *zap.SugaredLogger, rec Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		backend:   backend,
		logger:    logger,
		recorder:  rec,
		batchSize: filter.MaxLimit,
	}
}

// scan reads every post matching f, newest first, in pages of batchSize
func (s *Service) scan(ctx context.Context, f filter.Filter) ([]entities.Post, error) {
	where, params := query.Build(f)

	var all []entities.Post
	for offset := 0; ; offset += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, interfaces.NewRetrievalError("scan", err)
		}

		page, err := s.backend.Retrieve(ctx, &interfaces.Query{
			Where:   where,
			Params:  params,
			OrderBy: interfaces.DefaultOrder,
			Limit:   s.batchSize,
			Offset:  offset,
		})
		if err != nil {
			return nil, interfaces.NewRetrievalError("scan", err)
		}

		all = append(all, page...)
		if len(page) < s.batchSize {
			return all, nil
		}
	}
}

// aggregate scans f and reduces the result, recording the run
func aggregate[T any](ctx context.Context, s *Service, name string, f filter.Filter, reduce func([]entities.Post) (T, error)) (T, error) {
	start := time.Now()

	posts, err := s.scan(ctx, f)
	if err != nil {
		s.recorder.RecordAggregation(ctx, name, time.Since(start), err)
		s.logger.Warnw("Aggregation failed", "aggregate", name, "error", err)
		var zero T
		return zero, err
	}
	return record(ctx, s, name, start, posts, reduce)
}

// record reduces an already scanned set, recording the run from start
func record[T any](ctx context.Context, s *Service, name string, start time.Time, posts []entities.Post, reduce func([]entities.Post) (T, error)) (T, error) {
	out, err := reduce(posts)

	s.recorder.RecordAggregation(ctx, name, time.Since(start), err)
	if err != nil {
		s.logger.Warnw("Aggregation failed", "aggregate", name, "error", err)
		var zero T
		return zero, err
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context, f filter.Filter) (Summary, error) {
	return aggregate(ctx, s, AggregateSummary, f, ReduceSummary)
}

func (s *Service) PlatformStats(ctx context.Context, f filter.Filter) ([]PlatformStats, error) {
	return aggregate(ctx, s, AggregatePlatforms, f, ReducePlatformStats)
}

func (s *Service) BrandStats(ctx context.Context, f filter.Filter) ([]BrandStats, error) {
	return aggregate(ctx, s, AggregateBrands, f, ReduceBrandStats)
}

func (s *Service) CampaignStats(ctx context.Context, f filter.Filter) ([]CampaignStats, error) {
	return aggregate(ctx, s, AggregateCampaigns, f, ReduceCampaignStats)
}

func (s *Service) SentimentAnalysis(ctx context.Context, f filter.Filter) ([]SentimentAnalysis, error) {
	return aggregate(ctx, s, AggregateSentiment, f, ReduceSentimentAnalysis)
}

func (s *Service) EngagementTrends(ctx context.Context, f filter.Filter) ([]EngagementTrend, error) {
	return aggregate(ctx, s, AggregateTrends, f, ReduceEngagementTrends)
}

// TopPosts returns the limit highest-engagement posts; limit <= 0 means DefaultTopPosts
func (s *Service) TopPosts(ctx context.Context, f filter.Filter, limit int) ([]TopPost, error) {
	return aggregate(ctx, s, AggregateTopPosts, f, func(posts []entities.Post) ([]TopPost, error) {
		return ReduceTopPosts(posts, limit)
	})
}

// run executes fn in g, naming its failure after the aggregate
func run(g *errgroup.Group, name string, fn func() error) {
	g.Go(func() error {
		if err := fn(); err != nil {
			return &AggregateError{Aggregate: name, Err: err}
		}
		return nil
	})
}

// scanOnce reads the matching set a combined report is reduced from
func (s *Service) scanOnce(ctx context.Context, name string, f filter.Filter) ([]entities.Post, time.Time, error) {
	start := time.Now()
	posts, err := s.scan(ctx, f)
	if err != nil {
		s.recorder.RecordAggregation(ctx, name, time.Since(start), err)
		s.logger.Warnw("Aggregation failed", "aggregate", name, "error", err)
		return nil, start, &AggregateError{Aggregate: name, Err: err}
	}
	return posts, start, nil
}

// Dashboard scans the matching set once and reduces the summary and every aggregate
// from it concurrently. The first failure cancels the rest and no partial result is returned.
func (s *Service) Dashboard(ctx context.Context, f filter.Filter) (*DashboardMetrics, error) {
	posts, start, err := s.scanOnce(ctx, AggregateDashboard, f)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	d := &DashboardMetrics{}

	run(g, AggregateSummary, func() (err error) {
		d.Summary, err = record(gctx, s, AggregateSummary, start, posts, ReduceSummary)
		return err
	})
	run(g, AggregateSentiment, func() (err error) {
		d.SentimentBreakdown, err = record(gctx, s, AggregateSentiment, start, posts, ReduceSentimentAnalysis)
		return err
	})
	run(g, AggregatePlatforms, func() (err error) {
		d.PlatformStats, err = record(gctx, s, AggregatePlatforms, start, posts, ReducePlatformStats)
		return err
	})
	run(g, AggregateBrands, func() error {
		brands, err := record(gctx, s, AggregateBrands, start, posts, ReduceBrandStats)
		d.TopBrands = truncate(brands, DashboardTopBrands)
		return err
	})
	run(g, AggregateCampaigns, func() error {
		campaigns, err := record(gctx, s, AggregateCampaigns, start, posts, ReduceCampaignStats)
		d.TopCampaigns = truncate(campaigns, DashboardTopCampaigns)
		return err
	})
	run(g, AggregateTrends, func() (err error) {
		d.EngagementTrends, err = record(gctx, s, AggregateTrends, start, posts, ReduceEngagementTrends)
		return err
	})
	run(g, AggregateTopPosts, func() (err error) {
		d.TopPosts, err = record(gctx, s, AggregateTopPosts, start, posts, func(posts []entities.Post) ([]TopPost, error) {
			return ReduceTopPosts(posts, DashboardTopPosts)
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// Analytics computes the combined report from one scan
func (s *Service) Analytics(ctx context.Context, f filter.Filter) (*Report, error) {
	posts, start, err := s.scanOnce(ctx, AggregateReport, f)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	r := &Report{}

	run(g, AggregatePlatforms, func() (err error) {
		r.PlatformStats, err = record(gctx, s, AggregatePlatforms, start, posts, ReducePlatformStats)
		return err
	})
	run(g, AggregateBrands, func() (err error) {
		r.BrandStats, err = record(gctx, s, AggregateBrands, start, posts, ReduceBrandStats)
		return err
	})
	run(g, AggregateCampaigns, func() (err error) {
		r.CampaignStats, err = record(gctx, s, AggregateCampaigns, start, posts, ReduceCampaignStats)
		return err
	})
	run(g, AggregateSentiment, func() (err error) {
		r.SentimentAnalysis, err = record(gctx, s, AggregateSentiment, start, posts, ReduceSentimentAnalysis)
		return err
	})
	run(g, AggregateTrends, func() (err error) {
		r.EngagementTrends, err = record(gctx, s, AggregateTrends, start, posts, ReduceEngagementTrends)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// Posts returns one page of matching posts and the total match count
func (s *Service) Posts(ctx context.Context, f filter.Filter) (*PostsPage, error) {
	q := query.NewQuery(f)
	g, gctx := errgroup.WithContext(ctx)

	var posts []entities.Post
	var total int64
	g.Go(func() (err error) {
		posts, err = s.backend.Retrieve(gctx, q)
		return interfaces.NewRetrievalError("retrieve", err)
	})
	g.Go(func() (err error) {
		total, err = s.backend.Count(gctx, q.Where, q.Params)
		return interfaces.NewRetrievalError("count", err)
	})

	if err := g.Wait(); err != nil {
		return nil, &AggregateError{Aggregate: AggregatePosts, Err: err}
	}
	if posts == nil {
		posts = []entities.Post{}
	}

	return &PostsPage{
		Posts:      posts,
		TotalCount: total,
		Pagination: Pagination{
			Limit:   f.Limit,
			Offset:  f.Offset,
			HasMore: int64(f.Offset+len(posts)) < total,
		},
	}, nil
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
