package analytics

import (
	"time"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
)

// Aggregate names, used in errors, logs and metrics
const (
	AggregateSummary   = "summary"
	AggregatePlatforms = "platform_stats"
	AggregateBrands    = "brand_stats"
	AggregateCampaigns = "campaign_stats"
	AggregateSentiment = "sentiment_analysis"
	AggregateTrends    = "engagement_trends"
	AggregateTopPosts  = "top_posts"
	AggregatePosts     = "posts"
	AggregateDashboard = "dashboard"
	AggregateReport    = "analytics"
)

// SentimentBreakdown counts posts per sentiment label
type SentimentBreakdown struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Neutral  int64 `json:"neutral"`
}

type PlatformStats struct {
	Platform           string             `json:"platform"`
	PostCount          int64              `json:"post_count"`
	AvgEngagement      float64            `json:"avg_engagement"`
	TotalLikes         int64              `json:"total_likes"`
	TotalShares        int64              `json:"total_shares"`
	TotalComments      int64              `json:"total_comments"`
	TotalImpressions   int64              `json:"total_impressions"`
	SentimentBreakdown SentimentBreakdown `json:"sentiment_breakdown"`
}

type BrandStats struct {
	BrandName     string  `json:"brand_name"`
	PostCount     int64   `json:"post_count"`
	AvgEngagement float64 `json:"avg_engagement"`
	AvgSentiment  float64 `json:"avg_sentiment"`
	TotalReach    int64   `json:"total_reach"`
	TopCampaign   string  `json:"top_campaign"`
}

type CampaignStats struct {
	CampaignName     string  `json:"campaign_name"`
	BrandName        string  `json:"brand_name"`
	PostCount        int64   `json:"post_count"`
	AvgEngagement    float64 `json:"avg_engagement"`
	TotalLikes       int64   `json:"total_likes"`
	TotalReach       int64   `json:"total_reach"`
	CampaignPhase    string  `json:"campaign_phase"`
	PerformanceScore float64 `json:"performance_score"`
}

type SentimentAnalysis struct {
	SentimentLabel string  `json:"sentiment_label"`
	Count          int64   `json:"count"`
	Percentage     float64 `json:"percentage"`
	AvgEngagement  float64 `json:"avg_engagement"`
	AvgToxicity    float64 `json:"avg_toxicity"`
}

type EngagementTrend struct {
	Date          string  `json:"date"`
	AvgEngagement float64 `json:"avg_engagement"`
	PostCount     int64   `json:"post_count"`
	TotalLikes    int64   `json:"total_likes"`
	TotalShares   int64   `json:"total_shares"`
	TotalComments int64   `json:"total_comments"`
}

type TopPost struct {
	PostID         string    `json:"post_id"`
	Platform       string    `json:"platform"`
	BrandName      string    `json:"brand_name"`
	CampaignName   string    `json:"campaign_name"`
	EngagementRate float64   `json:"engagement_rate"`
	LikesCount     int64     `json:"likes_count"`
	SharesCount    int64     `json:"shares_count"`
	CommentsCount  int64     `json:"comments_count"`
	Impressions    int64     `json:"impressions"`
	SentimentLabel string    `json:"sentiment_label"`
	Timestamp      time.Time `json:"timestamp"`
	TextContent    string    `json:"text_content"`
}

// Summary holds the dashboard headline figures
type Summary struct {
	TotalPosts       int64   `json:"totalPosts"`
	AvgEngagement    float64 `json:"avgEngagement"`
	TotalLikes       int64   `json:"totalLikes"`
	TotalShares      int64   `json:"totalShares"`
	TotalComments    int64   `json:"totalComments"`
	TotalImpressions int64   `json:"totalImpressions"`
}

type DashboardMetrics struct {
	Summary
	SentimentBreakdown []SentimentAnalysis `json:"sentimentBreakdown"`
	PlatformStats      []PlatformStats     `json:"platformStats"`
	TopBrands          []BrandStats        `json:"topBrands"`
	TopCampaigns       []CampaignStats     `json:"topCampaigns"`
	EngagementTrends   []EngagementTrend   `json:"engagementTrends"`
	TopPosts           []TopPost           `json:"topPosts"`
}

// Report is the combined analytics payload
type Report struct {
	PlatformStats     []PlatformStats     `json:"platformStats"`
	BrandStats        []BrandStats        `json:"brandStats"`
	CampaignStats     []CampaignStats     `json:"campaignStats"`
	SentimentAnalysis []SentimentAnalysis `json:"sentimentAnalysis"`
	EngagementTrends  []EngagementTrend   `json:"engagementTrends"`
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// PostsPage is one page of the raw post listing
type PostsPage struct {
	Posts      []entities.Post `json:"posts"`
	TotalCount int64           `json:"totalCount"`
	Pagination Pagination      `json:"pagination"`
}
