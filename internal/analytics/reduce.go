package analytics

import (
	"math"
	"sort"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
)

// DefaultTopPosts is the top-posts size when none is requested
const DefaultTopPosts = 10

// mean returns sum/n, and exactly 0 for an empty set
func mean(sum float64, n int64) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// checkPost rejects values that would poison a sum or a mean
func checkPost(aggregate string, p *entities.Post) error {
	if p.LikesCount < 0 || p.SharesCount < 0 || p.CommentsCount < 0 || p.Impressions < 0 {
		return fault(aggregate, p.PostID, "negative engagement counter")
	}
	switch {
	case !finite(p.EngagementRate):
		return fault(aggregate, p.PostID, "non-finite engagement_rate")
	case !finite(p.SentimentScore):
		return fault(aggregate, p.PostID, "non-finite sentiment_score")
	case !finite(p.ToxicityScore):
		return fault(aggregate, p.PostID, "non-finite toxicity_score")
	}
	return nil
}

// ReduceSummary computes the dashboard headline figures
func ReduceSummary(posts []entities.Post) (Summary, error) {
	var s Summary
	var engagement float64
	for i := range posts {
		p := &posts[i]
		if err := checkPost(AggregateSummary, p); err != nil {
			return Summary{}, err
		}
		s.TotalPosts++
		engagement += p.EngagementRate
		s.TotalLikes += p.LikesCount
		s.TotalShares += p.SharesCount
		s.TotalComments += p.CommentsCount
		s.TotalImpressions += p.Impressions
	}
	s.AvgEngagement = mean(engagement, s.TotalPosts)
	return s, nil
}

// ReducePlatformStats groups posts by platform
func ReducePlatformStats(posts []entities.Post) ([]PlatformStats, error) {
	index := map[string]int{}
	stats := []PlatformStats{}
	engagement := []float64{}

	for i := range posts {
		p := &posts[i]
		if p.Platform == "" {
			return nil, fault(AggregatePlatforms, p.PostID, "missing platform")
		}
		if err := checkPost(AggregatePlatforms, p); err != nil {
			return nil, err
		}

		idx, ok := index[p.Platform]
		if !ok {
			idx = len(stats)
			index[p.Platform] = idx
			stats = append(stats, PlatformStats{Platform: p.Platform})
			engagement = append(engagement, 0)
		}

		st := &stats[idx]
		switch p.SentimentLabel {
		case entities.SentimentPositive:
			st.SentimentBreakdown.Positive++
		case entities.SentimentNegative:
			st.SentimentBreakdown.Negative++
		case entities.SentimentNeutral:
			st.SentimentBreakdown.Neutral++
		default:
			return nil, fault(AggregatePlatforms, p.PostID, "unknown sentiment label "+p.SentimentLabel)
		}
		st.PostCount++
		st.TotalLikes += p.LikesCount
		st.TotalShares += p.SharesCount
		st.TotalComments += p.CommentsCount
		st.TotalImpressions += p.Impressions
		engagement[idx] += p.EngagementRate
	}

	for i := range stats {
		stats[i].AvgEngagement = mean(engagement[i], stats[i].PostCount)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].PostCount != stats[j].PostCount {
			return stats[i].PostCount > stats[j].PostCount
		}
		return stats[i].Platform < stats[j].Platform
	})
	return stats, nil
}

type brandAcc struct {
	engagement float64
	sentiment  float64
	campaigns  map[string]int64
	order      []string
}

// ReduceBrandStats groups posts by brand. top_campaign is the brand's most frequent
// campaign; ties go to the campaign seen first.
func ReduceBrandStats(posts []entities.Post) ([]BrandStats, error) {
	index := map[string]int{}
	stats := []BrandStats{}
	accs := []*brandAcc{}

	for i := range posts {
		p := &posts[i]
		if p.BrandName == "" {
			return nil, fault(AggregateBrands, p.PostID, "missing brand_name")
		}
		if err := checkPost(AggregateBrands, p); err != nil {
			return nil, err
		}

		idx, ok := index[p.BrandName]
		if !ok {
			idx = len(stats)
			index[p.BrandName] = idx
			stats = append(stats, BrandStats{BrandName: p.BrandName})
			accs = append(accs, &brandAcc{campaigns: map[string]int64{}})
		}

		st, acc := &stats[idx], accs[idx]
		st.PostCount++
		st.TotalReach += p.Impressions
		acc.engagement += p.EngagementRate
		acc.sentiment += p.SentimentScore
		if p.CampaignName != "" {
			if _, seen := acc.campaigns[p.CampaignName]; !seen {
				acc.order = append(acc.order, p.CampaignName)
			}
			acc.campaigns[p.CampaignName]++
		}
	}

	for i := range stats {
		acc := accs[i]
		stats[i].AvgEngagement = mean(acc.engagement, stats[i].PostCount)
		stats[i].AvgSentiment = mean(acc.sentiment, stats[i].PostCount)

		var best int64
		for _, name := range acc.order {
			if n := acc.campaigns[name]; n > best {
				best = n
				stats[i].TopCampaign = name
			}
		}
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].PostCount != stats[j].PostCount {
			return stats[i].PostCount > stats[j].PostCount
		}
		return stats[i].BrandName < stats[j].BrandName
	})
	return stats, nil
}

// Performance score weights
const (
	engagementWeight = 0.7
	reachWeight      = 0.3
)

type campaignKey struct {
	campaign string
	brand    string
}

// ReduceCampaignStats groups posts by (campaign, brand) and scores each group against
// the best engagement and reach in the result
func ReduceCampaignStats(posts []entities.Post) ([]CampaignStats, error) {
	index := map[campaignKey]int{}
	stats := []CampaignStats{}
	engagement := []float64{}
	latest := []int{}

	for i := range posts {
		p := &posts[i]
		if p.CampaignName == "" || p.BrandName == "" {
			return nil, fault(AggregateCampaigns, p.PostID, "missing campaign_name or brand_name")
		}
		if err := checkPost(AggregateCampaigns, p); err != nil {
			return nil, err
		}

		key := campaignKey{campaign: p.CampaignName, brand: p.BrandName}
		idx, ok := index[key]
		if !ok {
			idx = len(stats)
			index[key] = idx
			stats = append(stats, CampaignStats{CampaignName: p.CampaignName, BrandName: p.BrandName})
			engagement = append(engagement, 0)
			latest = append(latest, i)
		}

		st := &stats[idx]
		st.PostCount++
		st.TotalLikes += p.LikesCount
		st.TotalReach += p.Impressions
		engagement[idx] += p.EngagementRate
		if p.Timestamp.After(posts[latest[idx]].Timestamp) {
			latest[idx] = i
		}
	}

	var maxEngagement float64
	var maxReach int64
	for i := range stats {
		stats[i].AvgEngagement = mean(engagement[i], stats[i].PostCount)
		stats[i].CampaignPhase = posts[latest[i]].CampaignPhase
		if stats[i].AvgEngagement > maxEngagement {
			maxEngagement = stats[i].AvgEngagement
		}
		if stats[i].TotalReach > maxReach {
			maxReach = stats[i].TotalReach
		}
	}

	for i := range stats {
		var score float64
		if maxEngagement > 0 {
			score += engagementWeight * stats[i].AvgEngagement / maxEngagement
		}
		if maxReach > 0 {
			score += reachWeight * float64(stats[i].TotalReach) / float64(maxReach)
		}
		stats[i].PerformanceScore = 100 * score
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].PerformanceScore != stats[j].PerformanceScore {
			return stats[i].PerformanceScore > stats[j].PerformanceScore
		}
		if stats[i].CampaignName != stats[j].CampaignName {
			return stats[i].CampaignName < stats[j].CampaignName
		}
		return stats[i].BrandName < stats[j].BrandName
	})
	return stats, nil
}

// ReduceSentimentAnalysis always returns one row per sentiment label, in label order
func ReduceSentimentAnalysis(posts []entities.Post) ([]SentimentAnalysis, error) {
	rows := make([]SentimentAnalysis, len(entities.SentimentLabels))
	index := make(map[string]int, len(rows))
	for i, label := range entities.SentimentLabels {
		rows[i].SentimentLabel = label
		index[label] = i
	}
	engagement := make([]float64, len(rows))
	toxicity := make([]float64, len(rows))

	for i := range posts {
		p := &posts[i]
		idx, ok := index[p.SentimentLabel]
		if !ok {
			return nil, fault(AggregateSentiment, p.PostID, "unknown sentiment label "+p.SentimentLabel)
		}
		if err := checkPost(AggregateSentiment, p); err != nil {
			return nil, err
		}
		rows[idx].Count++
		engagement[idx] += p.EngagementRate
		toxicity[idx] += p.ToxicityScore
	}

	total := int64(len(posts))
	for i := range rows {
		rows[i].Percentage = 100 * mean(float64(rows[i].Count), total)
		rows[i].AvgEngagement = mean(engagement[i], rows[i].Count)
		rows[i].AvgToxicity = mean(toxicity[i], rows[i].Count)
	}
	return rows, nil
}

// ReduceEngagementTrends groups posts by UTC calendar date, newest first
func ReduceEngagementTrends(posts []entities.Post) ([]EngagementTrend, error) {
	index := map[string]int{}
	trends := []EngagementTrend{}
	engagement := []float64{}

	for i := range posts {
		p := &posts[i]
		if p.Timestamp.IsZero() {
			return nil, fault(AggregateTrends, p.PostID, "missing timestamp")
		}
		if err := checkPost(AggregateTrends, p); err != nil {
			return nil, err
		}

		date := p.Timestamp.UTC().Format("2006-01-02")
		idx, ok := index[date]
		if !ok {
			idx = len(trends)
			index[date] = idx
			trends = append(trends, EngagementTrend{Date: date})
			engagement = append(engagement, 0)
		}

		tr := &trends[idx]
		tr.PostCount++
		tr.TotalLikes += p.LikesCount
		tr.TotalShares += p.SharesCount
		tr.TotalComments += p.CommentsCount
		engagement[idx] += p.EngagementRate
	}

	for i := range trends {
		trends[i].AvgEngagement = mean(engagement[i], trends[i].PostCount)
	}
	sort.SliceStable(trends, func(i, j int) bool {
		return trends[i].Date > trends[j].Date
	})
	return trends, nil
}

// ReduceTopPosts ranks posts by engagement rate, then impressions, then post_id
func ReduceTopPosts(posts []entities.Post, limit int) ([]TopPost, error) {
	if limit <= 0 {
		limit = DefaultTopPosts
	}

	ranked := make([]*entities.Post, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		if p.PostID == "" {
			return nil, fault(AggregateTopPosts, "", "missing post_id")
		}
		if err := checkPost(AggregateTopPosts, p); err != nil {
			return nil, err
		}
		ranked = append(ranked, p)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.EngagementRate != b.EngagementRate {
			return a.EngagementRate > b.EngagementRate
		}
		if a.Impressions != b.Impressions {
			return a.Impressions > b.Impressions
		}
		return a.PostID < b.PostID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	top := make([]TopPost, len(ranked))
	for i, p := range ranked {
		top[i] = TopPost{
			PostID:         p.PostID,
			Platform:       p.Platform,
			BrandName:      p.BrandName,
			CampaignName:   p.CampaignName,
			EngagementRate: p.EngagementRate,
			LikesCount:     p.LikesCount,
			SharesCount:    p.SharesCount,
			CommentsCount:  p.CommentsCount,
			Impressions:    p.Impressions,
			SentimentLabel: p.SentimentLabel,
			Timestamp:      p.Timestamp.UTC(),
			TextContent:    p.TextContent,
		}
	}
	return top, nil
}
