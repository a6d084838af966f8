package entities

import (
	"time"
)

// Sentiment labels. The set is closed.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
)

// SentimentLabels lists the sentiment labels in presentation order
var SentimentLabels = []string{SentimentPositive, SentimentNegative, SentimentNeutral}

// IsSentimentLabel reports whether label belongs to the closed sentiment set
func IsSentimentLabel(label string) bool {
	switch label {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// TableName is the table (or collection) that holds posts in every backend
const TableName = "social_media_posts"

// Post represents one ingested social-media observation
type Post struct {
	PostID    string    `json:"post_id" db:"post_id" bson:"post_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp" bson:"timestamp"`
	DayOfWeek string    `json:"day_of_week" db:"day_of_week" bson:"day_of_week"`
	Platform  string    `json:"platform" db:"platform" bson:"platform"`
	UserID    string    `json:"user_id" db:"user_id" bson:"user_id"`
	Location  string    `json:"location" db:"location" bson:"location"`
	Language  string    `json:"language" db:"language" bson:"language"`

	TextContent   string `json:"text_content" db:"text_content" bson:"text_content"`
	Hashtags      string `json:"hashtags" db:"hashtags" bson:"hashtags"`
	Mentions      string `json:"mentions" db:"mentions" bson:"mentions"`
	Keywords      string `json:"keywords" db:"keywords" bson:"keywords"`
	TopicCategory string `json:"topic_category" db:"topic_category" bson:"topic_category"`

	SentimentScore float64 `json:"sentiment_score" db:"sentiment_score" bson:"sentiment_score"`
	SentimentLabel string  `json:"sentiment_label" db:"sentiment_label" bson:"sentiment_label"`
	EmotionType    string  `json:"emotion_type" db:"emotion_type" bson:"emotion_type"`
	ToxicityScore  float64 `json:"toxicity_score" db:"toxicity_score" bson:"toxicity_score"`

	LikesCount     int64   `json:"likes_count" db:"likes_count" bson:"likes_count"`
	SharesCount    int64   `json:"shares_count" db:"shares_count" bson:"shares_count"`
	CommentsCount  int64   `json:"comments_count" db:"comments_count" bson:"comments_count"`
	Impressions    int64   `json:"impressions" db:"impressions" bson:"impressions"`
	EngagementRate float64 `json:"engagement_rate" db:"engagement_rate" bson:"engagement_rate"`
	BrandName      string  `json:"brand_name" db:"brand_name" bson:"brand_name"`
	ProductName    string  `json:"product_name" db:"product_name" bson:"product_name"`
	CampaignName   string  `json:"campaign_name" db:"campaign_name" bson:"campaign_name"`
	CampaignPhase  string  `json:"campaign_phase" db:"campaign_phase" bson:"campaign_phase"`

	UserPastSentimentAvg float64 `json:"user_past_sentiment_avg" db:"user_past_sentiment_avg" bson:"user_past_sentiment_avg"`
	UserEngagementGrowth float64 `json:"user_engagement_growth" db:"user_engagement_growth" bson:"user_engagement_growth"`
	BuzzChangeRate       float64 `json:"buzz_change_rate" db:"buzz_change_rate" bson:"buzz_change_rate"`
}

// Columns lists the post columns in storage order. SQL backends select and insert in this order.
var Columns = []string{
	"post_id", "timestamp", "day_of_week", "platform", "user_id", "location", "language",
	"text_content", "hashtags", "mentions", "keywords", "topic_category",
	"sentiment_score", "sentiment_label", "emotion_type", "toxicity_score",
	"likes_count", "shares_count", "comments_count", "impressions", "engagement_rate",
	"brand_name", "product_name", "campaign_name", "campaign_phase",
	"user_past_sentiment_avg", "user_engagement_growth", "buzz_change_rate",
}

// Values returns the field values in Columns order
func (p *Post) Values() []any {
	return []any{
		p.PostID, p.Timestamp.UTC(), p.DayOfWeek, p.Platform, p.UserID, p.Location, p.Language,
		p.TextContent, p.Hashtags, p.Mentions, p.Keywords, p.TopicCategory,
		p.SentimentScore, p.SentimentLabel, p.EmotionType, p.ToxicityScore,
		p.LikesCount, p.SharesCount, p.CommentsCount, p.Impressions, p.EngagementRate,
		p.BrandName, p.ProductName, p.CampaignName, p.CampaignPhase,
		p.UserPastSentimentAvg, p.UserEngagementGrowth, p.BuzzChangeRate,
	}
}

// ScanTargets returns pointers to the fields in Columns order
func (p *Post) ScanTargets() []any {
	return []any{
		&p.PostID, &p.Timestamp, &p.DayOfWeek, &p.Platform, &p.UserID, &p.Location, &p.Language,
		&p.TextContent, &p.Hashtags, &p.Mentions, &p.Keywords, &p.TopicCategory,
		&p.SentimentScore, &p.SentimentLabel, &p.EmotionType, &p.ToxicityScore,
		&p.LikesCount, &p.SharesCount, &p.CommentsCount, &p.Impressions, &p.EngagementRate,
		&p.BrandName, &p.ProductName, &p.CampaignName, &p.CampaignPhase,
		&p.UserPastSentimentAvg, &p.UserEngagementGrowth, &p.BuzzChangeRate,
	}
}

// Field returns the value of a filterable column, and false for any other column
func (p *Post) Field(column string) (any, bool) {
	switch column {
	case "platform":
		return p.Platform, true
	case "brand_name":
		return p.BrandName, true
	case "campaign_name":
		return p.CampaignName, true
	case "sentiment_label":
		return p.SentimentLabel, true
	case "language":
		return p.Language, true
	case "location":
		return p.Location, true
	case "timestamp":
		return p.Timestamp, true
	case "engagement_rate":
		return p.EngagementRate, true
	case "post_id":
		return p.PostID, true
	case "impressions":
		return p.Impressions, true
	}
	return nil, false
}

// EngagementRate is (likes + shares + comments) / impressions, or 0 without impressions
func EngagementRate(likes, shares, comments, impressions int64) float64 {
	if impressions <= 0 {
		return 0
	}
	return float64(likes+shares+comments) / float64(impressions)
}
