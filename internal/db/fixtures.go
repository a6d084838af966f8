package db

import (
	"time"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
)

func fixtureTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// PostFixtures provides sample posts for seeding development databases
func PostFixtures() []entities.Post {
	return []entities.Post{
		{
			PostID:               "mock_001",
			Timestamp:            fixtureTime("2024-12-09 11:26:15"),
			DayOfWeek:            "Monday",
			Platform:             "Instagram",
			UserID:               "user_001",
			Location:             "Melbourne, Australia",
			Language:             "en",
			TextContent:          "Just tried the new product from Google. Amazing experience! #Tech",
			Hashtags:             "#Tech",
			Mentions:             "@GoogleSupport",
			Keywords:             "innovative, amazing, quality",
			TopicCategory:        "Product",
			SentimentScore:       0.85,
			SentimentLabel:       entities.SentimentPositive,
			EmotionType:          "Happy",
			ToxicityScore:        0.05,
			LikesCount:           1264,
			SharesCount:          342,
			CommentsCount:        156,
			Impressions:          8991,
			EngagementRate:       0.195,
			BrandName:            "Google",
			ProductName:          "Pixel Pro",
			CampaignName:         "Innovation2024",
			CampaignPhase:        "Launch",
			UserPastSentimentAvg: 0.75,
			UserEngagementGrowth: 0.15,
			BuzzChangeRate:       12.5,
		},
		{
			PostID:               "mock_002",
			Timestamp:            fixtureTime("2024-12-08 15:30:22"),
			DayOfWeek:            "Sunday",
			Platform:             "Twitter",
			UserID:               "user_002",
			Location:             "New York, USA",
			Language:             "en",
			TextContent:          "Disappointed with Microsoft latest update. Buggy and slow. #TechFail",
			Hashtags:             "#TechFail",
			Mentions:             "@MicrosoftSupport",
			Keywords:             "buggy, slow, disappointed",
			TopicCategory:        "Support",
			SentimentScore:       -0.65,
			SentimentLabel:       entities.SentimentNegative,
			EmotionType:          "Angry",
			ToxicityScore:        0.35,
			LikesCount:           89,
			SharesCount:          245,
			CommentsCount:        67,
			Impressions:          5432,
			EngagementRate:       0.074,
			BrandName:            "Microsoft",
			ProductName:          "Windows 11",
			CampaignName:         "UpdateWave",
			CampaignPhase:        "Post-Launch",
			UserPastSentimentAvg: 0.25,
			UserEngagementGrowth: -0.22,
			BuzzChangeRate:       -8.3,
		},
		{
			PostID:               "mock_003",
			Timestamp:            fixtureTime("2024-12-08 09:12:40"),
			DayOfWeek:            "Sunday",
			Platform:             "YouTube",
			UserID:               "user_003",
			Location:             "London, UK",
			Language:             "en",
			TextContent:          "Unboxing the Pixel Pro, full review coming soon",
			Hashtags:             "#Unboxing",
			Mentions:             "@Google",
			Keywords:             "unboxing, review",
			TopicCategory:        "Review",
			SentimentScore:       0.05,
			SentimentLabel:       entities.SentimentNeutral,
			EmotionType:          "Curious",
			ToxicityScore:        0.02,
			LikesCount:           3410,
			SharesCount:          512,
			CommentsCount:        890,
			Impressions:          24100,
			EngagementRate:       0.1996,
			BrandName:            "Google",
			ProductName:          "Pixel Pro",
			CampaignName:         "Innovation2024",
			CampaignPhase:        "Launch",
			UserPastSentimentAvg: 0.4,
			UserEngagementGrowth: 0.08,
			BuzzChangeRate:       5.1,
		},
		{
			PostID:               "mock_004",
			Timestamp:            fixtureTime("2024-12-07 18:45:03"),
			DayOfWeek:            "Saturday",
			Platform:             "Facebook",
			UserID:               "user_004",
			Location:             "Madrid, Spain",
			Language:             "es",
			TextContent:          "Me encanta la nueva Surface. Muy rápida.",
			Hashtags:             "#Surface",
			Mentions:             "@Microsoft",
			Keywords:             "rápida, nueva",
			TopicCategory:        "Product",
			SentimentScore:       0.7,
			SentimentLabel:       entities.SentimentPositive,
			EmotionType:          "Excited",
			ToxicityScore:        0.01,
			LikesCount:           640,
			SharesCount:          80,
			CommentsCount:        45,
			Impressions:          7200,
			EngagementRate:       0.1063,
			BrandName:            "Microsoft",
			ProductName:          "Surface Laptop",
			CampaignName:         "UpdateWave",
			CampaignPhase:        "Launch",
			UserPastSentimentAvg: 0.6,
			UserEngagementGrowth: 0.11,
			BuzzChangeRate:       3.4,
		},
		{
			PostID:               "mock_005",
			Timestamp:            fixtureTime("2024-12-06 07:20:11"),
			DayOfWeek:            "Friday",
			Platform:             "Reddit",
			UserID:               "user_005",
			Location:             "Toronto, Canada",
			Language:             "en",
			TextContent:          "Anyone else seeing battery drain after the Galaxy update?",
			Hashtags:             "",
			Mentions:             "@SamsungMobile",
			Keywords:             "battery, drain, update",
			TopicCategory:        "Support",
			SentimentScore:       -0.4,
			SentimentLabel:       entities.SentimentNegative,
			EmotionType:          "Frustrated",
			ToxicityScore:        0.12,
			LikesCount:           210,
			SharesCount:          14,
			CommentsCount:        188,
			Impressions:          3900,
			EngagementRate:       0.1056,
			BrandName:            "Samsung",
			ProductName:          "Galaxy S24",
			CampaignName:         "GalaxyNext",
			CampaignPhase:        "Post-Launch",
			UserPastSentimentAvg: 0.1,
			UserEngagementGrowth: -0.05,
			BuzzChangeRate:       -2.7,
		},
		{
			PostID:               "mock_006",
			Timestamp:            fixtureTime("2024-12-06 21:02:57"),
			DayOfWeek:            "Friday",
			Platform:             "Instagram",
			UserID:               "user_006",
			Location:             "Seoul, South Korea",
			Language:             "ko",
			TextContent:          "Galaxy S24 camera at night #nightshot",
			Hashtags:             "#nightshot",
			Mentions:             "@Samsung",
			Keywords:             "camera, night",
			TopicCategory:        "Product",
			SentimentScore:       0.1,
			SentimentLabel:       entities.SentimentNeutral,
			EmotionType:          "Calm",
			ToxicityScore:        0.0,
			LikesCount:           2020,
			SharesCount:          301,
			CommentsCount:        99,
			Impressions:          15800,
			EngagementRate:       0.1532,
			BrandName:            "Samsung",
			ProductName:          "Galaxy S24",
			CampaignName:         "GalaxyNext",
			CampaignPhase:        "Teaser",
			UserPastSentimentAvg: 0.3,
			UserEngagementGrowth: 0.2,
			BuzzChangeRate:       7.9,
		},
	}
}
