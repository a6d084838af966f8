package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
)

const sample = `post_id,timestamp,platform,brand_name,campaign_name,sentiment_label,likes_count,shares_count,comments_count,impressions,engagement_rate,extra
p1,2024-12-09 11:26:15,Instagram,Google,Innovation2024,Positive,1264,342,156,8991,0.195,x
p2,2024-12-08T15:30:22Z,Twitter,Microsoft,UpdateWave,Neutral,50,25,25,1000,,y
`

const header = "post_id,timestamp,platform,brand_name,campaign_name,sentiment_label,likes_count,impressions,engagement_rate,sentiment_score,toxicity_score\n"

func TestReadAll(t *testing.T) {
	r, err := NewReader(strings.NewReader(sample))
	require.NoError(t, err)

	posts, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "p1", posts[0].PostID)
	assert.Equal(t, time.Date(2024, 12, 9, 11, 26, 15, 0, time.UTC), posts[0].Timestamp)
	assert.Equal(t, 0.195, posts[0].EngagementRate)
	assert.Equal(t, int64(8991), posts[0].Impressions)
	assert.Equal(t, entities.SentimentPositive, posts[0].SentimentLabel)

	// Blank engagement_rate is derived from the counters
	assert.Equal(t, 0.1, posts[1].EngagementRate)
	assert.Equal(t, time.Date(2024, 12, 8, 15, 30, 22, 0, time.UTC), posts[1].Timestamp)
}

func TestNewReader_MissingColumn(t *testing.T) {
	_, err := NewReader(strings.NewReader("post_id,platform\np1,Instagram\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")

	_, err = NewReader(strings.NewReader("post_id,timestamp,platform,brand_name,campaign_name\np1,2024-12-09,Instagram,Google,C1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentiment_label")
}

func TestNext_ReportsLine(t *testing.T) {
	data := header +
		"p1,2024-12-09,Instagram,Google,C1,Positive,12,100,,,\n" +
		"p2,2024-12-09,Instagram,Google,C1,Positive,lots,100,,,\n"
	r, err := NewReader(strings.NewReader(data))
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "likes_count")
}

func TestNext_RejectsBadRows(t *testing.T) {
	testCases := map[string]struct {
		row    string
		reason string
	}{
		"bad timestamp":         {"p1,yesterday,Instagram,Google,C1,Positive,1,10,,,", "timestamp"},
		"empty id":              {",2024-12-09,Instagram,Google,C1,Positive,1,10,,,", "post_id"},
		"empty platform":        {"p1,2024-12-09,,Google,C1,Positive,1,10,,,", "platform"},
		"unknown sentiment":     {"p1,2024-12-09,Instagram,Google,C1,Ecstatic,1,10,,,", "sentiment_label"},
		"empty sentiment":       {"p1,2024-12-09,Instagram,Google,C1,,1,10,,,", "sentiment_label"},
		"empty brand":           {"p1,2024-12-09,Instagram,,C1,Positive,1,10,,,", "brand_name"},
		"empty campaign":        {"p1,2024-12-09,Instagram,Google,,Positive,1,10,,,", "campaign_name"},
		"negative likes":        {"p1,2024-12-09,Instagram,Google,C1,Positive,-3,10,,,", "likes_count"},
		"negative float count":  {"p1,2024-12-09,Instagram,Google,C1,Positive,-3.0,10,,,", "likes_count"},
		"fractional count":      {"p1,2024-12-09,Instagram,Google,C1,Positive,1.5,10,,,", "likes_count"},
		"overflowing count":     {"p1,2024-12-09,Instagram,Google,C1,Positive,1,1e19,,,", "impressions"},
		"NaN engagement":        {"p1,2024-12-09,Instagram,Google,C1,Positive,1,10,NaN,,", "engagement_rate"},
		"infinite engagement":   {"p1,2024-12-09,Instagram,Google,C1,Positive,1,10,+Inf,,", "engagement_rate"},
		"NaN sentiment score":   {"p1,2024-12-09,Instagram,Google,C1,Positive,1,10,0.1,NaN,", "sentiment_score"},
		"infinite toxicity":     {"p1,2024-12-09,Instagram,Google,C1,Positive,1,10,0.1,0.2,-Inf", "toxicity_score"},
		"out of range toxicity": {"p1,2024-12-09,Instagram,Google,C1,Positive,1,10,0.1,0.2,1e400", "toxicity_score"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			r, err := NewReader(strings.NewReader(header + tc.row + "\n"))
			require.NoError(t, err)
			_, err = r.Next()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.reason)
		})
	}
}

func TestCountsWrittenAsFloats(t *testing.T) {
	r, err := NewReader(strings.NewReader(header + "p1,2024-12-09,Instagram,Google,C1,Positive,1264.0,100,,,\n"))
	require.NoError(t, err)

	p, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1264), p.LikesCount)
	assert.InDelta(t, 12.64, p.EngagementRate, 1e-9)
}
