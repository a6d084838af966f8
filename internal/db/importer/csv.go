// Package importer loads social-media post datasets from CSV.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/filter"
)

// requiredColumns must be present in the header
var requiredColumns = []string{"post_id", "timestamp", "platform", "sentiment_label", "brand_name", "campaign_name"}

// maxCount is the first float that no longer fits an int64
const maxCount = float64(math.MaxInt64)

// Reader decodes posts from a CSV stream whose header names post columns.
// Unknown columns are ignored and missing optional columns keep their zero value.
type Reader struct {
	r     *csv.Reader
	index map[string]int
	line  int
}

// NewReader reads the header row and checks the required columns
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", col)
		}
	}

	return &Reader{r: cr, index: index, line: 1}, nil
}

// Next decodes the next post. It returns io.EOF after the last row.
func (r *Reader) Next() (entities.Post, error) {
	record, err := r.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return entities.Post{}, io.EOF
		}
		return entities.Post{}, fmt.Errorf("failed to read CSV row: %w", err)
	}
	r.line++

	p, err := r.decode(record)
	if err != nil {
		return entities.Post{}, fmt.Errorf("line %d: %w", r.line, err)
	}
	return p, nil
}

// ReadAll decodes every remaining post
func (r *Reader) ReadAll() ([]entities.Post, error) {
	var posts []entities.Post
	for {
		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			return posts, nil
		}
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
}

func (r *Reader) decode(record []string) (entities.Post, error) {
	d := decoder{record: record, index: r.index}

	p := entities.Post{
		PostID:         d.str("post_id"),
		DayOfWeek:      d.str("day_of_week"),
		Platform:       d.str("platform"),
		UserID:         d.str("user_id"),
		Location:       d.str("location"),
		Language:       d.str("language"),
		TextContent:    d.str("text_content"),
		Hashtags:       d.str("hashtags"),
		Mentions:       d.str("mentions"),
		Keywords:       d.str("keywords"),
		TopicCategory:  d.str("topic_category"),
		SentimentLabel: d.str("sentiment_label"),
		EmotionType:    d.str("emotion_type"),
		BrandName:      d.str("brand_name"),
		ProductName:    d.str("product_name"),
		CampaignName:   d.str("campaign_name"),
		CampaignPhase:  d.str("campaign_phase"),

		SentimentScore:       d.number("sentiment_score"),
		ToxicityScore:        d.number("toxicity_score"),
		UserPastSentimentAvg: d.number("user_past_sentiment_avg"),
		UserEngagementGrowth: d.number("user_engagement_growth"),
		BuzzChangeRate:       d.number("buzz_change_rate"),

		LikesCount:    d.count("likes_count"),
		SharesCount:   d.count("shares_count"),
		CommentsCount: d.count("comments_count"),
		Impressions:   d.count("impressions"),
	}

	ts, ok := filter.ParseTime(d.str("timestamp"))
	if !ok {
		d.fail("timestamp", d.str("timestamp"))
	}
	p.Timestamp = ts

	if raw := d.str("engagement_rate"); raw == "" {
		p.EngagementRate = entities.EngagementRate(p.LikesCount, p.SharesCount, p.CommentsCount, p.Impressions)
	} else {
		p.EngagementRate = d.number("engagement_rate")
	}

	if d.err != nil {
		return entities.Post{}, d.err
	}
	switch {
	case p.PostID == "":
		return entities.Post{}, errors.New("empty post_id")
	case p.Platform == "":
		return entities.Post{}, errors.New("empty platform")
	case p.BrandName == "":
		return entities.Post{}, errors.New("empty brand_name")
	case p.CampaignName == "":
		return entities.Post{}, errors.New("empty campaign_name")
	case !entities.IsSentimentLabel(p.SentimentLabel):
		return entities.Post{}, fmt.Errorf("unknown sentiment_label %q", p.SentimentLabel)
	}
	return p, nil
}

// decoder reads typed cells, keeping the first parse error
type decoder struct {
	record []string
	index  map[string]int
	err    error
}

func (d *decoder) str(col string) string {
	i, ok := d.index[col]
	if !ok || i >= len(d.record) {
		return ""
	}
	return strings.TrimSpace(d.record[i])
}

func (d *decoder) number(col string) float64 {
	s := d.str(col)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		d.fail(col, s)
		return 0
	}
	return v
}

func (d *decoder) count(col string) int64 {
	s := d.str(col)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some exports write counts as 1264.0
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || f < 0 || f >= maxCount {
			d.fail(col, s)
			return 0
		}
		return int64(f)
	}
	if v < 0 {
		d.fail(col, s)
		return 0
	}
	return v
}

func (d *decoder) fail(col, value string) {
	if d.err == nil {
		d.err = fmt.Errorf("invalid %s %q", col, value)
	}
}
