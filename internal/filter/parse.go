package filter

import (
	"net/url"
	"strings"
	"time"
)

// Query parameter names accepted by ParseQuery
const (
	ParamPlatforms     = "platforms"
	ParamBrands        = "brands"
	ParamCampaigns     = "campaigns"
	ParamSentiments    = "sentiments"
	ParamLanguages     = "languages"
	ParamLocations     = "locations"
	ParamStartDate     = "startDate"
	ParamEndDate       = "endDate"
	ParamMinEngagement = "minEngagement"
	ParamMaxEngagement = "maxEngagement"
	ParamLimit         = "limit"
	ParamOffset        = "offset"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses an instant in one of the accepted layouts. Values without a zone are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseQuery collects filter parameters from a URL query. Lists are comma separated.
// A date range is only taken when both startDate and endDate are present, and likewise
// for minEngagement/maxEngagement.
func ParseQuery(values url.Values) RawFilter {
	raw := RawFilter{
		Platforms:  splitList(values.Get(ParamPlatforms)),
		Brands:     splitList(values.Get(ParamBrands)),
		Campaigns:  splitList(values.Get(ParamCampaigns)),
		Sentiments: splitList(values.Get(ParamSentiments)),
		Languages:  splitList(values.Get(ParamLanguages)),
		Locations:  splitList(values.Get(ParamLocations)),
		Limit:      values.Get(ParamLimit),
		Offset:     values.Get(ParamOffset),
	}

	start, end := values.Get(ParamStartDate), values.Get(ParamEndDate)
	if start != "" && end != "" {
		raw.DateRange = &RawDateRange{Start: start, End: end}
	}

	min, max := values.Get(ParamMinEngagement), values.Get(ParamMaxEngagement)
	if min != "" && max != "" {
		raw.EngagementRange = &RawRange{Min: min, Max: max}
	}

	return raw
}

// Validate reports the first field of raw that a caller should reject outright
// instead of letting Normalize drop it. It returns "" when raw is acceptable.
func Validate(raw RawFilter) string {
	if raw.DateRange != nil {
		if _, ok := ParseTime(raw.DateRange.Start); !ok {
			return ParamStartDate
		}
		if _, ok := ParseTime(raw.DateRange.End); !ok {
			return ParamEndDate
		}
	}
	if raw.EngagementRange != nil {
		if _, ok := parseFloat(raw.EngagementRange.Min); !ok {
			return ParamMinEngagement
		}
		if _, ok := parseFloat(raw.EngagementRange.Max); !ok {
			return ParamMaxEngagement
		}
	}
	return ""
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
