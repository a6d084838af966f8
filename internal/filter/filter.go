// Package filter turns untrusted, string-typed query input into a bounded Filter.
//
// Normalize is total: every malformed field degrades to a documented default
// or is dropped. It never returns an error and never panics.
package filter

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultLimit is the page size used when none (or a non-positive one) is given
	DefaultLimit = 1000
	// MaxLimit is the hard cap on page size
	MaxLimit = 10000

	// MinEngagement and MaxEngagement bound the engagement range.
	// NOTE: posts store engagement_rate as a fraction (0.195), but the range is clamped
	// on a 0-100 percentage scale. The clamp is kept as-is; callers must pass matching units.
	MinEngagement = 0.0
	MaxEngagement = 100.0
)

// DateRange is an inclusive instant range
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EngagementRange is an inclusive engagement-rate range. Min > Max matches nothing.
type EngagementRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Filter is the normalized query descriptor. Nil slices and pointers mean "no constraint".
type Filter struct {
	Platforms       []string         `json:"platforms,omitempty"`
	Brands          []string         `json:"brands,omitempty"`
	Campaigns       []string         `json:"campaigns,omitempty"`
	Sentiments      []string         `json:"sentiments,omitempty"`
	Languages       []string         `json:"languages,omitempty"`
	Locations       []string         `json:"locations,omitempty"`
	DateRange       *DateRange       `json:"dateRange,omitempty"`
	EngagementRange *EngagementRange `json:"engagementRange,omitempty"`
	Limit           int              `json:"limit"`
	Offset          int              `json:"offset"`
}

// RawDateRange holds date bounds exactly as received
type RawDateRange struct {
	Start string
	End   string
}

// RawRange holds numeric bounds exactly as received
type RawRange struct {
	Min string
	Max string
}

// RawFilter is untrusted filter input. Nothing in it has been checked.
type RawFilter struct {
	Platforms       []string
	Brands          []string
	Campaigns       []string
	Sentiments      []string
	Languages       []string
	Locations       []string
	DateRange       *RawDateRange
	EngagementRange *RawRange
	Limit           string
	Offset          string
}

// Normalize converts raw input into a bounded Filter
func Normalize(raw RawFilter) Filter {
	f := Filter{
		Platforms:  compact(raw.Platforms),
		Brands:     compact(raw.Brands),
		Campaigns:  compact(raw.Campaigns),
		Sentiments: compact(raw.Sentiments),
		Languages:  compact(raw.Languages),
		Locations:  compact(raw.Locations),
		Limit:      normalizeLimit(raw.Limit),
		Offset:     normalizeOffset(raw.Offset),
	}

	if raw.DateRange != nil {
		start, okStart := ParseTime(raw.DateRange.Start)
		end, okEnd := ParseTime(raw.DateRange.End)
		if okStart && okEnd {
			f.DateRange = &DateRange{Start: start, End: end}
		}
	}

	if raw.EngagementRange != nil {
		min, okMin := parseFloat(raw.EngagementRange.Min)
		max, okMax := parseFloat(raw.EngagementRange.Max)
		if okMin && okMax {
			// Crossed bounds are kept, not swapped.
			f.EngagementRange = &EngagementRange{
				Min: math.Max(MinEngagement, min),
				Max: math.Min(MaxEngagement, max),
			}
		}
	}

	return f
}

// IsEmpty reports whether the filter constrains nothing (pagination aside)
func (f Filter) IsEmpty() bool {
	return len(f.Platforms) == 0 && len(f.Brands) == 0 && len(f.Campaigns) == 0 &&
		len(f.Sentiments) == 0 && len(f.Languages) == 0 && len(f.Locations) == 0 &&
		f.DateRange == nil && f.EngagementRange == nil
}

// Raw renders the filter back into untrusted form. Normalize(f.Raw()) == f for any normalized f.
func (f Filter) Raw() RawFilter {
	raw := RawFilter{
		Platforms:  clone(f.Platforms),
		Brands:     clone(f.Brands),
		Campaigns:  clone(f.Campaigns),
		Sentiments: clone(f.Sentiments),
		Languages:  clone(f.Languages),
		Locations:  clone(f.Locations),
		Limit:      strconv.Itoa(f.Limit),
		Offset:     strconv.Itoa(f.Offset),
	}
	if f.DateRange != nil {
		raw.DateRange = &RawDateRange{
			Start: f.DateRange.Start.UTC().Format(time.RFC3339Nano),
			End:   f.DateRange.End.UTC().Format(time.RFC3339Nano),
		}
	}
	if f.EngagementRange != nil {
		raw.EngagementRange = &RawRange{
			Min: strconv.FormatFloat(f.EngagementRange.Min, 'g', -1, 64),
			Max: strconv.FormatFloat(f.EngagementRange.Max, 'g', -1, 64),
		}
	}
	return raw
}

// Key is a canonical string for the filter, stable across equal filters
func (f Filter) Key() string {
	var b strings.Builder
	writeSet := func(name string, values []string) {
		b.WriteString(name)
		b.WriteByte('=')
		for i, v := range values {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(v))
		}
		b.WriteByte(';')
	}

	raw := f.Raw()
	writeSet("platforms", raw.Platforms)
	writeSet("brands", raw.Brands)
	writeSet("campaigns", raw.Campaigns)
	writeSet("sentiments", raw.Sentiments)
	writeSet("languages", raw.Languages)
	writeSet("locations", raw.Locations)
	if raw.DateRange != nil {
		b.WriteString("date=" + raw.DateRange.Start + ".." + raw.DateRange.End + ";")
	}
	if raw.EngagementRange != nil {
		b.WriteString("engagement=" + raw.EngagementRange.Min + ".." + raw.EngagementRange.Max + ";")
	}
	b.WriteString("limit=" + raw.Limit + ";offset=" + raw.Offset)
	return b.String()
}

// compact strips empty entries. A set left empty is treated as absent.
func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func clone(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

func normalizeLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

func normalizeOffset(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
