package dashboard

import (
	"strings"
	"time"

	"github.com/diewo77/go-retail/internal/apperr"
	"github.com/diewo77/go-retail/validation"
)

// Range names the windows accepted by the overview endpoint.
type Range string

const (
	RangeAll    Range = ""
	RangeToday  Range = "today"
	RangeWeek   Range = "week"
	RangeMonth  Range = "month"
	RangeCustom Range = "custom"
)

// Selector is a parsed range request. From and To are only set for custom ranges.
type Selector struct {
	Range Range
	From  time.Time
	To    time.Time
}

// ParseSelector reads range/from/to query values. Dates are YYYY-MM-DD or
// RFC 3339 and are interpreted in loc. Unknown ranges, and custom ranges
// missing a bound, select everything.
func ParseSelector(rng, from, to string, loc *time.Location) (Selector, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(rng))); r {
	case RangeToday, RangeWeek, RangeMonth:
		return Selector{Range: r}, nil
	case RangeCustom:
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return Selector{Range: RangeAll}, nil
		}
		v := validation.Violations{}
		f, err := parseDay(from, loc)
		if err != nil {
			v["from"] = "invalid_date"
		}
		t, err := parseDay(to, loc)
		if err != nil {
			v["to"] = "invalid_date"
		}
		if v.Empty() && t.Before(f) {
			v["to"] = "before_from"
		}
		if !v.Empty() {
			return Selector{}, apperr.Validation("invalid_range", v)
		}
		return Selector{Range: RangeCustom, From: f, To: t}, nil
	default:
		return Selector{Range: RangeAll}, nil
	}
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// Window returns the creation-time bounds for s relative to now. Nil bounds are open.
func (s Selector) Window(now time.Time) (from, to *time.Time) {
	today := startOfDay(now)
	switch s.Range {
	case RangeToday:
		return &today, nil
	case RangeWeek:
		f := today.AddDate(0, 0, -7)
		return &f, nil
	case RangeMonth:
		f := today.AddDate(0, -1, 0)
		return &f, nil
	case RangeCustom:
		f := startOfDay(s.From)
		t := startOfDay(s.To).AddDate(0, 0, 1).Add(-time.Millisecond)
		return &f, &t
	default:
		return nil, nil
	}
}

// Key identifies the window for caching.
func (s Selector) Key() string {
	if s.Range == RangeCustom {
		return string(s.Range) + ":" + s.From.Format("2006-01-02") + ":" + s.To.Format("2006-01-02")
	}
	if s.Range == RangeAll {
		return "all"
	}
	return string(s.Range)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
