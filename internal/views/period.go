package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckcosting/internal/models"
)

// Period selects one supplier's approved costs for a calendar month
type Period struct {
	Supplier string
	Year     int
	Month    time.Month
}

// PeriodResult is the billing transaction list for a Period
type PeriodResult struct {
	Records []models.HistoryRecord `json:"records"`
	Total   decimal.Decimal        `json:"total"`
}

var monthNames = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		monthNames[strings.ToLower(m.String())] = m
	}
}

// ParseMonth accepts "12", "09" or "December"
func ParseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if m, ok := monthNames[strings.ToLower(s)]; ok {
		return m, nil
	}
	n, err := parseInt(s)
	if err != nil || n < 1 || n > 12 {
		return 0, fmt.Errorf("invalid month %q", s)
	}
	return time.Month(n), nil
}

// ParsePeriod builds a Period from query-string style values
func ParsePeriod(supplier, year, month string) (Period, error) {
	y, err := parseInt(year)
	if err != nil || y < 1 {
		return Period{}, fmt.Errorf("invalid year %q", year)
	}
	m, err := ParseMonth(month)
	if err != nil {
		return Period{}, err
	}
	return Period{Supplier: supplier, Year: y, Month: m}, nil
}

// Label renders the invoice period label, e.g. "December 2025"
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.Month.String(), p.Year)
}

// zoned layouts carry their own offset; local layouts are read in loc
var (
	zonedLayouts = []string{time.RFC3339Nano, time.RFC3339}
	localLayouts = []string{
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
)

// ParseTimestamp reads the timestamp formats seen in approved_at. Date-only
// values are midnight UTC; date-times without an offset are in loc. A run of
// ten or more digits is epoch milliseconds.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ms, ok := epochMillis(s); ok {
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func epochMillis(s string) (int64, bool) {
	if len(s) < 10 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	return ms, err == nil
}

// FilterPeriod returns the records of p.Supplier approved in p's month, as
// seen from loc, and the sum of their final costs. Records with an
// unreadable approved_at never match.
func FilterPeriod(records []models.HistoryRecord, p Period, loc *time.Location) PeriodResult {
	if loc == nil {
		loc = time.Local
	}
	res := PeriodResult{Records: []models.HistoryRecord{}, Total: decimal.Zero}
	for _, r := range records {
		if r.Supplier != p.Supplier {
			continue
		}
		t, ok := ParseTimestamp(r.ApprovedAt, loc)
		if !ok {
			continue
		}
		t = t.In(loc)
		if t.Year() != p.Year || t.Month() != p.Month {
			continue
		}
		res.Records = append(res.Records, r)
		res.Total = res.Total.Add(r.FinalCost)
	}
	return res
}
