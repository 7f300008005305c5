// Package views derives read-only projections from store collections. Every
// function is pure: inputs are never modified.
package views

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckcosting/internal/models"
)

// costFields is probed in order for a record's cost. Backends have named the
// field differently over time.
var costFields = []string{"total", "totalCost", "total_cost", "cost", "price"}

// UnknownSupplier groups records that carry no supplier
const UnknownSupplier = "Unknown"

// SupplierTotal is one bar of the supplier cost chart
type SupplierTotal struct {
	Name     string          `json:"name"`      // display name, "Warehouse " stripped
	FullName string          `json:"full_name"` // supplier as received
	Value    decimal.Decimal `json:"value"`
}

// CostOf returns the first truthy candidate cost field of a raw record. Zero,
// empty strings, false and null are skipped; a present but unparseable value
// ends the search and counts as zero.
func CostOf(raw map[string]interface{}) decimal.Decimal {
	for _, field := range costFields {
		v, ok := raw[field]
		if !ok || !truthy(v) {
			continue
		}
		return toDecimal(v)
	}
	return decimal.Zero
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case string:
		return t != ""
	case decimal.Decimal:
		return !t.IsZero()
	}
	return true
}

func toDecimal(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case bool:
		return decimal.NewFromInt(1)
	case decimal.Decimal:
		return t
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

// SupplierTotals folds raw records by supplier, summing CostOf each record.
// The result is keyed by the supplier as received.
func SupplierTotals(records []map[string]interface{}) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		supplier, _ := r["supplier"].(string)
		if supplier == "" {
			supplier = UnknownSupplier
		}
		totals[supplier] = totals[supplier].Add(CostOf(r))
	}
	return totals
}

// SupplierChart turns SupplierTotals into chart rows sorted by display name
func SupplierChart(records []map[string]interface{}) []SupplierTotal {
	totals := SupplierTotals(records)
	out := make([]SupplierTotal, 0, len(totals))
	for full, value := range totals {
		out = append(out, SupplierTotal{
			Name:     strings.Replace(full, "Warehouse ", "", 1),
			FullName: full,
			Value:    value,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].FullName < out[j].FullName
	})
	return out
}

// ApprovalRecords exposes approval items in raw form. Items decoded off the
// wire keep their original record; locally built ones get a synthetic one.
func ApprovalRecords(items []models.ApprovalItem) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		if it.Raw != nil {
			out = append(out, it.Raw)
			continue
		}
		out = append(out, map[string]interface{}{
			"dn_no":      it.DNNo,
			"supplier":   it.Supplier,
			"total_cost": it.TotalCost,
		})
	}
	return out
}

// HistoryRecords exposes history records in raw form. The final cost is
// reported as "total" for synthetic records so the fallback chain finds it.
func HistoryRecords(records []models.HistoryRecord) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(records))
	for _, h := range records {
		if h.Raw != nil {
			out = append(out, h.Raw)
			continue
		}
		out = append(out, map[string]interface{}{
			"dn_no":    h.DNNo,
			"supplier": h.Supplier,
			"total":    h.FinalCost,
		})
	}
	return out
}

// ApprovalSummary is the KPI block above the approval queue
type ApprovalSummary struct {
	Count      int             `json:"count"`
	BasicTotal decimal.Decimal `json:"basic_total"`
	VASTotal   decimal.Decimal `json:"vas_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Suppliers  []SupplierTotal `json:"suppliers"`
}

// SummarizeApprovals sums basic and VAS costs and builds the supplier chart
func SummarizeApprovals(items []models.ApprovalItem) ApprovalSummary {
	s := ApprovalSummary{
		Count:      len(items),
		BasicTotal: decimal.Zero,
		VASTotal:   decimal.Zero,
	}
	for _, it := range items {
		s.BasicTotal = s.BasicTotal.Add(it.BasicCost)
		s.VASTotal = s.VASTotal.Add(it.VASCost)
	}
	s.GrandTotal = s.BasicTotal.Add(s.VASTotal)
	s.Suppliers = SupplierChart(ApprovalRecords(items))
	return s
}

// FilterApprovals keeps items whose DN contains q, case-insensitively
func FilterApprovals(items []models.ApprovalItem, q string) []models.ApprovalItem {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]models.ApprovalItem, 0, len(items))
	for _, it := range items {
		if q == "" || strings.Contains(strings.ToLower(it.DNNo), q) {
			out = append(out, it)
		}
	}
	return out
}

// FormatYuan renders an amount the way the dashboard shows money
func FormatYuan(d decimal.Decimal) string {
	return "¥" + d.StringFixed(2)
}

// parseInt is strconv.Atoi that tolerates surrounding whitespace
func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
