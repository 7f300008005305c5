package views

import (
	"strings"

	"github.com/xelth-com/eckcosting/internal/models"
)

// TimelineSize is how many activities the live feed shows
const TimelineSize = 4

// CleanActivityName drops a parenthesised suffix: "Activity 2 (Repacking)"
// becomes "Activity 2"
func CleanActivityName(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// SearchActivities matches q against the DN or the cleaned activity name
func SearchActivities(list []models.WarehouseActivity, q string) []models.WarehouseActivity {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]models.WarehouseActivity, 0, len(list))
	for _, a := range list {
		if q == "" ||
			strings.Contains(strings.ToLower(a.DNNo), q) ||
			strings.Contains(strings.ToLower(CleanActivityName(a.Activity)), q) {
			out = append(out, a)
		}
	}
	return out
}

// Timeline returns the most recent activities; the log is newest first
func Timeline(list []models.WarehouseActivity) []models.WarehouseActivity {
	n := len(list)
	if n > TimelineSize {
		n = TimelineSize
	}
	out := make([]models.WarehouseActivity, n)
	copy(out, list[:n])
	return out
}
