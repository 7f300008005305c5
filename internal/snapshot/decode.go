package snapshot

import (
	"encoding/json"

	"github.com/xelth-com/eckcosting/internal/models"
)

type rawHolder interface {
	SetRaw(map[string]interface{})
}

// Decode converts normalized records into typed entities. Records that do
// not fit T are skipped and counted instead of failing the whole snapshot.
func Decode[T any](records []json.RawMessage) ([]T, int) {
	out := make([]T, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if !isObject(rec) {
			skipped++
			continue
		}
		var item T
		if err := json.Unmarshal(rec, &item); err != nil {
			skipped++
			continue
		}
		if holder, ok := any(&item).(rawHolder); ok {
			var raw map[string]interface{}
			if err := json.Unmarshal(rec, &raw); err == nil {
				holder.SetRaw(raw)
			}
		}
		out = append(out, item)
	}
	return out, skipped
}

// WithoutSentinel drops placeholder activities the backend emits before any
// real activity exists.
func WithoutSentinel(activities []models.WarehouseActivity, sentinel string) []models.WarehouseActivity {
	if sentinel == "" {
		return activities
	}
	out := make([]models.WarehouseActivity, 0, len(activities))
	for _, a := range activities {
		if a.Activity == sentinel {
			continue
		}
		out = append(out, a)
	}
	return out
}
