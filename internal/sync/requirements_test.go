package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xelth-com/eckcosting/internal/models"
)

func TestActivityFlagsExactMatch(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"urgent_delivery": true}, ActivityFlags("Activity 1"))
	assert.Equal(t, map[string]interface{}{"repacking": true}, ActivityFlags("Activity 2"))
	assert.Equal(t, map[string]interface{}{"temperature_control": true}, ActivityFlags("Activity 3"))
	assert.Equal(t, map[string]interface{}{"loading": true}, ActivityFlags("Activity 4"))

	for _, label := range []string{"Activity 12", "Activity 2 (Repacking)", "activity 1", " Activity 3", "Repacking", ""} {
		assert.Empty(t, ActivityFlags(label), label)
	}
}

func TestActivityRequirements(t *testing.T) {
	req := ActivityRequirements(models.WarehouseActivity{Activity: "Activity 2", Qty: 10})
	assert.Equal(t, map[string]interface{}{
		"manual_activity_name": "Activity 2",
		"qty":                  10.0,
		"repacking":            true,
	}, req)
}
