package sync

import "github.com/xelth-com/eckcosting/internal/models"

// activityFlags maps an activity label to the pricing flag it switches on.
// Labels match exactly; "Activity 12" must not trip the "Activity 1" rule.
var activityFlags = map[string]string{
	"Activity 1": "urgent_delivery",
	"Activity 2": "repacking",
	"Activity 3": "temperature_control",
	"Activity 4": "loading",
}

// ActivityFlags returns the pricing flags for an activity label. Unknown
// labels yield an empty map.
func ActivityFlags(label string) map[string]interface{} {
	flags := make(map[string]interface{}, 1)
	if flag, ok := activityFlags[label]; ok {
		flags[flag] = true
	}
	return flags
}

// ActivityRequirements builds the requirements map sent when an activity is
// logged manually
func ActivityRequirements(a models.WarehouseActivity) map[string]interface{} {
	req := ActivityFlags(a.Activity)
	req["manual_activity_name"] = a.Activity
	req["qty"] = a.Qty
	return req
}
