package models

// RequirementForm is the handling form an operator fills in for an inbound order
type RequirementForm struct {
	UrgentDelivery      bool   `json:"urgent_delivery"`
	Repacking           bool   `json:"repacking"`
	TemperatureControl  bool   `json:"temperature_control"`
	SpecialInstructions string `json:"special_instructions"`
	CompletionDate      string `json:"completion_date"`
	Remarks             string `json:"remarks"`
	StorageDays         int    `json:"storage_days" validate:"gte=0,lte=30"`
}

// Flags converts the form into the free-form requirements map the backend expects
func (f RequirementForm) Flags() map[string]interface{} {
	return map[string]interface{}{
		"urgent_delivery":      f.UrgentDelivery,
		"repacking":            f.Repacking,
		"temperature_control":  f.TemperatureControl,
		"special_instructions": f.SpecialInstructions,
		"completion_date":      f.CompletionDate,
		"remarks":              f.Remarks,
		"storage_days":         f.StorageDays,
	}
}

// SubmitRequest is the payload of the submit-requirement action channel
type SubmitRequest struct {
	DNNo         string                 `json:"dn_no"`
	Operator     string                 `json:"operator"`
	Destination  string                 `json:"destination"`
	Supplier     string                 `json:"supplier,omitempty"`
	Requirements map[string]interface{} `json:"requirements"`
	Timestamp    string                 `json:"timestamp,omitempty"`
}
