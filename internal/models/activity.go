package models

// WarehouseActivity is a single handling activity logged against a DN.
// Timestamp is an ISO-8601 string and doubles as the deletion key.
type WarehouseActivity struct {
	ID        int64   `json:"id,omitempty"`
	DNNo      string  `json:"dn_no" validate:"required"`
	Activity  string  `json:"activity" validate:"required"`
	Qty       float64 `json:"qty" validate:"gt=0"`
	Unit      string  `json:"unit,omitempty"`
	Operator  string  `json:"operator" validate:"required"`
	Status    string  `json:"status,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Key implements Keyed
func (a WarehouseActivity) Key() string { return a.Timestamp }
