package models

import "github.com/shopspring/decimal"

// HistoryRecord is an approved, final cost for a delivery note
type HistoryRecord struct {
	DNNo       string          `json:"dn_no"`
	FinalCost  decimal.Decimal `json:"final_cost"`
	ApprovedAt string          `json:"approved_at"`
	Supplier   string          `json:"supplier,omitempty"`
	Status     string          `json:"status,omitempty"`

	Raw map[string]interface{} `json:"-"`
}

// Key implements Keyed
func (h HistoryRecord) Key() string { return h.DNNo }

// SetRaw stores the record as received on the wire
func (h *HistoryRecord) SetRaw(raw map[string]interface{}) { h.Raw = raw }
