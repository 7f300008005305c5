package models

import "github.com/shopspring/decimal"

// AuditAction is the operator's decision on a computed cost
type AuditAction string

const (
	AuditApprove AuditAction = "APPROVE"
	AuditReject  AuditAction = "REJECT"
)

// Valid reports whether the action is one the backend understands
func (a AuditAction) Valid() bool {
	return a == AuditApprove || a == AuditReject
}

// ApprovalItem is a cost computed by the rules backend and awaiting audit
type ApprovalItem struct {
	DNNo      string          `json:"dn_no"`
	BasicCost decimal.Decimal `json:"basic_cost"`
	VASCost   decimal.Decimal `json:"vas_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Supplier  string          `json:"supplier,omitempty"`

	// Raw keeps the record as received; aggregates probe it for cost fields
	// that older backends named differently.
	Raw map[string]interface{} `json:"-"`
}

// Key implements Keyed
func (a ApprovalItem) Key() string { return a.DNNo }

// AuditRequest is the payload of the audit-result action channel
type AuditRequest struct {
	DNNo    string          `json:"dn_no"`
	Action  AuditAction     `json:"action"`
	Total   decimal.Decimal `json:"total"`
	Comment string          `json:"comment"`
}

// SetRaw stores the record as received on the wire
func (a *ApprovalItem) SetRaw(raw map[string]interface{}) { a.Raw = raw }
