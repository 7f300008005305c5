package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// InvoiceStatus tracks whether an invoice left the building
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "DRAFT"
	InvoiceSent  InvoiceStatus = "SENT"
)

// InvoiceLine is one approved DN billed on an invoice
type InvoiceLine struct {
	DNNo       string          `json:"dn_no"`
	FinalCost  decimal.Decimal `json:"final_cost"`
	ApprovedAt string          `json:"approved_at"`
}

// Invoice aggregates a supplier's approved costs for one month
type Invoice struct {
	ID        int64           `json:"id"`
	Period    string          `json:"period"` // e.g. "December 2025"
	Supplier  string          `json:"supplier"`
	Basic     decimal.Decimal `json:"basic"`
	VAS       decimal.Decimal `json:"vas"`
	Total     decimal.Decimal `json:"total"`
	Status    InvoiceStatus   `json:"status"`
	LineItems []InvoiceLine   `json:"line_items"`
}

// Key implements Keyed
func (i Invoice) Key() string { return strconv.FormatInt(i.ID, 10) }
