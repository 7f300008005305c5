package models

import (
	"strings"
)

// InboundStatus defines the lifecycle of an inbound delivery note
type InboundStatus string

const (
	InboundStatusNew         InboundStatus = "NEW"          // Waiting for requirements
	InboundStatusLECompleted InboundStatus = "LE_COMPLETED" // Logistics execution done
)

// Canonical folds the spaced spelling ("LE COMPLETED") some publishers use
// onto the underscore form.
func (s InboundStatus) Canonical() InboundStatus {
	return InboundStatus(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(string(s))), " ", "_"))
}

// InboundOrder represents a delivery note (DN) published by the upstream inbound list
type InboundOrder struct {
	DNNo              string           `json:"dn_no"`
	Material          string           `json:"material"`
	Qty               float64          `json:"qty"`
	Destination       string           `json:"destination"`
	Status            InboundStatus    `json:"status"`
	Supplier          string           `json:"supplier,omitempty"`
	SavedRequirements *RequirementForm `json:"saved_requirements,omitempty"`
}

// Key implements Keyed
func (o InboundOrder) Key() string { return o.DNNo }

// IsNew returns true while the order still accepts a requirement submission
func (o InboundOrder) IsNew() bool {
	return o.Status.Canonical() == InboundStatusNew
}
