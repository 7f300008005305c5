package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// RateCategory separates basic handling from value-added services
type RateCategory string

const (
	RateBasic RateCategory = "BASIC"
	RateVAS   RateCategory = "VAS"
)

// RateCardEntry is a unit price for one warehouse activity. The dashboard is
// the only writer of the rate card.
type RateCardEntry struct {
	ID       int64           `json:"id"`
	Activity string          `json:"activity" validate:"required"`
	Category RateCategory    `json:"category" validate:"required,oneof=BASIC VAS"`
	Price    decimal.Decimal `json:"price"`
	Unit     string          `json:"unit" validate:"required"`
}

// Key implements Keyed
func (r RateCardEntry) Key() string { return strconv.FormatInt(r.ID, 10) }

// DefaultRateCard returns the rates the dashboard starts with before any
// retained rate card has been received.
func DefaultRateCard() []RateCardEntry {
	return []RateCardEntry{
		{ID: 1, Activity: "Inbound Handling", Category: RateBasic, Price: decimal.NewFromInt(50), Unit: "pallet"},
		{ID: 2, Activity: "Outbound Handling", Category: RateBasic, Price: decimal.NewFromInt(45), Unit: "pallet"},
		{ID: 3, Activity: "Repacking", Category: RateBasic, Price: decimal.NewFromInt(15), Unit: "box"},
		{ID: 4, Activity: "Repacking", Category: RateVAS, Price: decimal.NewFromInt(5), Unit: "box"},
		{ID: 5, Activity: "Relabeling", Category: RateBasic, Price: decimal.NewFromInt(2), Unit: "pcs"},
		{ID: 6, Activity: "Relabeling", Category: RateVAS, Price: decimal.RequireFromString("0.5"), Unit: "pcs"},
		{ID: 7, Activity: "Urgent Delivery", Category: RateVAS, Price: decimal.NewFromInt(200), Unit: "trip"},
	}
}
