package views

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckcosting/internal/models"
)

// StatusAll disables the status filter
const StatusAll = "ALL"

// storageRatePerUnitDay is the estimate shown while filling the form
var storageRatePerUnitDay = decimal.RequireFromString("1.5")

// FilterInbound applies the status filter and a case-insensitive search over
// DN and material. Statuses compare in canonical form so "LE COMPLETED" and
// "LE_COMPLETED" are the same filter.
func FilterInbound(orders []models.InboundOrder, status, q string) []models.InboundOrder {
	want := models.InboundStatus(status).Canonical()
	q = strings.ToLower(strings.TrimSpace(q))

	out := make([]models.InboundOrder, 0, len(orders))
	for _, o := range orders {
		if want != "" && want != StatusAll && o.Status.Canonical() != want {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(o.DNNo), q) &&
			!strings.Contains(strings.ToLower(o.Material), q) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// StorageEstimate is qty * days * 1.5
func StorageEstimate(qty float64, days int) decimal.Decimal {
	return decimal.NewFromFloat(qty).Mul(decimal.NewFromInt(int64(days))).Mul(storageRatePerUnitDay)
}

// OrderDetail joins an inbound order with everything else known about its DN
type OrderDetail struct {
	Order      models.InboundOrder        `json:"order"`
	Activities []models.WarehouseActivity `json:"activities"`
	Finance    *models.ApprovalItem       `json:"finance,omitempty"`
	// ViewOnly is set once requirements were saved; the form is then read-only
	ViewOnly        bool            `json:"view_only"`
	StorageEstimate decimal.Decimal `json:"storage_estimate"`
}

// DetailFor builds the order drawer for one DN
func DetailFor(order models.InboundOrder, activities []models.WarehouseActivity, approvals []models.ApprovalItem) OrderDetail {
	d := OrderDetail{
		Order:           order,
		Activities:      []models.WarehouseActivity{},
		ViewOnly:        order.SavedRequirements != nil,
		StorageEstimate: decimal.Zero,
	}
	for _, a := range activities {
		if a.DNNo == order.DNNo {
			d.Activities = append(d.Activities, a)
		}
	}
	for i := range approvals {
		if approvals[i].DNNo == order.DNNo {
			fin := approvals[i]
			d.Finance = &fin
			break
		}
	}
	if order.SavedRequirements != nil {
		d.StorageEstimate = StorageEstimate(order.Qty, order.SavedRequirements.StorageDays)
	}
	return d
}
