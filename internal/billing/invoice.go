// Package billing turns approved cost history into monthly supplier invoices.
package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/views"
)

var (
	// ErrSupplierRequired rejects generation without a concrete supplier
	ErrSupplierRequired = errors.New("please select a specific supplier")
	// ErrNoTransactions rejects generation for an empty period
	ErrNoTransactions = errors.New("no transactions found for this period")
)

// allSuppliers is the selector value meaning "every supplier"
const allSuppliers = "all"

// BuildInvoice aggregates the history of one supplier and month into a DRAFT
// invoice. All approved cost is billed as basic; VAS is reported as zero
// because history only carries the final cost.
func BuildInvoice(id int64, history []models.HistoryRecord, period views.Period, loc *time.Location) (models.Invoice, error) {
	supplier := strings.TrimSpace(period.Supplier)
	if supplier == "" || strings.EqualFold(supplier, allSuppliers) {
		return models.Invoice{}, ErrSupplierRequired
	}
	period.Supplier = supplier

	matched := views.FilterPeriod(history, period, loc)
	if len(matched.Records) == 0 {
		return models.Invoice{}, ErrNoTransactions
	}

	lines := make([]models.InvoiceLine, 0, len(matched.Records))
	for _, r := range matched.Records {
		lines = append(lines, models.InvoiceLine{
			DNNo:       r.DNNo,
			FinalCost:  r.FinalCost,
			ApprovedAt: r.ApprovedAt,
		})
	}

	return models.Invoice{
		ID:        id,
		Period:    period.Label(),
		Supplier:  supplier,
		Basic:     matched.Total,
		VAS:       decimal.Zero,
		Total:     matched.Total,
		Status:    models.InvoiceDraft,
		LineItems: lines,
	}, nil
}

// MarkSent returns inv with status SENT
func MarkSent(inv models.Invoice) models.Invoice {
	inv.Status = models.InvoiceSent
	return inv
}
