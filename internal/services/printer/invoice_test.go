package printer

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckcosting/internal/models"
)

func sampleInvoice() models.Invoice {
	return models.Invoice{
		ID:       1733000000000,
		Period:   "December 2025",
		Supplier: "Warehouse Supplier A",
		Basic:    decimal.NewFromInt(350),
		VAS:      decimal.Zero,
		Total:    decimal.NewFromInt(350),
		Status:   models.InvoiceDraft,
		LineItems: []models.InvoiceLine{
			{DNNo: "DN-001", FinalCost: decimal.NewFromInt(150), ApprovedAt: "2025-12-03T10:00:00Z"},
			{DNNo: "DN-002", FinalCost: decimal.NewFromInt(200), ApprovedAt: "2025-12-09T16:30:00Z"},
		},
	}
}

func TestInvoicePDF(t *testing.T) {
	out, err := InvoicePDF(sampleInvoice(), InvoiceOptions{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "output is not a PDF")
}

func TestInvoicePDFRequiresID(t *testing.T) {
	inv := sampleInvoice()
	inv.ID = 0
	_, err := InvoicePDF(inv, InvoiceOptions{})
	assert.Error(t, err)
}

func TestQRContent(t *testing.T) {
	assert.Equal(t, "INV-1733000000000|Warehouse Supplier A|December 2025|350.00", QRContent(sampleInvoice()))
}
