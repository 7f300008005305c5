// Package printer renders invoices as PDF documents.
package printer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/views"
)

// InvoiceOptions controls the header of the rendered document
type InvoiceOptions struct {
	Issuer string // printed in the header, e.g. the warehouse operator
	QRSize int    // pixel size of the generated QR image
}

// Reference is the identifier printed on the invoice and encoded in its QR code
func Reference(inv models.Invoice) string {
	return fmt.Sprintf("INV-%d", inv.ID)
}

// QRContent is what a scanner reads from the invoice
func QRContent(inv models.Invoice) string {
	return fmt.Sprintf("%s|%s|%s|%s", Reference(inv), inv.Supplier, inv.Period, inv.Total.StringFixed(2))
}

// InvoicePDF renders one invoice on A4 with its line items and a QR code of
// the reference
func InvoicePDF(inv models.Invoice, opts InvoiceOptions) ([]byte, error) {
	if inv.ID == 0 {
		return nil, errors.New("invoice id is required")
	}
	if opts.QRSize <= 0 {
		opts.QRSize = 256
	}
	if opts.Issuer == "" {
		opts.Issuer = "Warehouse Logistics Costing"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	// core fonts are cp1252, which carries the yuan sign
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(120, 8, tr(opts.Issuer), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(120, 6, tr("Invoice "+Reference(inv)), "", 1, "L", false, 0, "")
	pdf.CellFormat(120, 6, tr("Supplier: "+inv.Supplier), "", 1, "L", false, 0, "")
	pdf.CellFormat(120, 6, tr("Period: "+inv.Period), "", 1, "L", false, 0, "")
	pdf.CellFormat(120, 6, tr("Status: "+string(inv.Status)), "", 1, "L", false, 0, "")

	// QR code top right
	qrPng, err := qrcode.Encode(QRContent(inv), qrcode.Medium, opts.QRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice QR: %w", err)
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("invoice_qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("invoice_qr", 160, 15, 35, 35, false, imgOptions, 0, "")

	pdf.Ln(12)

	// Line items
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(60, 7, "DN", "1", 0, "L", true, 0, "")
	pdf.CellFormat(70, 7, "Approved At", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 7, "Final Cost", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, line := range inv.LineItems {
		pdf.CellFormat(60, 7, tr(line.DNNo), "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 7, tr(line.ApprovedAt), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, tr(views.FormatYuan(line.FinalCost)), "1", 1, "R", false, 0, "")
	}

	// Totals
	pdf.Ln(4)
	totals := []struct {
		label string
		value string
	}{
		{"Basic", views.FormatYuan(inv.Basic)},
		{"VAS", views.FormatYuan(inv.VAS)},
		{"Total", views.FormatYuan(inv.Total)},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(130, 7, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, tr(t.value), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
