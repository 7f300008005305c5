package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/services/printer"
	costsync "github.com/xelth-com/eckcosting/internal/sync"
	"github.com/xelth-com/eckcosting/internal/views"
)

// GenerateInvoiceRequest selects the supplier and month to bill
type GenerateInvoiceRequest struct {
	Supplier string `json:"supplier"`
	Year     string `json:"year"`
	Month    string `json:"month"`
}

func (r *Router) listInvoices(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.engine.Store().Invoices())
}

func (r *Router) generateInvoice(w http.ResponseWriter, req *http.Request) {
	var body GenerateInvoiceRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	period, err := views.ParsePeriod(body.Supplier, body.Year, body.Month)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var inv models.Invoice
	err = r.do(req, func(p *costsync.Publisher) error {
		var err error
		inv, err = p.GenerateInvoice(period)
		return err
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

func (r *Router) updateInvoice(w http.ResponseWriter, req *http.Request) {
	id, ok := parseID(w, req)
	if !ok {
		return
	}
	var inv models.Invoice
	if !decodeJSON(w, req, &inv) {
		return
	}
	inv.ID = id

	found := false
	err := r.do(req, func(p *costsync.Publisher) error {
		_, found = r.engine.Store().FindInvoice(id)
		return p.UpdateInvoice(inv)
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Invoice not found")
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (r *Router) sendInvoice(w http.ResponseWriter, req *http.Request) {
	id, ok := parseID(w, req)
	if !ok {
		return
	}
	var (
		sent  models.Invoice
		found bool
	)
	err := r.do(req, func(p *costsync.Publisher) error {
		var err error
		sent, found, err = p.SendInvoice(id)
		return err
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Invoice not found")
		return
	}
	respondJSON(w, http.StatusOK, sent)
}

// invoicePDF generates the invoice document for download
func (r *Router) invoicePDF(w http.ResponseWriter, req *http.Request) {
	id, ok := parseID(w, req)
	if !ok {
		return
	}
	inv, found := r.engine.Store().FindInvoice(id)
	if !found {
		respondError(w, http.StatusNotFound, "Invoice not found")
		return
	}

	pdfBytes, err := printer.InvoicePDF(inv, printer.InvoiceOptions{})
	if err != nil {
		r.log.Error("Failed to render invoice", zap.Int64("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	// Set headers for download
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.pdf\"", printer.Reference(inv)))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))

	w.Write(pdfBytes)
}
