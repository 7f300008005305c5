package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xelth-com/eckcosting/internal/middleware"
	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/services/printer"
	costsync "github.com/xelth-com/eckcosting/internal/sync"
	"github.com/xelth-com/eckcosting/internal/views"
)

// listInbound supports ?status=ALL|NEW|LE_COMPLETED and ?q=
func (r *Router) listInbound(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	respondJSON(w, http.StatusOK, views.FilterInbound(r.engine.Store().Inbound(), q.Get("status"), q.Get("q")))
}

func (r *Router) getInbound(w http.ResponseWriter, req *http.Request) {
	st := r.engine.Store()
	order, ok := st.FindInbound(mux.Vars(req)["dn"])
	if !ok {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	detail := views.DetailFor(order, st.Activities(), st.Approvals())
	if days := req.URL.Query().Get("storage_days"); days != "" {
		if n, err := parseNonNegative(days); err == nil {
			detail.StorageEstimate = views.StorageEstimate(order.Qty, n)
		}
	}
	respondJSON(w, http.StatusOK, detail)
}

func (r *Router) submitRequirements(w http.ResponseWriter, req *http.Request) {
	dn := mux.Vars(req)["dn"]
	var form models.RequirementForm
	if !decodeJSON(w, req, &form) {
		return
	}
	operator := middleware.Operator(req.Context())

	found := false
	err := r.do(req, func(p *costsync.Publisher) error {
		order, ok := r.engine.Store().FindInbound(dn)
		if !ok {
			return nil
		}
		found = true
		return p.SubmitRequirement(order, form, operator)
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"dn_no": dn, "status": "submitted"})
}

func (r *Router) listApprovals(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, views.FilterApprovals(r.engine.Store().Approvals(), req.URL.Query().Get("q")))
}

func (r *Router) approvalSummary(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, views.SummarizeApprovals(r.engine.Store().Approvals()))
}

// AuditRequest is the body of an audit decision
type AuditRequest struct {
	Action models.AuditAction `json:"action"`
	// Total overrides the approval's total_cost when set
	Total *decimal.Decimal `json:"total,omitempty"`
}

func (r *Router) auditApproval(w http.ResponseWriter, req *http.Request) {
	dn := mux.Vars(req)["dn"]
	var body AuditRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	if !body.Action.Valid() {
		respondError(w, http.StatusUnprocessableEntity, "action must be APPROVE or REJECT")
		return
	}

	found := false
	err := r.do(req, func(p *costsync.Publisher) error {
		item, ok := r.engine.Store().FindApproval(dn)
		if !ok {
			return nil
		}
		found = true
		total := item.TotalCost
		if body.Total != nil {
			total = *body.Total
		}
		return p.Audit(dn, body.Action, total)
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Approval not found")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"dn_no": dn, "action": string(body.Action)})
}

func (r *Router) listHistory(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.engine.Store().History())
}

// billingTransactions filters history by ?supplier=&year=&month=
func (r *Router) billingTransactions(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	period, err := views.ParsePeriod(q.Get("supplier"), q.Get("year"), q.Get("month"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := views.FilterPeriod(r.engine.Store().History(), period, r.location)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":  period.Label(),
		"records": res.Records,
		"total":   res.Total,
	})
}

// exportTransactions downloads the same selection as a spreadsheet
func (r *Router) exportTransactions(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	period, err := views.ParsePeriod(q.Get("supplier"), q.Get("year"), q.Get("month"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := views.FilterPeriod(r.engine.Store().History(), period, r.location)

	out, err := printer.TransactionsXLSX(period, res)
	if err != nil {
		r.log.Error("Failed to export transactions", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to export transactions")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%d_%02d.xlsx\"", period.Year, int(period.Month)))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Write(out)
}
