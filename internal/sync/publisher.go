package sync

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xelth-com/eckcosting/internal/billing"
	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/store"
	"github.com/xelth-com/eckcosting/internal/utils"
	"github.com/xelth-com/eckcosting/internal/views"
)

const (
	kindAction = "action"
	kindState  = "state"
)

// Publisher carries out user actions. It is only handed out inside
// Engine.Do, so every method runs on the engine loop.
//
// Each action publishes, applies its optimistic edit and appends a
// notification. An action missing its target (no DN, unknown verb, unknown
// id) is a silent no-op. A failed publish still applies the optimistic edit.
type Publisher struct {
	e *Engine
}

func (p *Publisher) check(v interface{}) error {
	if err := p.e.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// SubmitRequirement sends the requirement form of an inbound order and drops
// the order from the local list
func (p *Publisher) SubmitRequirement(order models.InboundOrder, form models.RequirementForm, operator string) error {
	if order.DNNo == "" {
		return nil
	}
	if err := p.check(form); err != nil {
		return err
	}
	if operator == "" {
		operator = p.e.cfg.DefaultOperator
	}

	req := models.SubmitRequest{
		DNNo:         order.DNNo,
		Operator:     operator,
		Destination:  order.Destination,
		Requirements: form.Flags(),
	}
	_ = p.e.publishJSON(p.e.topics.Submit, kindAction, req, false)

	p.e.store.RemoveInbound(order.DNNo)
	p.e.pending.Track(ActionSubmit, store.Inbound, order.DNNo)
	p.e.metrics.SetPending(p.e.pending.Len())
	p.e.changed(store.Inbound)

	p.e.notify.Append("Requirements Submitted: "+order.DNNo, models.NotifySuccess)
	p.e.log.Info("Requirement submitted", zap.String("dn", order.DNNo), zap.String("operator", operator))
	return nil
}

// Audit sends an approve/reject decision and drops the item from the queue
func (p *Publisher) Audit(dn string, action models.AuditAction, total decimal.Decimal) error {
	if dn == "" || !action.Valid() {
		return nil
	}

	comment := "OK"
	if action == models.AuditReject {
		comment = "Rejection"
	}
	req := models.AuditRequest{DNNo: dn, Action: action, Total: total, Comment: comment}
	_ = p.e.publishJSON(p.e.topics.Audit, kindAction, req, false)

	p.e.store.RemoveApproval(dn)
	p.e.pending.Track(ActionAudit, store.Approvals, dn)
	p.e.metrics.SetPending(p.e.pending.Len())
	p.e.changed(store.Approvals)

	if action == models.AuditApprove {
		p.e.notify.Append("Cost Approved: "+dn, models.NotifySuccess)
	} else {
		p.e.notify.Append("Cost Rejected: "+dn, models.NotifyInfo)
	}
	p.e.log.Info("Audit sent", zap.String("dn", dn), zap.String("action", string(action)), zap.String("total", total.String()))
	return nil
}

// AddRate appends a rate with a fresh id and republishes the rate card
func (p *Publisher) AddRate(r models.RateCardEntry) (models.RateCardEntry, error) {
	if err := p.check(r); err != nil {
		return models.RateCardEntry{}, err
	}
	r.ID = p.e.clock.Next()

	rates := p.e.store.AppendRate(r)
	_ = p.e.publishJSON(p.e.topics.Rates, kindState, rates, true)
	p.e.changed(store.Rates)
	p.e.notify.Append("Rate Added: "+r.Activity, models.NotifySuccess)
	return r, nil
}

// UpdateRate replaces the rate with the same id and republishes the card
func (p *Publisher) UpdateRate(r models.RateCardEntry) error {
	if r.ID == 0 {
		return nil
	}
	if err := p.check(r); err != nil {
		return err
	}
	rates, ok := p.e.store.UpdateRate(r)
	if !ok {
		return nil
	}
	_ = p.e.publishJSON(p.e.topics.Rates, kindState, rates, true)
	p.e.changed(store.Rates)
	p.e.notify.Append("Rate Updated: "+r.Activity, models.NotifySuccess)
	return nil
}

// DeleteRate drops a rate and republishes the card
func (p *Publisher) DeleteRate(id int64) error {
	if id == 0 {
		return nil
	}
	rates, ok := p.e.store.DeleteRate(strconv.FormatInt(id, 10))
	if !ok {
		return nil
	}
	_ = p.e.publishJSON(p.e.topics.Rates, kindState, rates, true)
	p.e.changed(store.Rates)
	p.e.notify.Append("Rate Deleted", models.NotifyInfo)
	return nil
}

// AddActivity logs an activity, republishes the activity log and asks the
// backend to cost it through the submit-requirement channel
func (p *Publisher) AddActivity(a models.WarehouseActivity) (models.WarehouseActivity, error) {
	if a.Operator == "" {
		a.Operator = p.e.cfg.DefaultOperator
	}
	if err := p.check(a); err != nil {
		return models.WarehouseActivity{}, err
	}
	// the timestamp is the delete key, so it must be unique
	a.Timestamp = utils.ISOMillis(p.e.clock.NextTime())

	activities := p.e.store.PrependActivity(a)
	_ = p.e.publishJSON(p.e.topics.Activities, kindState, activities, true)

	req := models.SubmitRequest{
		DNNo:         a.DNNo,
		Operator:     a.Operator,
		Destination:  p.e.cfg.DefaultDestination,
		Supplier:     p.e.cfg.DefaultSupplier,
		Requirements: ActivityRequirements(a),
		Timestamp:    a.Timestamp,
	}
	_ = p.e.publishJSON(p.e.topics.Submit, kindAction, req, false)

	p.e.changed(store.Activities)
	p.e.notify.Append("Activity Logged: "+a.DNNo, models.NotifySuccess)
	return a, nil
}

// DeleteActivity removes the activity recorded at timestamp. Position is
// never used: the next snapshot may have reordered the list.
func (p *Publisher) DeleteActivity(timestamp string) error {
	if timestamp == "" {
		return nil
	}
	activities, ok := p.e.store.RemoveActivity(timestamp)
	if !ok {
		return nil
	}
	_ = p.e.publishJSON(p.e.topics.Activities, kindState, activities, true)
	p.e.changed(store.Activities)
	p.e.notify.Append("Activity Deleted", models.NotifyInfo)
	return nil
}

// GenerateInvoice bills one supplier's approved history for a month. Invalid
// requests are rejected before anything is published.
func (p *Publisher) GenerateInvoice(period views.Period) (models.Invoice, error) {
	inv, err := billing.BuildInvoice(p.e.clock.Next(), p.e.store.History(), period, p.e.location)
	if err != nil {
		p.e.notify.Append(err.Error(), models.NotifyError)
		return models.Invoice{}, err
	}

	invoices := p.e.store.PrependInvoice(inv)
	_ = p.e.publishJSON(p.e.topics.Invoices, kindState, invoices, true)
	p.e.changed(store.Invoices)
	p.e.notify.Append(fmt.Sprintf("Invoice Generated: %s %s", inv.Supplier, inv.Period), models.NotifySuccess)
	return inv, nil
}

// SendInvoice marks an invoice SENT
func (p *Publisher) SendInvoice(id int64) (models.Invoice, bool, error) {
	inv, ok := p.e.store.FindInvoice(id)
	if !ok {
		return models.Invoice{}, false, nil
	}
	sent := billing.MarkSent(inv)
	if err := p.UpdateInvoice(sent); err != nil {
		return models.Invoice{}, true, err
	}
	p.e.notify.Append("Invoice Sent: "+sent.Supplier, models.NotifySuccess)
	return sent, true, nil
}

// UpdateInvoice replaces the invoice with the same id and republishes the list
func (p *Publisher) UpdateInvoice(inv models.Invoice) error {
	if inv.ID == 0 {
		return nil
	}
	invoices, ok := p.e.store.UpdateInvoice(inv)
	if !ok {
		return nil
	}
	_ = p.e.publishJSON(p.e.topics.Invoices, kindState, invoices, true)
	p.e.changed(store.Invoices)
	return nil
}
