package store

import (
	"github.com/xelth-com/eckcosting/internal/models"
)

// The mutations below are provisional local edits applied before the
// backend confirms an action. Each one rewrites the current list; the next
// Replace for the same collection discards them unconditionally.

// RemoveInbound drops the order with the given DN after a requirement submission
func (s *Store) RemoveInbound(dn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed bool
	s.inbound, removed = without(s.inbound, dn)
	return removed
}

// RemoveApproval drops the approval item with the given DN after an audit decision
func (s *Store) RemoveApproval(dn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed bool
	s.approvals, removed = without(s.approvals, dn)
	return removed
}

// PrependActivity puts a new activity at the head of the log
func (s *Store) PrependActivity(a models.WarehouseActivity) []models.WarehouseActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append([]models.WarehouseActivity{a}, s.activities...)
	return clone(s.activities)
}

// RemoveActivity drops the activity recorded at timestamp
func (s *Store) RemoveActivity(timestamp string) ([]models.WarehouseActivity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed bool
	s.activities, removed = without(s.activities, timestamp)
	return clone(s.activities), removed
}

// AppendRate adds a rate card entry at the end
func (s *Store) AppendRate(r models.RateCardEntry) []models.RateCardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = append(s.rates, r)
	return clone(s.rates)
}

// UpdateRate replaces the entry with the same id
func (s *Store) UpdateRate(r models.RateCardEntry) ([]models.RateCardEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated bool
	s.rates, updated = replaced(s.rates, r)
	return clone(s.rates), updated
}

// DeleteRate drops the entry with the given id
func (s *Store) DeleteRate(id string) ([]models.RateCardEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed bool
	s.rates, removed = without(s.rates, id)
	return clone(s.rates), removed
}

// PrependInvoice puts a freshly generated invoice at the head of the list
func (s *Store) PrependInvoice(inv models.Invoice) []models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = append([]models.Invoice{inv}, s.invoices...)
	return clone(s.invoices)
}

// UpdateInvoice replaces the invoice with the same id
func (s *Store) UpdateInvoice(inv models.Invoice) ([]models.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated bool
	s.invoices, updated = replaced(s.invoices, inv)
	return clone(s.invoices), updated
}

// without returns a new slice lacking every element keyed by key
func without[T models.Keyed](list []T, key string) ([]T, bool) {
	out := make([]T, 0, len(list))
	removed := false
	for _, item := range list {
		if item.Key() == key {
			removed = true
			continue
		}
		out = append(out, item)
	}
	return out, removed
}

// replaced returns a new slice with the element sharing next's key swapped in
func replaced[T models.Keyed](list []T, next T) ([]T, bool) {
	out := make([]T, len(list))
	found := false
	for i, item := range list {
		if item.Key() == next.Key() {
			out[i] = next
			found = true
			continue
		}
		out[i] = item
	}
	return out, found
}
