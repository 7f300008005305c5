// Package store holds the dashboard's in-memory copy of the shared state.
//
// Reconciliation rule: for every collection the last write wins. A snapshot
// replace swaps the whole list; an optimistic mutation edits the current list
// in place of a round trip. Nothing remembers which edits were optimistic, so
// the next snapshot for a collection always overwrites them, even when that
// snapshot is older than the edit.
package store

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/xelth-com/eckcosting/internal/models"
)

// Collection names one of the synchronized lists
type Collection string

const (
	Inbound    Collection = "inbound"
	Approvals  Collection = "approvals"
	History    Collection = "history"
	Rates      Collection = "rates"
	Invoices   Collection = "invoices"
	Activities Collection = "activities"
)

// AllCollections lists every collection in display order
var AllCollections = []Collection{Inbound, Approvals, History, Rates, Invoices, Activities}

// KnownDN is a DN identifier tagged with where it currently lives
type KnownDN struct {
	DN     string `json:"dn"`
	Status string `json:"status"`
}

// State is a point-in-time copy of every collection
type State struct {
	Inbound    []models.InboundOrder      `json:"inbound"`
	Approvals  []models.ApprovalItem      `json:"approvals"`
	History    []models.HistoryRecord     `json:"history"`
	Rates      []models.RateCardEntry     `json:"rates"`
	Invoices   []models.Invoice           `json:"invoices"`
	Activities []models.WarehouseActivity `json:"activities"`
}

// Store owns the six collections. Writes come from the engine loop; reads may
// come from any goroutine and always receive copies.
type Store struct {
	mu sync.RWMutex

	inbound    []models.InboundOrder
	approvals  []models.ApprovalItem
	history    []models.HistoryRecord
	rates      []models.RateCardEntry
	invoices   []models.Invoice
	activities []models.WarehouseActivity
}

// New creates an empty store with the given starting rate card
func New(rates []models.RateCardEntry) *Store {
	return &Store{
		inbound:    []models.InboundOrder{},
		approvals:  []models.ApprovalItem{},
		history:    []models.HistoryRecord{},
		rates:      clone(rates),
		invoices:   []models.Invoice{},
		activities: []models.WarehouseActivity{},
	}
}

// Replace atomically swaps the named collection for list, which must be the
// collection's element slice type.
func (s *Store) Replace(name Collection, list interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case Inbound:
		v, ok := list.([]models.InboundOrder)
		if !ok {
			return typeMismatch(name, list)
		}
		s.inbound = clone(v)
	case Approvals:
		v, ok := list.([]models.ApprovalItem)
		if !ok {
			return typeMismatch(name, list)
		}
		s.approvals = clone(v)
	case History:
		v, ok := list.([]models.HistoryRecord)
		if !ok {
			return typeMismatch(name, list)
		}
		s.history = clone(v)
	case Rates:
		v, ok := list.([]models.RateCardEntry)
		if !ok {
			return typeMismatch(name, list)
		}
		s.rates = clone(v)
	case Invoices:
		v, ok := list.([]models.Invoice)
		if !ok {
			return typeMismatch(name, list)
		}
		s.invoices = clone(v)
	case Activities:
		v, ok := list.([]models.WarehouseActivity)
		if !ok {
			return typeMismatch(name, list)
		}
		s.activities = clone(v)
	default:
		return fmt.Errorf("unknown collection %q", name)
	}
	return nil
}

func typeMismatch(name Collection, list interface{}) error {
	return fmt.Errorf("collection %q cannot hold %T", name, list)
}

// Len returns the size of the named collection
func (s *Store) Len(name Collection) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch name {
	case Inbound:
		return len(s.inbound)
	case Approvals:
		return len(s.approvals)
	case History:
		return len(s.history)
	case Rates:
		return len(s.rates)
	case Invoices:
		return len(s.invoices)
	case Activities:
		return len(s.activities)
	}
	return 0
}

// Collection returns a copy of the named collection, or nil for an unknown name
func (s *Store) Collection(name Collection) interface{} {
	switch name {
	case Inbound:
		return s.Inbound()
	case Approvals:
		return s.Approvals()
	case History:
		return s.History()
	case Rates:
		return s.Rates()
	case Invoices:
		return s.Invoices()
	case Activities:
		return s.Activities()
	}
	return nil
}

// Inbound returns a copy of the inbound order list
func (s *Store) Inbound() []models.InboundOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.inbound)
}

// Approvals returns a copy of the approval queue
func (s *Store) Approvals() []models.ApprovalItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.approvals)
}

// History returns a copy of the cost history
func (s *Store) History() []models.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.history)
}

// Rates returns a copy of the rate card
func (s *Store) Rates() []models.RateCardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.rates)
}

// Invoices returns a copy of the invoice list
func (s *Store) Invoices() []models.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.invoices)
}

// Activities returns a copy of the activity log
func (s *Store) Activities() []models.WarehouseActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.activities)
}

// State returns a copy of all collections taken under one lock
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Inbound:    clone(s.inbound),
		Approvals:  clone(s.approvals),
		History:    clone(s.history),
		Rates:      clone(s.rates),
		Invoices:   clone(s.invoices),
		Activities: clone(s.activities),
	}
}

// FindInbound looks up an inbound order by DN
func (s *Store) FindInbound(dn string) (models.InboundOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.inbound, dn)
}

// FindApproval looks up an approval item by DN
func (s *Store) FindApproval(dn string) (models.ApprovalItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.approvals, dn)
}

// FindInvoice looks up an invoice by id
func (s *Store) FindInvoice(id int64) (models.Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.invoices, strconv.FormatInt(id, 10))
}

// FindRate looks up a rate card entry by id
func (s *Store) FindRate(id int64) (models.RateCardEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.rates, strconv.FormatInt(id, 10))
}

// KnownDNs derives every DN the dashboard knows about, tagged New (inbound),
// Processing (awaiting approval) or Completed (history). It is recomputed on
// every call because the three sources change independently.
func (s *Store) KnownDNs() []KnownDN {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]KnownDN, 0, len(s.inbound)+len(s.approvals)+len(s.history))
	for _, o := range s.inbound {
		out = append(out, KnownDN{DN: o.DNNo, Status: "New"})
	}
	for _, a := range s.approvals {
		out = append(out, KnownDN{DN: a.DNNo, Status: "Processing"})
	}
	for _, h := range s.history {
		out = append(out, KnownDN{DN: h.DNNo, Status: "Completed"})
	}
	return out
}

func find[T models.Keyed](list []T, key string) (T, bool) {
	for _, item := range list {
		if item.Key() == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func clone[T any](list []T) []T {
	out := make([]T, len(list))
	copy(out, list)
	return out
}
