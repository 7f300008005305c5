package sync

import (
	"sort"
	"sync"
	"time"

	"github.com/xelth-com/eckcosting/internal/store"
)

// ActionKind names a transient action channel
type ActionKind string

const (
	ActionSubmit ActionKind = "submit"
	ActionAudit  ActionKind = "audit"
)

// PendingAction is a published action not yet reflected by a snapshot
type PendingAction struct {
	Kind        ActionKind       `json:"kind"`
	DN          string           `json:"dn_no"`
	Collection  store.Collection `json:"collection"`
	PublishedAt time.Time        `json:"published_at"`
	Alerted     bool             `json:"alerted"`
}

// Pending tracks actions until the source collection's next snapshot no
// longer lists their DN. Timed-out actions are reported once and kept; the
// optimistic state stays as it is.
type Pending struct {
	mu    sync.Mutex
	items map[string]*PendingAction
	now   func() time.Time
}

// NewPending returns an empty tracker
func NewPending(now func() time.Time) *Pending {
	if now == nil {
		now = time.Now
	}
	return &Pending{items: make(map[string]*PendingAction), now: now}
}

func pendingKey(c store.Collection, dn string) string { return string(c) + "|" + dn }

// Track starts (or restarts) tracking an action
func (p *Pending) Track(kind ActionKind, c store.Collection, dn string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[pendingKey(c, dn)] = &PendingAction{
		Kind:        kind,
		DN:          dn,
		Collection:  c,
		PublishedAt: p.now(),
	}
}

// Confirm drops every action on c whose DN is absent from present
func (p *Pending) Confirm(c store.Collection, present map[string]bool) []PendingAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	var confirmed []PendingAction
	for k, a := range p.items {
		if a.Collection != c || present[a.DN] {
			continue
		}
		confirmed = append(confirmed, *a)
		delete(p.items, k)
	}
	return confirmed
}

// Expired marks and returns actions older than timeout that were not
// reported before
func (p *Pending) Expired(timeout time.Duration) []PendingAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	var out []PendingAction
	for _, a := range p.items {
		if a.Alerted || now.Sub(a.PublishedAt) < timeout {
			continue
		}
		a.Alerted = true
		out = append(out, *a)
	}
	sortActions(out)
	return out
}

// List returns a copy of every tracked action, oldest first
func (p *Pending) List() []PendingAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PendingAction, 0, len(p.items))
	for _, a := range p.items {
		out = append(out, *a)
	}
	sortActions(out)
	return out
}

// Len returns the number of tracked actions
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func sortActions(list []PendingAction) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].PublishedAt.Equal(list[j].PublishedAt) {
			return list[i].PublishedAt.Before(list[j].PublishedAt)
		}
		return list[i].DN < list[j].DN
	})
}
