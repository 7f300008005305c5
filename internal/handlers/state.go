package handlers

import (
	"net/http"
	"strconv"

	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/store"
	costsync "github.com/xelth-com/eckcosting/internal/sync"
	"github.com/xelth-com/eckcosting/internal/transport"
)

// StateResponse is everything a dashboard needs on first paint
type StateResponse struct {
	store.State
	KnownDNs      []store.KnownDN            `json:"known_dns"`
	Status        transport.Status           `json:"status"`
	StatusHistory []transport.StatusChange   `json:"status_history,omitempty"`
	Notifications []models.NotificationEvent `json:"notifications"`
	Pending       []costsync.PendingAction   `json:"pending"`
}

func (r *Router) getState(w http.ResponseWriter, req *http.Request) {
	st := r.engine.Store()
	respondJSON(w, http.StatusOK, StateResponse{
		State:         st.State(),
		KnownDNs:      st.KnownDNs(),
		Status:        r.engine.Status(),
		StatusHistory: r.engine.StatusHistory(),
		Notifications: r.engine.Notifications().List(),
		Pending:       r.engine.Pending(),
	})
}

func (r *Router) getKnownDNs(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.engine.Store().KnownDNs())
}

func (r *Router) listNotifications(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.engine.Notifications().List())
}

func (r *Router) clearNotifications(w http.ResponseWriter, req *http.Request) {
	r.engine.Notifications().Clear()
	w.WriteHeader(http.StatusNoContent)
}

// listJournal returns recent outbound publishes, newest first
func (r *Router) listJournal(w http.ResponseWriter, req *http.Request) {
	if r.journal == nil {
		respondError(w, http.StatusNotFound, "Journal is disabled")
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	rows, err := r.journal.Recent(req.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
