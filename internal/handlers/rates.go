package handlers

import (
	"net/http"

	"github.com/xelth-com/eckcosting/internal/models"
	costsync "github.com/xelth-com/eckcosting/internal/sync"
)

func (r *Router) listRates(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.engine.Store().Rates())
}

func (r *Router) createRate(w http.ResponseWriter, req *http.Request) {
	var rate models.RateCardEntry
	if !decodeJSON(w, req, &rate) {
		return
	}
	var saved models.RateCardEntry
	err := r.do(req, func(p *costsync.Publisher) error {
		var err error
		saved, err = p.AddRate(rate)
		return err
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (r *Router) updateRate(w http.ResponseWriter, req *http.Request) {
	id, ok := parseID(w, req)
	if !ok {
		return
	}
	var rate models.RateCardEntry
	if !decodeJSON(w, req, &rate) {
		return
	}
	rate.ID = id

	found := false
	err := r.do(req, func(p *costsync.Publisher) error {
		_, found = r.engine.Store().FindRate(id)
		return p.UpdateRate(rate)
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Rate not found")
		return
	}
	respondJSON(w, http.StatusOK, rate)
}

func (r *Router) deleteRate(w http.ResponseWriter, req *http.Request) {
	id, ok := parseID(w, req)
	if !ok {
		return
	}
	found := false
	err := r.do(req, func(p *costsync.Publisher) error {
		_, found = r.engine.Store().FindRate(id)
		return p.DeleteRate(id)
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Rate not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
