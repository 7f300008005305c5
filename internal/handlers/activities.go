package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckcosting/internal/middleware"
	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/store"
	costsync "github.com/xelth-com/eckcosting/internal/sync"
	"github.com/xelth-com/eckcosting/internal/views"
)

func (r *Router) listActivities(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, views.SearchActivities(r.engine.Store().Activities(), req.URL.Query().Get("q")))
}

func (r *Router) activityGauge(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, views.CapacityGauge(r.engine.Store().Len(store.Activities), r.capacity))
}

func (r *Router) activityTimeline(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, views.Timeline(r.engine.Store().Activities()))
}

func (r *Router) addActivity(w http.ResponseWriter, req *http.Request) {
	var a models.WarehouseActivity
	if !decodeJSON(w, req, &a) {
		return
	}
	if op := middleware.Operator(req.Context()); op != "" {
		a.Operator = op
	}

	var saved models.WarehouseActivity
	err := r.do(req, func(p *costsync.Publisher) error {
		var err error
		saved, err = p.AddActivity(a)
		return err
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (r *Router) deleteActivity(w http.ResponseWriter, req *http.Request) {
	ts := mux.Vars(req)["timestamp"]

	found := false
	err := r.do(req, func(p *costsync.Publisher) error {
		for _, a := range r.engine.Store().Activities() {
			if a.Timestamp == ts {
				found = true
				break
			}
		}
		return p.DeleteActivity(ts)
	})
	if err != nil {
		r.respondActionError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Activity not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
