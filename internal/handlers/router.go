// Package handlers exposes the sync engine, its store and the derived views
// over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xelth-com/eckcosting/internal/billing"
	"github.com/xelth-com/eckcosting/internal/buildinfo"
	"github.com/xelth-com/eckcosting/internal/config"
	"github.com/xelth-com/eckcosting/internal/metrics"
	"github.com/xelth-com/eckcosting/internal/middleware"
	"github.com/xelth-com/eckcosting/internal/models"
	costsync "github.com/xelth-com/eckcosting/internal/sync"
	"github.com/xelth-com/eckcosting/internal/websocket"
)

// JournalReader lists recently published actions
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]models.PublishedAction, error)
}

// Deps holds everything the router serves
type Deps struct {
	Engine      *costsync.Engine
	Hub         *websocket.Hub
	Metrics     *metrics.Metrics
	Journal     JournalReader // nil when the journal is disabled
	Auth        config.AuthConfig
	Capacity    int
	Location    *time.Location
	FrontendDir string
	Logger      *zap.Logger
}

// Router wraps the mux router and the engine
type Router struct {
	*mux.Router
	engine   *costsync.Engine
	hub      *websocket.Hub
	journal  JournalReader
	auth     config.AuthConfig
	capacity int
	location *time.Location
	log      *zap.Logger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	r := &Router{
		Router:   mux.NewRouter(),
		engine:   d.Engine,
		hub:      d.Hub,
		journal:  d.Journal,
		auth:     d.Auth,
		capacity: d.Capacity,
		location: d.Location,
		log:      d.Logger,
	}

	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")
	if d.Hub != nil {
		r.HandleFunc("/ws", r.serveWs).Methods("GET")
	}

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")

	// Read routes are open; mutating routes carry the operator guard
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", r.getState).Methods("GET")
	api.HandleFunc("/known-dns", r.getKnownDNs).Methods("GET")
	api.HandleFunc("/notifications", r.listNotifications).Methods("GET")
	api.HandleFunc("/journal", r.listJournal).Methods("GET")
	api.HandleFunc("/inbound", r.listInbound).Methods("GET")
	api.HandleFunc("/inbound/{dn}", r.getInbound).Methods("GET")
	api.HandleFunc("/approvals", r.listApprovals).Methods("GET")
	api.HandleFunc("/approvals/summary", r.approvalSummary).Methods("GET")
	api.HandleFunc("/history", r.listHistory).Methods("GET")
	api.HandleFunc("/billing/transactions", r.billingTransactions).Methods("GET")
	api.HandleFunc("/billing/transactions/export", r.exportTransactions).Methods("GET")
	api.HandleFunc("/activities", r.listActivities).Methods("GET")
	api.HandleFunc("/activities/gauge", r.activityGauge).Methods("GET")
	api.HandleFunc("/activities/timeline", r.activityTimeline).Methods("GET")
	api.HandleFunc("/rates", r.listRates).Methods("GET")
	api.HandleFunc("/invoices", r.listInvoices).Methods("GET")
	api.HandleFunc("/invoices/{id}/pdf", r.invoicePDF).Methods("GET")

	guard := middleware.OperatorAuth(d.Auth.JWTSecret)
	protected := api.NewRoute().Subrouter()
	protected.Use(guard)
	protected.HandleFunc("/notifications", r.clearNotifications).Methods("DELETE")
	protected.HandleFunc("/inbound/{dn}/requirements", r.submitRequirements).Methods("POST")
	protected.HandleFunc("/approvals/{dn}/audit", r.auditApproval).Methods("POST")
	protected.HandleFunc("/activities", r.addActivity).Methods("POST")
	protected.HandleFunc("/activities/{timestamp}", r.deleteActivity).Methods("DELETE")
	protected.HandleFunc("/rates", r.createRate).Methods("POST")
	protected.HandleFunc("/rates/{id}", r.updateRate).Methods("PUT")
	protected.HandleFunc("/rates/{id}", r.deleteRate).Methods("DELETE")
	protected.HandleFunc("/invoices", r.generateInvoice).Methods("POST")
	protected.HandleFunc("/invoices/{id}", r.updateInvoice).Methods("PUT")
	protected.HandleFunc("/invoices/{id}/send", r.sendInvoice).Methods("POST")

	// Static dashboard build, when one is configured
	if d.FrontendDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(d.FrontendDir)))
	}

	return r
}

// healthCheck returns the health status of the service
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"broker":     r.engine.Status().String(),
		"version":    buildinfo.Version,
		"started_at": buildinfo.StartTime,
	})
}

func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	hello := websocket.Event{Type: websocket.EventStatus, Data: r.engine.Status().String()}
	websocket.ServeWs(r.hub, w, req, &hello)
}

// do runs fn on the engine loop with the request's context
func (r *Router) do(req *http.Request, fn func(*costsync.Publisher) error) error {
	return r.engine.Do(req.Context(), fn)
}

// respondActionError maps engine and domain errors to status codes
func (r *Router) respondActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, costsync.ErrInvalidInput),
		errors.Is(err, billing.ErrSupplierRequired),
		errors.Is(err, billing.ErrNoTransactions):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, costsync.ErrEngineStopped):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "request cancelled")
	default:
		r.log.Error("Action failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "action failed")
	}
}

// decodeJSON reads the request body into v
func decodeJSON(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
