package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xelth-com/eckcosting/internal/config"
	"github.com/xelth-com/eckcosting/internal/metrics"
	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/notify"
	"github.com/xelth-com/eckcosting/internal/store"
	costsync "github.com/xelth-com/eckcosting/internal/sync"
	"github.com/xelth-com/eckcosting/internal/transport"
	"github.com/xelth-com/eckcosting/internal/utils"
)

type apiHarness struct {
	t      *testing.T
	srv    *transport.MemoryServer
	store  *store.Store
	topics config.Topics
	router *Router
}

func newAPI(t *testing.T, auth config.AuthConfig) *apiHarness {
	t.Helper()
	h := &apiHarness{
		t:      t,
		srv:    transport.NewMemoryServer(),
		store:  store.New(models.DefaultRateCard()),
		topics: config.DefaultTopics("Test/Costing"),
	}
	engine := costsync.New(costsync.Deps{
		Broker: h.srv.NewClient(64),
		Store:  h.store,
		Notify: notify.New(),
		Topics: h.topics,
		Sync: config.SyncConfig{
			QueueSize:        16,
			ActivitySentinel: "Placeholder",
			DefaultOperator:  "Operator_01",
			ActionTimeout:    time.Minute,
		},
		Logger:   zaptest.NewLogger(t),
		Location: time.UTC,
	})
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(engine.Stop)
	require.Eventually(t, func() bool { return engine.Status() == transport.StatusConnected }, 2*time.Second, 5*time.Millisecond)

	h.router = NewRouter(Deps{
		Engine:   engine,
		Metrics:  metrics.New(),
		Auth:     auth,
		Capacity: 20,
		Location: time.UTC,
		Logger:   zaptest.NewLogger(t),
	})
	return h
}

// seed injects a snapshot and waits until the store holds n records of it
func (h *apiHarness) seed(topic string, coll store.Collection, payload string, n int) {
	h.t.Helper()
	h.srv.Inject(topic, []byte(payload), true)
	require.Eventually(h.t, func() bool { return h.store.Len(coll) == n }, 2*time.Second, 5*time.Millisecond)
}

func (h *apiHarness) call(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	h := newAPI(t, config.AuthConfig{})
	rec := h.call(http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Connected", body["broker"])
}

func TestStateIncludesKnownDNs(t *testing.T) {
	h := newAPI(t, config.AuthConfig{})
	h.seed(h.topics.Inbound, store.Inbound, `[{"dn_no":"DN-1","material":"Glue","qty":5,"destination":"Shanghai","status":"NEW"}]`, 1)
	h.seed(h.topics.Approval, store.Approvals, `{"a":{"dn_no":"DN-2","basic_cost":10,"vas_cost":5,"total_cost":15}}`, 1)

	rec := h.call(http.MethodGet, "/api/state", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Inbound  []models.InboundOrder `json:"inbound"`
		KnownDNs []store.KnownDN       `json:"known_dns"`
		Status   string                `json:"status"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Inbound, 1)
	assert.Equal(t, "Connected", body.Status)
	assert.Equal(t, []store.KnownDN{{DN: "DN-1", Status: "New"}, {DN: "DN-2", Status: "Processing"}}, body.KnownDNs)
}

func TestSubmitRequirements(t *testing.T) {
	h := newAPI(t, config.AuthConfig{})
	h.seed(h.topics.Inbound, store.Inbound, `[{"dn_no":"DN-1","material":"Glue","qty":5,"destination":"Shanghai","status":"NEW"}]`, 1)

	rec := h.call(http.MethodPost, "/api/inbound/DN-1/requirements", models.RequirementForm{Repacking: true, StorageDays: 3}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 0, h.store.Len(store.Inbound))

	msgs := h.srv.PublishedOn(h.topics.Submit)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Retained)

	rec = h.call(http.MethodPost, "/api/inbound/DN-404/requirements", models.RequirementForm{}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.call(http.MethodPost, "/api/inbound/DN-1/requirements", models.RequirementForm{StorageDays: 99}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "order already removed optimistically")
}

func TestInboundFilterAndDetail(t *testing.T) {
	h := newAPI(t, config.AuthConfig{})
	h.seed(h.topics.Inbound, store.Inbound, `[
		{"dn_no":"DN-1","material":"Glue","qty":4,"status":"NEW"},
		{"dn_no":"DN-2","material":"Tape","qty":2,"status":"LE COMPLETED"}]`, 2)

	rec := h.call(http.MethodGet, "/api/inbound?status=LE_COMPLETED", nil, "")
	var list []models.InboundOrder
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "DN-2", list[0].DNNo)

	rec = h.call(http.MethodGet, "/api/inbound/DN-1?storage_days=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail map[string]interface{}
	decode(t, rec, &detail)
	assert.EqualValues(t, 60, detail["storage_estimate"])

	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, "/api/inbound/DN-9", nil, "").Code)
}

func TestAudit(t *testing.T) {
	h := newAPI(t, config.AuthConfig{})
	h.seed(h.topics.Approval, store.Approvals, `[{"dn_no":"DN-2","basic_cost":10,"vas_cost":5,"total_cost":15}]`, 1)

	rec := h.call(http.MethodPost, "/api/approvals/DN-2/audit", map[string]string{"action": "MAYBE"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.call(http.MethodPost, "/api/approvals/DN-2/audit", map[string]string{"action": "APPROVE"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 0, h.store.Len(store.Approvals))

	var sent models.AuditRequest
	msgs := h.srv.PublishedOn(h.topics.Audit)
	require.Len(t, msgs, 1)
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &sent))
	assert.Equal(t, "15", sent.Total.String())
	assert.Equal(t, "OK", sent.Comment)
}

func TestRatesCRUD(t *testing.T) {
	h := newAPI(t, config.AuthConfig{})

	rec := h.call(http.MethodPost, "/api/rates", map[string]interface{}{"category": "BASIC", "unit": "pallet"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.call(http.MethodPost, "/api/rates", map[string]interface{}{"activity": "Shrink Wrap", "category": "VAS", "price": 3, "unit": "pallet"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.RateCardEntry
	decode(t, rec, &created)
	assert.NotZero(t, created.ID)

	assert.Equal(t, http.StatusNotFound, h.call(http.MethodDelete, "/api/rates/424242", nil, "").Code)
	assert.Equal(t, http.StatusNoContent, h.call(http.MethodDelete, "/api/rates/1", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.call(http.MethodPut, "/api/rates/abc", nil, "").Code)
}

func TestInvoiceLifecycle(t *testing.T) {
	h := newAPI(t, config.AuthConfig{})
	h.seed(h.topics.History, store.History, `[
		{"dn_no":"DN-7","final_cost":120,"approved_at":"2025-12-03T10:00:00Z","supplier":"Warehouse Supplier A"},
		{"dn_no":"DN-8","final_cost":80,"approved_at":"2025-11-30T10:00:00Z","supplier":"Warehouse Supplier A"}]`, 2)

	rec := h.call(http.MethodPost, "/api/invoices", GenerateInvoiceRequest{Supplier: "all", Year: "2025", Month: "12"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.call(http.MethodPost, "/api/invoices", GenerateInvoiceRequest{Supplier: "Warehouse Supplier B", Year: "2025", Month: "12"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.call(http.MethodPost, "/api/invoices", GenerateInvoiceRequest{Supplier: "Warehouse Supplier A", Year: "2025", Month: "December"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var inv models.Invoice
	decode(t, rec, &inv)
	assert.Equal(t, "December 2025", inv.Period)
	assert.Equal(t, "120", inv.Total.String())
	assert.Equal(t, models.InvoiceDraft, inv.Status)

	path := "/api/invoices/" + inv.Key()
	rec = h.call(http.MethodPost, path+"/send", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &inv)
	assert.Equal(t, models.InvoiceSent, inv.Status)

	rec = h.call(http.MethodGet, path+"/pdf", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = h.call(http.MethodGet, "/api/billing/transactions?supplier=Warehouse+Supplier+A&year=2025&month=11", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tx map[string]interface{}
	decode(t, rec, &tx)
	assert.Equal(t, "November 2025", tx["period"])
	assert.EqualValues(t, 80, tx["total"])

	rec = h.call(http.MethodGet, "/api/billing/transactions/export?supplier=Warehouse+Supplier+A&year=2025&month=11", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transactions_2025_11.xlsx")
}

func TestGaugeAndJournalDisabled(t *testing.T) {
	h := newAPI(t, config.AuthConfig{})
	h.seed(h.topics.Activities, store.Activities, `[
		{"dn_no":"DN-1","activity":"Repacking","qty":1,"operator":"a","timestamp":"2025-12-01T00:00:00.000Z"},
		{"dn_no":"DN-1","activity":"Placeholder","qty":1,"operator":"a","timestamp":"2025-12-01T00:00:01.000Z"}]`, 1)

	rec := h.call(http.MethodGet, "/api/activities/gauge", nil, "")
	var g map[string]interface{}
	decode(t, rec, &g)
	assert.EqualValues(t, 5, g["percentage"])

	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, "/api/journal", nil, "").Code)
}

func TestOperatorGuard(t *testing.T) {
	hash, err := utils.HashPassword("pa55")
	require.NoError(t, err)
	h := newAPI(t, config.AuthConfig{JWTSecret: "s3cret", Operators: map[string]string{"Operator_07": hash}})
	rate := map[string]interface{}{"activity": "Kitting", "category": "VAS", "price": 1, "unit": "pcs"}

	assert.Equal(t, http.StatusUnauthorized, h.call(http.MethodPost, "/api/rates", rate, "").Code)
	assert.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/rates", nil, "").Code)

	rec := h.call(http.MethodPost, "/auth/login", LoginRequest{Operator: "Operator_07", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.call(http.MethodPost, "/auth/login", LoginRequest{Operator: "Operator_07", Password: "pa55"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login map[string]interface{}
	decode(t, rec, &login)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	assert.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/rates", rate, token).Code)

	// the token's operator is stamped on logged activities
	rec = h.call(http.MethodPost, "/api/activities", map[string]interface{}{"dn_no": "DN-1", "activity": "Repacking", "qty": 2}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var act models.WarehouseActivity
	decode(t, rec, &act)
	assert.Equal(t, "Operator_07", act.Operator)
}
