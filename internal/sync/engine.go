// Package sync is the dashboard's synchronization core. One goroutine owns
// every state transition: inbound snapshots, connection changes and user
// actions are all handled on the engine loop, one at a time, in arrival order.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xelth-com/eckcosting/internal/config"
	"github.com/xelth-com/eckcosting/internal/metrics"
	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/notify"
	"github.com/xelth-com/eckcosting/internal/snapshot"
	"github.com/xelth-com/eckcosting/internal/store"
	"github.com/xelth-com/eckcosting/internal/transport"
	"github.com/xelth-com/eckcosting/internal/utils"
)

var (
	// ErrEngineStopped is returned by Do when the loop is not running
	ErrEngineStopped = errors.New("sync engine is not running")
	// ErrInvalidInput wraps validation failures of user actions
	ErrInvalidInput = errors.New("invalid input")
)

// Journal receives every successful outbound publish
type Journal interface {
	Record(topic string, kind string, retained bool, payload []byte)
}

// ChangeListener is told which collection changed after a snapshot or an
// optimistic edit
type ChangeListener func(store.Collection)

// StatusListener is told about connection transitions
type StatusListener func(transport.Status)

// Deps is everything the engine needs; it is assembled once in main
type Deps struct {
	Broker   transport.Broker
	Store    *store.Store
	Notify   *notify.Log
	Topics   config.Topics
	Sync     config.SyncConfig
	Metrics  *metrics.Metrics
	Journal  Journal
	Logger   *zap.Logger
	Clock    *utils.IDClock
	Location *time.Location
	Now      func() time.Time
}

type job struct {
	fn     func(*Publisher) error
	result chan error
}

// Engine runs the consumer loop
type Engine struct {
	broker   transport.Broker
	store    *store.Store
	notify   *notify.Log
	topics   config.Topics
	cfg      config.SyncConfig
	metrics  *metrics.Metrics
	journal  Journal
	log      *zap.Logger
	clock    *utils.IDClock
	location *time.Location
	validate *validator.Validate

	routes    map[string]store.Collection
	pending   *Pending
	publisher *Publisher
	jobs      chan job

	mu              sync.RWMutex
	isRunning       bool
	stopChan        chan struct{}
	doneChan        chan struct{}
	lastStatus      transport.Status
	changeListeners []ChangeListener
	statusListeners []StatusListener

	// loop-owned; rates are settled once a rate card has been received or
	// published, until then the seeded defaults are provisional
	ratesSettled bool
	ratesGrace   *time.Timer
	ratesWait    <-chan time.Time
}

// New wires an engine; call Start to run it
func New(d Deps) *Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = utils.NewIDClock()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Notify == nil {
		d.Notify = notify.New()
	}
	queue := d.Sync.QueueSize
	if queue < 1 {
		queue = 1
	}

	e := &Engine{
		broker:   d.Broker,
		store:    d.Store,
		notify:   d.Notify,
		topics:   d.Topics,
		cfg:      d.Sync,
		metrics:  d.Metrics,
		journal:  d.Journal,
		log:      d.Logger,
		clock:    d.Clock,
		location: d.Location,
		validate: validator.New(),
		routes: map[string]store.Collection{
			d.Topics.Inbound:    store.Inbound,
			d.Topics.Approval:   store.Approvals,
			d.Topics.History:    store.History,
			d.Topics.Rates:      store.Rates,
			d.Topics.Invoices:   store.Invoices,
			d.Topics.Activities: store.Activities,
		},
		pending:    NewPending(d.Now),
		jobs:       make(chan job, queue),
		lastStatus: transport.StatusDisconnected,
	}
	e.publisher = &Publisher{e: e}

	if pub, ok := d.Broker.(interface {
		SetPublishErrorHandler(transport.PublishErrorHandler)
	}); ok {
		pub.SetPublishErrorHandler(e.onAsyncPublishError)
	}

	for _, c := range store.AllCollections {
		e.metrics.SetCollectionSize(string(c), e.store.Len(c))
	}
	return e
}

// OnChange registers a collection change listener. Listeners run on the
// engine loop and must not block.
func (e *Engine) OnChange(fn ChangeListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changeListeners = append(e.changeListeners, fn)
}

// OnStatus registers a connection status listener
func (e *Engine) OnStatus(fn StatusListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusListeners = append(e.statusListeners, fn)
}

// Store returns the state store the engine writes to
func (e *Engine) Store() *store.Store { return e.store }

// Notifications returns the local event log
func (e *Engine) Notifications() *notify.Log { return e.notify }

// Pending returns the tracked unconfirmed actions
func (e *Engine) Pending() []PendingAction { return e.pending.List() }

// Status reports the transport's connection status
func (e *Engine) Status() transport.Status { return e.broker.Status() }

// StatusHistory returns recorded connection transitions when the broker keeps them
func (e *Engine) StatusHistory() []transport.StatusChange {
	if h, ok := e.broker.(interface{ History() []transport.StatusChange }); ok {
		return h.History()
	}
	return nil
}

// Start connects the broker and runs the loop until Stop or ctx ends
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.isRunning {
		e.mu.Unlock()
		return fmt.Errorf("sync engine already running")
	}
	e.isRunning = true
	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})
	go e.loop(ctx, e.stopChan, e.doneChan)
	e.mu.Unlock()

	e.log.Info("Sync engine starting", zap.Strings("topics", e.topics.StateTopics()))
	e.broker.Connect(ctx)
	return nil
}

// Stop ends the loop and closes the broker connection
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.isRunning {
		e.mu.Unlock()
		return
	}
	e.isRunning = false
	close(e.stopChan)
	done := e.doneChan
	e.mu.Unlock()

	<-done
	e.broker.Close()
	e.log.Info("Sync engine stopped")
}

// Do runs fn on the engine loop and waits for its result. All user actions
// go through here so they never interleave with snapshot handling.
func (e *Engine) Do(ctx context.Context, fn func(*Publisher) error) error {
	e.mu.RLock()
	running := e.isRunning
	stop, done := e.stopChan, e.doneChan
	e.mu.RUnlock()
	if !running {
		return ErrEngineStopped
	}

	j := job{fn: fn, result: make(chan error, 1)}
	select {
	case e.jobs <- j:
	case <-stop:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case msg := <-e.broker.Messages():
			e.handleMessage(msg)
		case st := <-e.broker.Events():
			e.handleStatus(st)
		case j := <-e.jobs:
			j.result <- e.runJob(j)
		case <-e.ratesWait:
			e.ratesGraceExpired()
		}
	}
}

func (e *Engine) runJob(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Action panicked", zap.Any("panic", r))
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return j.fn(e.publisher)
}

// handleMessage replaces the collection a snapshot topic maps to. Anything
// that does not parse is logged and dropped without touching state.
func (e *Engine) handleMessage(msg transport.Message) {
	coll, ok := e.routes[msg.Topic]
	if !ok {
		e.log.Debug("Ignoring message on unrouted topic", zap.String("topic", msg.Topic))
		return
	}
	e.metrics.MessageReceived(msg.Topic)

	snap, err := snapshot.Normalize(msg.Payload)
	if err != nil {
		e.metrics.MalformedPayload(msg.Topic)
		e.log.Warn("Dropping malformed snapshot",
			zap.String("topic", msg.Topic),
			zap.Int("bytes", len(msg.Payload)),
			zap.Error(err))
		return
	}

	var skipped int
	switch coll {
	case store.Inbound:
		skipped, err = replaceWith[models.InboundOrder](e.store, coll, snap, nil)
	case store.Approvals:
		skipped, err = replaceWith[models.ApprovalItem](e.store, coll, snap, nil)
	case store.History:
		skipped, err = replaceWith[models.HistoryRecord](e.store, coll, snap, nil)
	case store.Rates:
		skipped, err = replaceWith[models.RateCardEntry](e.store, coll, snap, nil)
	case store.Invoices:
		skipped, err = replaceWith[models.Invoice](e.store, coll, snap, nil)
	case store.Activities:
		sentinel := e.cfg.ActivitySentinel
		skipped, err = replaceWith(e.store, coll, snap, func(list []models.WarehouseActivity) []models.WarehouseActivity {
			return snapshot.WithoutSentinel(list, sentinel)
		})
	}
	if err != nil {
		e.log.Error("Snapshot replace failed", zap.String("collection", string(coll)), zap.Error(err))
		return
	}

	if coll == store.Rates {
		e.settleRates()
	}
	skipped += snap.Dropped
	e.metrics.SkippedRecords(string(coll), skipped)
	if skipped > 0 {
		e.log.Warn("Skipped undecodable records",
			zap.String("collection", string(coll)),
			zap.Int("skipped", skipped))
	}
	e.log.Debug("Snapshot applied",
		zap.String("collection", string(coll)),
		zap.String("shape", snap.Shape.String()),
		zap.Int("records", e.store.Len(coll)),
		zap.Bool("retained", msg.Retained))

	e.confirmPending(coll)
	e.changed(coll)
}

func replaceWith[T any](s *store.Store, coll store.Collection, snap snapshot.Snapshot, filter func([]T) []T) (int, error) {
	list, skipped := snapshot.Decode[T](snap.Records)
	if filter != nil {
		list = filter(list)
	}
	return skipped, s.Replace(coll, list)
}

func (e *Engine) confirmPending(coll store.Collection) {
	var present map[string]bool
	switch coll {
	case store.Inbound:
		present = keySet(e.store.Inbound())
	case store.Approvals:
		present = keySet(e.store.Approvals())
	default:
		return
	}
	for _, a := range e.pending.Confirm(coll, present) {
		e.log.Info("Action confirmed by snapshot", zap.String("kind", string(a.Kind)), zap.String("dn", a.DN))
	}
	e.metrics.SetPending(e.pending.Len())
}

func keySet[T models.Keyed](list []T) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, item := range list {
		out[item.Key()] = true
	}
	return out
}

// handleStatus reacts to transport transitions in the order they were
// reported, so a quick drop and reconnect still re-runs the connect hook.
func (e *Engine) handleStatus(current transport.Status) {
	e.mu.Lock()
	previous := e.lastStatus
	e.lastStatus = current
	listeners := append([]StatusListener(nil), e.statusListeners...)
	e.mu.Unlock()

	if current == previous {
		return
	}
	e.metrics.SetConnection(int(current))
	for _, fn := range listeners {
		fn(current)
	}

	switch {
	case current == transport.StatusConnected:
		e.onConnect()
	case previous == transport.StatusConnected:
		e.notify.Append("Broker Connection Lost", models.NotifyError)
	}
}

// onConnect subscribes to every state topic, then re-asserts the state this
// dashboard owns so a broker that lost its retained store gets it back.
// Until a rate card has been seen, the seeded defaults wait out the grace
// period so a retained card from an earlier session wins over them.
func (e *Engine) onConnect() {
	topics := e.topics.StateTopics()
	if err := e.broker.Subscribe(topics...); err != nil {
		e.log.Error("Subscribe failed", zap.Error(err))
	}

	if e.ratesSettled || e.cfg.RateCardGrace <= 0 {
		_ = e.publishJSON(e.topics.Rates, "state", e.store.Rates(), true)
	} else if e.ratesGrace == nil {
		e.ratesGrace = time.NewTimer(e.cfg.RateCardGrace)
		e.ratesWait = e.ratesGrace.C
		e.log.Debug("Waiting for retained rate card", zap.Duration("grace", e.cfg.RateCardGrace))
	}
	if invoices := e.store.Invoices(); len(invoices) > 0 {
		_ = e.publishJSON(e.topics.Invoices, "state", invoices, true)
	}
	e.notify.Append("Connected to Broker", models.NotifySystem)
}

func (e *Engine) settleRates() {
	e.ratesSettled = true
	if e.ratesGrace != nil {
		e.ratesGrace.Stop()
		e.ratesGrace, e.ratesWait = nil, nil
	}
}

// ratesGraceExpired publishes the seeded rate card when no retained one
// arrived in time
func (e *Engine) ratesGraceExpired() {
	e.ratesGrace, e.ratesWait = nil, nil
	if e.ratesSettled {
		return
	}
	e.mu.RLock()
	connected := e.lastStatus == transport.StatusConnected
	e.mu.RUnlock()
	if !connected {
		// the next connect publishes them
		e.ratesSettled = true
		return
	}
	e.log.Info("No retained rate card, publishing defaults")
	_ = e.publishJSON(e.topics.Rates, "state", e.store.Rates(), true)
}

// publishJSON is the single outbound path. Failures are logged, counted and
// surfaced as a notification; the caller's optimistic edit stands.
func (e *Engine) publishJSON(topic, kind string, v interface{}, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		e.log.Error("Failed to encode payload", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("encode %s payload: %w", kind, err)
	}

	if err := e.broker.Publish(topic, payload, transport.PublishOptions{Retained: retained}); err != nil {
		e.publishFailed(topic, err)
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	if topic == e.topics.Rates {
		e.settleRates()
	}
	e.metrics.Published(topic, retained)
	if e.journal != nil {
		e.journal.Record(topic, kind, retained, payload)
	}
	e.log.Debug("Published", zap.String("topic", topic), zap.Bool("retained", retained), zap.Int("bytes", len(payload)))
	return nil
}

func (e *Engine) publishFailed(topic string, err error) {
	e.metrics.PublishFailed(topic)
	e.log.Error("Publish failed", zap.String("topic", topic), zap.Error(err))
	e.notify.Append("Publish Failed: "+topic, models.NotifyError)
}

// onAsyncPublishError runs on a transport goroutine; notify and metrics are
// safe to touch from there
func (e *Engine) onAsyncPublishError(topic string, err error) {
	e.publishFailed(topic, err)
}

func (e *Engine) changed(coll store.Collection) {
	e.metrics.SetCollectionSize(string(coll), e.store.Len(coll))

	e.mu.RLock()
	listeners := append([]ChangeListener(nil), e.changeListeners...)
	e.mu.RUnlock()
	for _, fn := range listeners {
		fn(coll)
	}
}

// SweepPending reports actions that stayed unconfirmed past the action
// timeout. Each one raises a single error notification.
func (e *Engine) SweepPending(ctx context.Context) ([]PendingAction, error) {
	var expired []PendingAction
	err := e.Do(ctx, func(*Publisher) error {
		expired = e.pending.Expired(e.cfg.ActionTimeout)
		for _, a := range expired {
			e.metrics.ActionTimedOut()
			e.log.Warn("Action not confirmed in time",
				zap.String("kind", string(a.Kind)),
				zap.String("dn", a.DN),
				zap.Duration("timeout", e.cfg.ActionTimeout))
			e.notify.Append(fmt.Sprintf("No Confirmation: %s %s", a.Kind, a.DN), models.NotifyError)
		}
		return nil
	})
	return expired, err
}
