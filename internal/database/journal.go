package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xelth-com/eckcosting/internal/models"
)

// JournalStore persists published actions
type JournalStore interface {
	Insert(ctx context.Context, row *models.PublishedAction) error
	Recent(ctx context.Context, limit int) ([]models.PublishedAction, error)
}

// GormJournal is the postgres-backed JournalStore
type GormJournal struct {
	db *gorm.DB
}

// NewGormJournal migrates the journal table and returns the store
func NewGormJournal(db *DB) (*GormJournal, error) {
	if err := db.AutoMigrate(&models.PublishedAction{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &GormJournal{db: db.DB}, nil
}

func (g *GormJournal) Insert(ctx context.Context, row *models.PublishedAction) error {
	return g.db.WithContext(ctx).Create(row).Error
}

func (g *GormJournal) Recent(ctx context.Context, limit int) ([]models.PublishedAction, error) {
	var rows []models.PublishedAction
	err := g.db.WithContext(ctx).
		Order("published_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Recorder writes publishes to a JournalStore from a background worker so
// the sync loop never waits on the database. When the buffer is full the
// entry is dropped and counted.
type Recorder struct {
	store   JournalStore
	log     *zap.Logger
	now     func() time.Time
	queue   chan models.PublishedAction
	dropped atomic.Int64

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewRecorder starts the worker
func NewRecorder(store JournalStore, buffer int, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer < 1 {
		buffer = 1
	}
	r := &Recorder{
		store:    store,
		log:      log,
		now:      time.Now,
		queue:    make(chan models.PublishedAction, buffer),
		stopChan: make(chan struct{}),
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Record queues one publish; it never blocks
func (r *Recorder) Record(topic, kind string, retained bool, payload []byte) {
	row := models.PublishedAction{
		Topic:       topic,
		Kind:        kind,
		Retained:    retained,
		Payload:     datatypes.JSON(append([]byte(nil), payload...)),
		PublishedAt: r.now().UTC(),
	}
	select {
	case <-r.stopChan:
		return
	default:
	}
	select {
	case r.queue <- row:
	default:
		r.dropped.Add(1)
		r.log.Warn("Journal buffer full, dropping entry", zap.String("topic", topic))
	}
}

// Dropped returns how many entries were lost to a full buffer
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Recent lists the newest journal rows
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.PublishedAction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return r.store.Recent(ctx, limit)
}

// Close drains what is queued and stops the worker
func (r *Recorder) Close() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case row := <-r.queue:
			r.write(row)
		case <-r.stopChan:
			for {
				select {
				case row := <-r.queue:
					r.write(row)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(row models.PublishedAction) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Insert(ctx, &row); err != nil {
		r.log.Error("Journal write failed", zap.String("topic", row.Topic), zap.Error(err))
	}
}
