package services

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

var _ ChangeFeed = (*ChangeMonitor)(nil)

type feedSubscriber struct {
	collection string
	fn         func(models.DBChange)
}

// maxGaps bounds how many skipped ids a monitor keeps watching.
const maxGaps = 1000

// ChangeMonitor turns the trigger-fed db_changes log into per-collection
// notifications. Each process keeps its own cursor, so every console sees
// every change regardless of what other consoles have read.
//
// Ids skipped when the cursor advances are watched for Grace. A row whose
// transaction commits after a higher id was read is still dispatched once it
// appears within that window.
type ChangeMonitor struct {
	DB        *gorm.DB
	Interval  time.Duration
	Batch     int
	Retention time.Duration
	Grace     time.Duration

	mu     sync.Mutex
	cursor uint
	gaps   map[uint]time.Time
	next   FeedHandle
	subs   map[FeedHandle]feedSubscriber
	now    func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

func NewChangeMonitor(db *gorm.DB) *ChangeMonitor {
	return &ChangeMonitor{
		DB:        db,
		Interval:  500 * time.Millisecond,
		Batch:     100,
		Retention: 24 * time.Hour,
		Grace:     5 * time.Second,
		gaps:      make(map[uint]time.Time),
		subs:      make(map[FeedHandle]feedSubscriber),
		now:       time.Now,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (cm *ChangeMonitor) Subscribe(collection string, fn func(models.DBChange)) FeedHandle {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.next++
	cm.subs[cm.next] = feedSubscriber{collection: collection, fn: fn}
	return cm.next
}

func (cm *ChangeMonitor) Unsubscribe(h FeedHandle) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.subs, h)
}

// Seek moves the cursor past every change already in the log.
func (cm *ChangeMonitor) Seek(ctx context.Context) error {
	var last uint
	if err := cm.DB.WithContext(ctx).
		Model(&models.DBChange{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&last).Error; err != nil {
		return errors.Wrap(err, "seek change log")
	}
	cm.mu.Lock()
	cm.cursor = last
	cm.gaps = make(map[uint]time.Time)
	cm.mu.Unlock()
	return nil
}

// Start seeks to the end of the log and polls it every Interval until Stop.
func (cm *ChangeMonitor) Start(ctx context.Context) error {
	if err := cm.Seek(ctx); err != nil {
		return err
	}

	go func() {
		defer close(cm.done)
		ticker := time.NewTicker(cm.Interval)
		defer ticker.Stop()

		lastPrune := time.Now()
		for {
			select {
			case <-ticker.C:
				if _, err := cm.Poll(ctx); err != nil {
					utils.ErrorLogger.WithError(err).Warn("Change feed poll failed")
				}
				if cm.Retention > 0 && time.Since(lastPrune) >= time.Minute {
					lastPrune = time.Now()
					if _, err := cm.Prune(ctx, time.Now().Add(-cm.Retention)); err != nil {
						utils.ErrorLogger.WithError(err).Warn("Change feed prune failed")
					}
				}
			case <-cm.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop ends polling and waits for the loop to exit. Safe to call more than once.
func (cm *ChangeMonitor) Stop() {
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
	})
	select {
	case <-cm.done:
	case <-time.After(5 * time.Second):
	}
}

// Poll reads changes past the cursor in id order, plus any watched gap ids
// that have since committed, and hands each one to the subscribers of its
// collection. It returns how many rows were dispatched.
func (cm *ChangeMonitor) Poll(ctx context.Context) (int, error) {
	cm.mu.Lock()
	cursor := cm.cursor
	watched := make([]uint, 0, len(cm.gaps))
	for id := range cm.gaps {
		watched = append(watched, id)
	}
	cm.mu.Unlock()

	batch := cm.Batch
	if batch <= 0 {
		batch = 100
	}

	var late []models.DBChange
	if len(watched) > 0 {
		if err := cm.DB.WithContext(ctx).
			Where("id IN ?", watched).
			Order("id ASC").
			Find(&late).Error; err != nil {
			return 0, errors.Wrap(err, "read late changes")
		}
	}

	var changes []models.DBChange
	if err := cm.DB.WithContext(ctx).
		Where("id > ?", cursor).
		Order("id ASC").
		Limit(batch).
		Find(&changes).Error; err != nil {
		return 0, errors.Wrap(err, "read change log")
	}

	for _, change := range late {
		utils.InfoLogger.WithField("id", change.ID).Debug("Change committed after a later one")
		cm.dispatch(change)
	}
	for _, change := range changes {
		cm.dispatch(change)
	}

	cm.advance(cursor, late, changes)
	return len(late) + len(changes), nil
}

func (cm *ChangeMonitor) dispatch(change models.DBChange) {
	utils.InfoLogger.WithFields(logrus.Fields{
		"table":     change.Collection,
		"action":    change.ActionType,
		"record_id": change.RecordID,
	}).Debug("Dispatching change")
	for _, fn := range cm.subscribersFor(change.Collection) {
		fn(change)
	}
}

// advance moves the cursor past changes, starts watching the ids it skipped
// over and forgets gaps that filled in or outlived Grace.
func (cm *ChangeMonitor) advance(from uint, late, changes []models.DBChange) {
	now := cm.now()
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for _, change := range late {
		delete(cm.gaps, change.ID)
	}
	prev := from
	for _, change := range changes {
		for id := prev + 1; id < change.ID && len(cm.gaps) < maxGaps; id++ {
			cm.gaps[id] = now
		}
		prev = change.ID
	}
	for id, seen := range cm.gaps {
		if now.Sub(seen) > cm.Grace {
			delete(cm.gaps, id)
		}
	}
	if prev > cm.cursor {
		cm.cursor = prev
	}
}

// Prune deletes log rows older than before. Trigger timestamps are UTC.
func (cm *ChangeMonitor) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := cm.DB.WithContext(ctx).
		Where("changed_at < ?", before.UTC()).
		Delete(&models.DBChange{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "prune change log")
	}
	if res.RowsAffected > 0 {
		utils.InfoLogger.Printf("Pruned %d change log rows", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

func (cm *ChangeMonitor) subscribersFor(collection string) []func(models.DBChange) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	var fns []func(models.DBChange)
	for h := FeedHandle(1); h <= cm.next; h++ {
		if sub, ok := cm.subs[h]; ok && sub.collection == collection {
			fns = append(fns, sub.fn)
		}
	}
	return fns
}
