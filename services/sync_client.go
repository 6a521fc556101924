package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// OrderStore is the remote persistence the sync client writes through.
type OrderStore interface {
	SelectOrders(ctx context.Context) ([]models.OrderRow, error)
	InsertOrder(ctx context.Context, row *models.OrderRow) error
	InsertOrderItems(ctx context.Context, rows []models.OrderItemRow) error
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// FeedHandle identifies one registration on a ChangeFeed.
type FeedHandle uint64

// ChangeFeed delivers insert/update/delete notifications per collection.
type ChangeFeed interface {
	Subscribe(collection string, fn func(models.DBChange)) FeedHandle
	Unsubscribe(h FeedHandle)
}

// Subscription is returned by SyncSource.Subscribe.
type Subscription uint64

// SyncSource is the read side the screens depend on.
type SyncSource interface {
	FetchAll(ctx context.Context) ([]models.Order, error)
	Subscribe(onChange func()) Subscription
	Unsubscribe(sub Subscription)
}

var _ SyncSource = (*SyncClient)(nil)

var ErrOrderNotFound = errors.New("order not found")

// PartialWriteError means the order row was stored but its lines were not.
// The order stays in the store with zero lines until someone removes it.
type PartialWriteError struct {
	OrderID string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("order %s stored without items: %v", e.OrderID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// SyncClient keeps this process's projection of every order. The projection
// only changes after a full FetchAll; writes go to the store first.
type SyncClient struct {
	store OrderStore
	feed  ChangeFeed
	ids   *IDGenerator
	now   func() time.Time

	// fetchMu orders whole fetches so a read taken earlier never replaces
	// the result of a later one.
	fetchMu sync.Mutex

	mu     sync.RWMutex
	orders []models.Order

	subMu   sync.Mutex
	nextSub Subscription
	subs    map[Subscription][]FeedHandle
	live    Subscription

	hookMu sync.RWMutex
	hooks  []func([]models.Order)
}

func NewSyncClient(store OrderStore, feed ChangeFeed) *SyncClient {
	return &SyncClient{
		store: store,
		feed:  feed,
		ids:   NewIDGenerator(),
		now:   time.Now,
		subs:  make(map[Subscription][]FeedHandle),
	}
}

// WithIDGenerator replaces the order id source.
func (c *SyncClient) WithIDGenerator(g *IDGenerator) *SyncClient {
	c.ids = g
	return c
}

// WithClock replaces the clock used for created_at.
func (c *SyncClient) WithClock(now func() time.Time) *SyncClient {
	c.now = now
	return c
}

// OnRefresh registers fn to receive a copy of every fresh projection.
func (c *SyncClient) OnRefresh(fn func([]models.Order)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Start loads the projection and refetches on every change notification.
// Calling it again while started does nothing.
func (c *SyncClient) Start(ctx context.Context) {
	c.subMu.Lock()
	started := c.live != 0
	c.subMu.Unlock()
	if started {
		return
	}

	if _, err := c.FetchAll(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Warn("Initial order fetch failed, projection is empty")
	}
	sub := c.Subscribe(func() {
		_, _ = c.FetchAll(ctx)
	})
	c.subMu.Lock()
	c.live = sub
	c.subMu.Unlock()
}

// Close drops the subscription made by Start.
func (c *SyncClient) Close() {
	c.subMu.Lock()
	sub := c.live
	c.live = 0
	c.subMu.Unlock()
	c.Unsubscribe(sub)
}

// FetchAll re-reads every order and replaces the projection. On failure the
// previous projection is kept. Concurrent calls run one at a time.
func (c *SyncClient) FetchAll(ctx context.Context) ([]models.Order, error) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	rows, err := c.store.SelectOrders(ctx)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Order fetch failed, keeping previous projection")
		return nil, errors.Wrap(err, "fetch orders")
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		o := models.RowToOrder(row)
		if len(o.Items) > 0 && !o.TotalMatches() {
			computed, _ := models.ComputeTotal(o.Items)
			utils.ErrorLogger.WithFields(logrus.Fields{
				"order_id": o.ID,
				"stored":   o.Total,
				"computed": computed,
			}).Warn("Stored total does not match order items")
		}
		orders = append(orders, o)
	}

	c.mu.Lock()
	c.orders = orders
	c.mu.Unlock()

	snapshot := cloneOrders(orders)
	c.hookMu.RLock()
	for _, fn := range c.hooks {
		fn(cloneOrders(snapshot))
	}
	c.hookMu.RUnlock()

	return snapshot, nil
}

// Subscribe calls onChange for every change to orders or order_items. Bursts
// are not coalesced; each notification is one call.
func (c *SyncClient) Subscribe(onChange func()) Subscription {
	notify := func(change models.DBChange) {
		utils.InfoLogger.WithFields(logrus.Fields{
			"collection": change.Collection,
			"action":     change.ActionType,
			"record_id":  change.RecordID,
		}).Debug("Change notification")
		onChange()
	}

	handles := []FeedHandle{
		c.feed.Subscribe(models.CollectionOrders, notify),
		c.feed.Subscribe(models.CollectionOrderItems, notify),
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSub++
	c.subs[c.nextSub] = handles
	return c.nextSub
}

// Unsubscribe is idempotent; unknown or already released handles are ignored.
func (c *SyncClient) Unsubscribe(sub Subscription) {
	c.subMu.Lock()
	handles, ok := c.subs[sub]
	delete(c.subs, sub)
	c.subMu.Unlock()
	if !ok {
		return
	}
	for _, h := range handles {
		c.feed.Unsubscribe(h)
	}
}

// CreateOrder validates the checkout, then writes the order row followed by
// its lines. The two writes are not atomic: if the lines fail the order row
// stays behind and a *PartialWriteError is returned. Nothing is retried.
func (c *SyncClient) CreateOrder(ctx context.Context, req NewOrder) (string, error) {
	if err := ValidateCheckout(req); err != nil {
		return "", err
	}
	total, err := models.ComputeTotal(req.Items)
	if err != nil {
		return "", err
	}

	id := c.ids.Next()
	created := c.now()
	name := strings.TrimSpace(req.CustomerName)
	orderType := string(req.OrderType)
	status := string(models.StatusPending)
	payment := string(req.PaymentMethod)

	row := &models.OrderRow{
		ID:            id,
		CustomerName:  &name,
		OrderType:     &orderType,
		Status:        &status,
		PaymentMethod: &payment,
		Total:         &total,
		CreatedAt:     &created,
	}
	if req.OrderType == models.OrderTypeDineIn && strings.TrimSpace(req.TableNumber) != "" {
		table := strings.TrimSpace(req.TableNumber)
		row.TableNumber = &table
	}
	if req.OrderType == models.OrderTypePreOrder {
		date := strings.TrimSpace(req.EventDate)
		row.EventDate = &date
	}

	log := utils.InfoLogger.WithField("order_id", id)
	if err := c.store.InsertOrder(ctx, row); err != nil {
		utils.ErrorLogger.WithField("order_id", id).WithError(err).Error("Order insert failed")
		return "", errors.Wrap(err, "create order")
	}

	items := make([]models.OrderItemRow, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, models.NewOrderItemRow(id, line))
	}
	if err := c.store.InsertOrderItems(ctx, items); err != nil {
		utils.ErrorLogger.WithField("order_id", id).WithError(err).Error("Order items insert failed, order row left without items")
		return "", &PartialWriteError{OrderID: id, Err: err}
	}
	log.WithField("total", total).Info("Order created")

	if _, err := c.FetchAll(ctx); err != nil {
		log.WithError(err).Warn("Refresh after create failed")
	}
	return id, nil
}

// UpdateStatus writes a new status without checking the state machine.
// Callers validate first; see OrderWorkflow.
func (c *SyncClient) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if err := c.store.UpdateOrderStatus(ctx, id, status); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_id": id,
			"status":   status,
		}).WithError(err).Error("Status update failed")
		return errors.Wrap(err, "update status")
	}
	return nil
}

// Orders returns the current projection, newest first.
func (c *SyncClient) Orders() []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneOrders(c.orders)
}

// ActiveOrders is the cashier queue: everything not yet PAID.
func (c *SyncClient) ActiveOrders() []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	active := make([]models.Order, 0, len(c.orders))
	for _, o := range c.orders {
		if IsActive(o.Status) {
			active = append(active, cloneOrder(o))
		}
	}
	return active
}

func (c *SyncClient) Order(id string) (models.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, o := range c.orders {
		if o.ID == id {
			return cloneOrder(o), true
		}
	}
	return models.Order{}, false
}

func cloneOrders(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	for i, o := range orders {
		out[i] = cloneOrder(o)
	}
	return out
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderLine(nil), o.Items...)
	return o
}
