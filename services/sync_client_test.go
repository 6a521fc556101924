package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/fantasteak-pos/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SelectOrders(ctx context.Context) ([]models.OrderRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.OrderRow)
	return rows, args.Error(1)
}

func (m *mockStore) InsertOrder(ctx context.Context, row *models.OrderRow) error {
	return m.Called(ctx, row).Error(0)
}

func (m *mockStore) InsertOrderItems(ctx context.Context, rows []models.OrderItemRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

// memFeed is an in-process ChangeFeed driven by emit.
type memFeed struct {
	mu   sync.Mutex
	next FeedHandle
	subs map[FeedHandle]feedSubscriber
}

func newMemFeed() *memFeed {
	return &memFeed{subs: make(map[FeedHandle]feedSubscriber)}
}

func (f *memFeed) Subscribe(collection string, fn func(models.DBChange)) FeedHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.subs[f.next] = feedSubscriber{collection: collection, fn: fn}
	return f.next
}

func (f *memFeed) Unsubscribe(h FeedHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, h)
}

func (f *memFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *memFeed) emit(collection, action string) {
	f.mu.Lock()
	var fns []func(models.DBChange)
	for _, s := range f.subs {
		if s.collection == collection {
			fns = append(fns, s.fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(models.DBChange{Collection: collection, ActionType: action, RecordID: "FT-1"})
	}
}

func ptr[T any](v T) *T { return &v }

func fixedIDs() *IDGenerator {
	return &IDGenerator{
		Now:  func() time.Time { return time.UnixMilli(1760000012345) },
		Intn: func(int) int { return 7 },
	}
}

func pendingRow(id string) models.OrderRow {
	return models.OrderRow{
		ID:           id,
		CustomerName: ptr("Budi"),
		Status:       ptr("PENDING"),
		Total:        ptr(int64(35000)),
		OrderItems: []models.OrderItemRow{{
			NameAtTime:  ptr("Iced Lychee Tea"),
			PriceAtTime: ptr(int64(35000)),
			Quantity:    ptr(1),
		}},
	}
}

func wagyuCart() []models.OrderLine {
	return []models.OrderLine{
		{MenuID: "m1", Name: "Wagyu Ribeye MB9+", Price: 450000, Quantity: 2, Notes: "less salt"},
		{MenuID: "m4", Name: "Iced Lychee Tea", Price: 35000, Quantity: 1},
	}
}

func TestCreateOrder_PreOrderWithoutDateRejectedBeforeWrite(t *testing.T) {
	store := new(mockStore)
	client := NewSyncClient(store, newMemFeed())

	_, err := client.CreateOrder(context.Background(), NewOrder{
		Items:         wagyuCart(),
		CustomerName:  "Budi",
		OrderType:     models.OrderTypePreOrder,
		PaymentMethod: models.PaymentCash,
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "event_date", verr.Field)
	assert.Equal(t, "Harap tentukan tanggal untuk Pre-Order!", verr.Message)
	store.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "InsertOrderItems", mock.Anything, mock.Anything)
}

func TestCreateOrder_WritesOrderThenItems(t *testing.T) {
	store := new(mockStore)
	created := time.Date(2026, 10, 14, 19, 0, 0, 0, time.UTC)
	client := NewSyncClient(store, newMemFeed()).
		WithIDGenerator(fixedIDs()).
		WithClock(func() time.Time { return created })

	var order *models.OrderRow
	store.On("InsertOrder", mock.Anything, mock.AnythingOfType("*models.OrderRow")).
		Run(func(args mock.Arguments) { order = args.Get(1).(*models.OrderRow) }).
		Return(nil).Once()
	store.On("InsertOrderItems", mock.Anything, mock.MatchedBy(func(rows []models.OrderItemRow) bool {
		return len(rows) == 2 && rows[0].OrderID == "FT-23457" && *rows[0].NameAtTime == "Wagyu Ribeye MB9+"
	})).Return(nil).Once()
	store.On("SelectOrders", mock.Anything).Return([]models.OrderRow{}, nil).Once()

	id, err := client.CreateOrder(context.Background(), NewOrder{
		Items:         wagyuCart(),
		CustomerName:  "  Budi ",
		OrderType:     models.OrderTypeDineIn,
		PaymentMethod: models.PaymentQRIS,
		TableNumber:   "7",
		EventDate:     "2026-11-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "FT-23457", id)

	require.NotNil(t, order)
	assert.Equal(t, "Budi", *order.CustomerName)
	assert.Equal(t, "PENDING", *order.Status)
	assert.Equal(t, int64(935000), *order.Total)
	assert.Equal(t, "7", *order.TableNumber)
	assert.Nil(t, order.EventDate, "event date is only stored for pre-orders")
	assert.Equal(t, created, *order.CreatedAt)
	store.AssertExpectations(t)
}

func TestCreateOrder_ItemsFailureLeavesPartialWrite(t *testing.T) {
	store := new(mockStore)
	client := NewSyncClient(store, newMemFeed()).WithIDGenerator(fixedIDs())

	store.On("InsertOrder", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("InsertOrderItems", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	id, err := client.CreateOrder(context.Background(), NewOrder{
		Items:         wagyuCart(),
		CustomerName:  "Sari",
		OrderType:     models.OrderTypeTakeaway,
		PaymentMethod: models.PaymentCash,
	})
	assert.Empty(t, id)

	var partial *PartialWriteError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, "FT-23457", partial.OrderID)
	assert.EqualError(t, partial.Err, "connection reset")
	store.AssertNotCalled(t, "SelectOrders", mock.Anything)
}

func TestCreateOrder_OrderInsertFailure(t *testing.T) {
	store := new(mockStore)
	client := NewSyncClient(store, newMemFeed())
	store.On("InsertOrder", mock.Anything, mock.Anything).Return(errors.New("store offline")).Once()

	_, err := client.CreateOrder(context.Background(), NewOrder{
		Items:         wagyuCart(),
		CustomerName:  "Sari",
		OrderType:     models.OrderTypeTakeaway,
		PaymentMethod: models.PaymentCash,
	})
	require.Error(t, err)
	var partial *PartialWriteError
	assert.False(t, errors.As(err, &partial))
	store.AssertNotCalled(t, "InsertOrderItems", mock.Anything, mock.Anything)
}

func TestFetchAll_KeepsProjectionOnFailure(t *testing.T) {
	store := new(mockStore)
	client := NewSyncClient(store, newMemFeed())

	store.On("SelectOrders", mock.Anything).Return([]models.OrderRow{pendingRow("FT-1")}, nil).Once()
	store.On("SelectOrders", mock.Anything).Return(nil, errors.New("timeout")).Once()

	orders, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)

	_, err = client.FetchAll(context.Background())
	require.Error(t, err)

	kept := client.Orders()
	require.Len(t, kept, 1)
	assert.Equal(t, "FT-1", kept[0].ID)
}

func TestFetchAll_MalformedRowDefaulted(t *testing.T) {
	store := new(mockStore)
	client := NewSyncClient(store, newMemFeed())
	store.On("SelectOrders", mock.Anything).Return([]models.OrderRow{{ID: "FT-9"}}, nil).Once()

	orders, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Pelanggan", orders[0].CustomerName)
	assert.Equal(t, models.StatusPending, orders[0].Status)
}

func TestSubscribe_EveryNotificationCallsBack(t *testing.T) {
	feed := newMemFeed()
	client := NewSyncClient(new(mockStore), feed)

	calls := 0
	sub := client.Subscribe(func() { calls++ })
	assert.Equal(t, 2, feed.count())

	feed.emit(models.CollectionOrders, models.ActionInsert)
	feed.emit(models.CollectionOrderItems, models.ActionInsert)
	feed.emit(models.CollectionOrderItems, models.ActionInsert)
	assert.Equal(t, 3, calls, "bursts are not coalesced")

	client.Unsubscribe(sub)
	feed.emit(models.CollectionOrders, models.ActionUpdate)
	assert.Equal(t, 3, calls)
	assert.Zero(t, feed.count())
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	feed := newMemFeed()
	client := NewSyncClient(new(mockStore), feed)
	sub := client.Subscribe(func() {})

	assert.NotPanics(t, func() {
		client.Unsubscribe(sub)
		client.Unsubscribe(sub)
		client.Unsubscribe(Subscription(999))
	})
	assert.Zero(t, feed.count())
}

func TestStart_RefetchesOnNotificationAndClose(t *testing.T) {
	store := new(mockStore)
	feed := newMemFeed()
	client := NewSyncClient(store, feed)

	store.On("SelectOrders", mock.Anything).Return([]models.OrderRow{pendingRow("FT-1")}, nil).Once()
	confirmed := pendingRow("FT-1")
	confirmed.Status = ptr("CONFIRMED")
	store.On("SelectOrders", mock.Anything).Return([]models.OrderRow{confirmed}, nil).Once()

	var refreshed [][]models.Order
	client.OnRefresh(func(orders []models.Order) { refreshed = append(refreshed, orders) })

	client.Start(context.Background())
	client.Start(context.Background())
	assert.Equal(t, 2, feed.count(), "second Start does not subscribe again")

	feed.emit(models.CollectionOrders, models.ActionUpdate)
	o, ok := client.Order("FT-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusConfirmed, o.Status)
	assert.Len(t, refreshed, 2)

	client.Close()
	client.Close()
	assert.Zero(t, feed.count())
}

func TestActiveOrders_ExcludesOnlyPaid(t *testing.T) {
	store := new(mockStore)
	client := NewSyncClient(store, newMemFeed())

	paid, cancelled := pendingRow("FT-2"), pendingRow("FT-3")
	paid.Status = ptr("PAID")
	cancelled.Status = ptr("CANCELLED")
	store.On("SelectOrders", mock.Anything).
		Return([]models.OrderRow{pendingRow("FT-1"), paid, cancelled}, nil).Once()

	_, err := client.FetchAll(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, o := range client.ActiveOrders() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"FT-1", "FT-3"}, ids)
	assert.Len(t, client.Orders(), 3)
}

func TestOrders_ReturnsCopies(t *testing.T) {
	store := new(mockStore)
	client := NewSyncClient(store, newMemFeed())
	store.On("SelectOrders", mock.Anything).Return([]models.OrderRow{pendingRow("FT-1")}, nil).Once()
	_, err := client.FetchAll(context.Background())
	require.NoError(t, err)

	orders := client.Orders()
	orders[0].Items[0].Name = "changed"
	orders[0].Status = models.StatusPaid

	o, _ := client.Order("FT-1")
	assert.Equal(t, "Iced Lychee Tea", o.Items[0].Name)
	assert.Equal(t, models.StatusPending, o.Status)
}
