package database

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/fantasteak-pos/models"
)

// OrderStore is the gorm adapter for the orders/order_items collections.
type OrderStore struct {
	DB *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{DB: db}
}

// SelectOrders returns every order joined with its lines, newest first. Lines
// keep insertion order.
func (s *OrderStore) SelectOrders(ctx context.Context) ([]models.OrderRow, error) {
	var rows []models.OrderRow
	err := s.DB.WithContext(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	return rows, nil
}

// InsertOrder writes the order row alone; lines go through InsertOrderItems.
func (s *OrderStore) InsertOrder(ctx context.Context, row *models.OrderRow) error {
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return errors.Wrapf(err, "insert order %s", row.ID)
	}
	return nil
}

func (s *OrderStore) InsertOrderItems(ctx context.Context, rows []models.OrderItemRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return errors.Wrapf(err, "insert %d order items", len(rows))
	}
	return nil
}

// UpdateOrderStatus overwrites the status column. Concurrent writers race with
// last-write-wins; no version is checked.
func (s *OrderStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	err := s.DB.WithContext(ctx).
		Model(&models.OrderRow{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
	if err != nil {
		return errors.Wrapf(err, "update order %s status", id)
	}
	return nil
}

// DeleteOrder removes an order and its lines. Only orphan cleanup uses it.
func (s *OrderStore) DeleteOrder(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItemRow{}).Error; err != nil {
			return errors.Wrapf(err, "delete items of %s", id)
		}
		if err := tx.Where("id = ?", id).Delete(&models.OrderRow{}).Error; err != nil {
			return errors.Wrapf(err, "delete order %s", id)
		}
		return nil
	})
}

// OrphanOrders lists orders left without lines by a failed second write.
func (s *OrderStore) OrphanOrders(ctx context.Context) ([]models.OrderRow, error) {
	var rows []models.OrderRow
	err := s.DB.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id)").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "select orphan orders")
	}
	return rows, nil
}
