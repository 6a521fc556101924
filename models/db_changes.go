package models

import (
	"time"
)

// Change feed actions written by the store triggers.
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Collections observed by the change feed.
const (
	CollectionOrders     = "orders"
	CollectionOrderItems = "order_items"
)

// DBChange is one row of the db_changes log. RecordID holds the order id for
// both collections, so an order_items change names its parent aggregate.
type DBChange struct {
	ID         uint      `gorm:"primaryKey"`
	Collection string    `gorm:"column:table_name;type:varchar(50);not null;index:idx_table_action"`
	RecordID   string    `gorm:"type:varchar(64);not null"`
	ActionType string    `gorm:"type:varchar(10);not null;index:idx_table_action"`
	ChangedAt  time.Time `gorm:"not null;index"`
}

func (DBChange) TableName() string { return "db_changes" }
