package models

// OrderItemRow is an order_items row as the store returns it. Every column
// except the keys may come back null.
type OrderItemRow struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OrderID     string  `gorm:"type:varchar(32);not null;index" json:"order_id"`
	MenuID      *string `gorm:"type:varchar(64)" json:"menu_id"`
	Quantity    *int    `json:"quantity"`
	PriceAtTime *int64  `json:"price_at_time"`
	NameAtTime  *string `gorm:"type:varchar(255)" json:"name_at_time"`
	Notes       *string `gorm:"type:text" json:"notes"`
}

func (OrderItemRow) TableName() string { return "order_items" }

// NewOrderItemRow snapshots a cart line into a row owned by orderID.
func NewOrderItemRow(orderID string, line OrderLine) OrderItemRow {
	notes := line.Notes
	return OrderItemRow{
		OrderID:     orderID,
		MenuID:      &line.MenuID,
		Quantity:    &line.Quantity,
		PriceAtTime: &line.Price,
		NameAtTime:  &line.Name,
		Notes:       &notes,
	}
}
