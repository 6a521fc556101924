package models

import "time"

// Defaults substituted for null or empty columns on read.
const (
	DefaultCustomerName = "Pelanggan"
	DefaultItemName     = "Item"
	DefaultQuantity     = 1
)

// OrderRow is an orders row joined with its order_items. Nullable columns are
// pointers so a partial row can be read without failing.
type OrderRow struct {
	ID            string         `gorm:"primaryKey;type:varchar(32)" json:"id"`
	CustomerName  *string        `gorm:"type:varchar(255)" json:"customer_name"`
	OrderType     *string        `gorm:"type:varchar(20)" json:"order_type"`
	TableNumber   *string        `gorm:"type:varchar(20)" json:"table_number"`
	EventDate     *string        `gorm:"type:varchar(32)" json:"event_date"`
	Status        *string        `gorm:"type:varchar(20);index" json:"status"`
	PaymentMethod *string        `gorm:"type:varchar(10)" json:"payment_method"`
	Total         *int64         `json:"total"`
	CreatedAt     *time.Time     `gorm:"index" json:"created_at"`
	OrderItems    []OrderItemRow `gorm:"foreignKey:OrderID;references:ID" json:"order_items"`
}

func (OrderRow) TableName() string { return "orders" }

// RowToOrder maps a raw row into the aggregate. It never fails:
//
//	customer_name  null/empty -> "Pelanggan"
//	order_type     null/empty -> DINE_IN
//	status         null/empty -> PENDING
//	payment_method null/empty -> CASH
//	total          null       -> 0
//	created_at     null       -> zero time
//	item name      null/empty -> "Item"
//	item quantity  null/0     -> 1
//	item price     null       -> 0
//	item menu_id, notes, table_number, event_date null -> ""
//
// Non-empty values are kept verbatim, including statuses this version does
// not know about.
func RowToOrder(row OrderRow) Order {
	o := Order{
		ID:            row.ID,
		CustomerName:  stringOr(row.CustomerName, DefaultCustomerName),
		OrderType:     OrderType(stringOr(row.OrderType, string(OrderTypeDineIn))),
		TableNumber:   stringOr(row.TableNumber, ""),
		EventDate:     stringOr(row.EventDate, ""),
		Status:        OrderStatus(stringOr(row.Status, string(StatusPending))),
		PaymentMethod: PaymentMethod(stringOr(row.PaymentMethod, string(PaymentCash))),
		Items:         make([]OrderLine, 0, len(row.OrderItems)),
	}
	if row.Total != nil {
		o.Total = *row.Total
	}
	if row.CreatedAt != nil {
		o.CreatedAt = *row.CreatedAt
	}
	for _, item := range row.OrderItems {
		o.Items = append(o.Items, rowToLine(item))
	}
	return o
}

func rowToLine(item OrderItemRow) OrderLine {
	line := OrderLine{
		MenuID:   stringOr(item.MenuID, ""),
		Name:     stringOr(item.NameAtTime, DefaultItemName),
		Quantity: DefaultQuantity,
		Notes:    stringOr(item.Notes, ""),
	}
	if item.Quantity != nil && *item.Quantity != 0 {
		line.Quantity = *item.Quantity
	}
	if item.PriceAtTime != nil {
		line.Price = *item.PriceAtTime
	}
	return line
}

func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
