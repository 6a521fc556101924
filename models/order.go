package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "DINE_IN"
	OrderTypeTakeaway OrderType = "TAKEAWAY"
	OrderTypePreOrder OrderType = "PRE_ORDER"
)

// Label returns the type the way screens and receipts print it ("DINE IN").
func (t OrderType) Label() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypePreOrder:
		return true
	}
	return false
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentQRIS PaymentMethod = "QRIS"
	PaymentCash PaymentMethod = "CASH"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentQRIS || p == PaymentCash
}

// ErrEmptyItems is returned when a total is requested for an order without lines.
var ErrEmptyItems = errors.New("order has no items")

// OrderLine is a cart line snapshotted into an order. Name and Price are copied
// from the menu at checkout so later catalog edits never touch old orders.
type OrderLine struct {
	MenuID   string `json:"menu_id"`
	Name     string `json:"name_at_time"`
	Price    int64  `json:"price_at_time"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// Subtotal is price_at_time × quantity.
func (l OrderLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Order is the aggregate every screen works with: the order row plus its lines.
type Order struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customer_name"`
	OrderType     OrderType     `json:"order_type"`
	TableNumber   string        `json:"table_number,omitempty"`
	EventDate     string        `json:"event_date,omitempty"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Total         int64         `json:"total"`
	Items         []OrderLine   `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ComputeTotal sums price_at_time × quantity over lines. An empty line set has
// no total.
func ComputeTotal(items []OrderLine) (int64, error) {
	if len(items) == 0 {
		return 0, ErrEmptyItems
	}
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total, nil
}

// IsValid reports whether the order has a customer name, at least one line,
// and an event date exactly when it is a pre-order.
func IsValid(o Order) bool {
	if strings.TrimSpace(o.CustomerName) == "" || len(o.Items) == 0 {
		return false
	}
	hasDate := strings.TrimSpace(o.EventDate) != ""
	return hasDate == (o.OrderType == OrderTypePreOrder)
}

// TotalMatches reports whether the stored total agrees with the lines.
func (o Order) TotalMatches() bool {
	total, err := ComputeTotal(o.Items)
	if err != nil {
		return false
	}
	return total == o.Total
}

var eventDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseEventDate accepts the formats the checkout form and the store produce.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized event date %q", s)
}
