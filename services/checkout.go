package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// NewOrder is what the customer screen submits at checkout.
type NewOrder struct {
	Items         []models.OrderLine   `json:"items"`
	CustomerName  string               `json:"customer_name"`
	OrderType     models.OrderType     `json:"order_type"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	TableNumber   string               `json:"table_number,omitempty"`
	EventDate     string               `json:"event_date,omitempty"`
}

// ValidationError blocks a checkout. Message is shown to the customer as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateCheckout runs before anything is written to the store.
func ValidateCheckout(req NewOrder) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Message: "Nama wajib diisi!"}
	}
	if !req.OrderType.Valid() {
		return &ValidationError{Field: "order_type", Message: "Tipe pesanan tidak dikenal"}
	}
	if req.OrderType == models.OrderTypePreOrder {
		if strings.TrimSpace(req.EventDate) == "" {
			return &ValidationError{Field: "event_date", Message: "Harap tentukan tanggal untuk Pre-Order!"}
		}
		if _, err := models.ParseEventDate(req.EventDate); err != nil {
			return &ValidationError{Field: "event_date", Message: "Tanggal Pre-Order tidak valid"}
		}
	}
	if !req.PaymentMethod.Valid() {
		return &ValidationError{Field: "payment_method", Message: "Metode pembayaran tidak dikenal"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Message: "Keranjang masih kosong"}
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("Jumlah %s tidak valid", item.Name)}
		}
		if item.Price <= 0 {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("Harga %s tidak valid", item.Name)}
		}
	}
	return nil
}

// QRISConfirmationLink builds the wa.me link a QRIS customer uses to send the
// payment screenshot to the restaurant.
func QRISConfirmationLink(phone string, o models.Order) string {
	var b strings.Builder
	b.WriteString("*KONFIRMASI PEMBAYARAN QRIS*\n")
	b.WriteString("------------------------------------------\n")
	fmt.Fprintf(&b, "Halo Admin, saya *%s*.\n", o.CustomerName)
	b.WriteString("Saya ingin mengonfirmasi pembayaran pesanan saya melalui QRIS.\n\n")
	b.WriteString("*Detail Pesanan:*\n")
	fmt.Fprintf(&b, "- No. Pesanan: *%s*\n", o.ID)
	fmt.Fprintf(&b, "- Total Bayar: *%s*\n", utils.FormatRupiah(o.Total))
	fmt.Fprintf(&b, "- Tipe Pesanan: *%s*\n", o.OrderType.Label())
	if o.TableNumber != "" {
		fmt.Fprintf(&b, "- Nomor Meja: *%s*\n", o.TableNumber)
	}
	if o.EventDate != "" {
		date := o.EventDate
		if t, err := models.ParseEventDate(o.EventDate); err == nil {
			date = t.Format("2/1/2006")
		}
		fmt.Fprintf(&b, "- Tanggal Acara: *%s*\n", date)
	}
	b.WriteString("\n*Berikut saya lampirkan bukti pembayarannya di bawah ini:*\n")
	b.WriteString("------------------------------------------")

	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(b.String())
}
