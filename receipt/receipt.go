// Package receipt turns an order into the cashier's receipt: a structured
// value for screens and PDF, and the ESC/POS stream for thermal printers.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// Business is the identity block printed at the top of every receipt.
type Business struct {
	Name     string   `json:"name"`
	Tagline  string   `json:"tagline"`
	Address  []string `json:"address"`
	Contact  string   `json:"contact"`
	Closing  []string `json:"closing"`
	WhatsApp string   `json:"-"`
}

func DefaultBusiness() Business {
	return Business{
		Name:    "FANTASTEAK",
		Tagline: "Petualangan Rasa, Teman Bercerita",
		Address: []string{
			"Depan Gedung Pusyan Gatra Kencana,",
			"Jl. Lettu Suwolo, RT.18/RW.03, Ngrowo, Bojonegoro,",
			"Kab. Bojonegoro, Jawa Timur 62116",
		},
		Contact: "WA: 0858-5420-3343",
		Closing: []string{
			"Terima kasih telah menjadi bagian dari cerita kami hari ini.",
			"Sampai jumpa di petualangan rasa berikutnya!",
		},
		WhatsApp: "6285854203343",
	}
}

// TablePlaceholder is printed when the order has no table.
const TablePlaceholder = "-"

type Line struct {
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
	Subtotal int64  `json:"subtotal"`
	Notes    string `json:"notes,omitempty"`
}

type Receipt struct {
	Business     Business  `json:"business"`
	OrderID      string    `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	TableNumber  string    `json:"table_number"`
	OrderType    string    `json:"order_type"`
	OrderedAt    time.Time `json:"ordered_at"`
	EventDate    string    `json:"event_date,omitempty"`
	Lines        []Line    `json:"lines"`
	Total        int64     `json:"total"`
}

// Build is a pure mapping; lines keep the order's sequence.
func Build(o models.Order, b Business) Receipt {
	r := Receipt{
		Business:     b,
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		TableNumber:  o.TableNumber,
		OrderType:    o.OrderType.Label(),
		OrderedAt:    o.CreatedAt,
		EventDate:    o.EventDate,
		Lines:        make([]Line, 0, len(o.Items)),
		Total:        o.Total,
	}
	if strings.TrimSpace(r.TableNumber) == "" {
		r.TableNumber = TablePlaceholder
	}
	for _, item := range o.Items {
		r.Lines = append(r.Lines, Line{
			Quantity: item.Quantity,
			Name:     item.Name,
			Subtotal: item.Subtotal(),
			Notes:    strings.TrimSpace(item.Notes),
		})
	}
	return r
}

// ItemText is "2x WAGYU RIBEYE MB9+".
func (l Line) ItemText() string {
	return fmt.Sprintf("%dx %s", l.Quantity, strings.ToUpper(l.Name))
}

func (l Line) PriceText() string {
	return utils.FormatRupiah(l.Subtotal)
}

func (r Receipt) TotalText() string {
	return "GRAND TOTAL: " + utils.FormatRupiah(r.Total)
}

var (
	monthsShort = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}
	monthsLong  = [...]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"}
	weekdays    = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
)

// OrderedAtText is the order time as "14 Okt 2026 19.05".
func (r Receipt) OrderedAtText() string {
	if r.OrderedAt.IsZero() {
		return ""
	}
	t := r.OrderedAt
	return fmt.Sprintf("%d %s %d %02d.%02d", t.Day(), monthsShort[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// EventDateText is the pre-order date as "Minggu, 1 November 2026". An
// unparseable stored date is returned as is.
func (r Receipt) EventDateText() string {
	if r.EventDate == "" {
		return ""
	}
	t, err := models.ParseEventDate(r.EventDate)
	if err != nil {
		return r.EventDate
	}
	return fmt.Sprintf("%s, %d %s %d", weekdays[t.Weekday()], t.Day(), monthsLong[t.Month()-1], t.Year())
}
