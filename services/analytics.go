package services

import (
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/yeremiapane/fantasteak-pos/models"
)

const recentPaidLimit = 15

var shortWeekdays = [...]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

type DailyRevenue struct {
	Date    string `json:"date"`
	Label   string `json:"label"`
	Revenue int64  `json:"revenue"`
	Orders  int    `json:"orders"`
}

// SalesStats is the admin dashboard summary. Only PAID orders count.
type SalesStats struct {
	TotalRevenue int64          `json:"total_revenue"`
	PaidOrders   int            `json:"paid_orders"`
	TodayRevenue int64          `json:"today_revenue"`
	TodayOrders  int            `json:"today_orders"`
	LastSevenDay []DailyRevenue `json:"last_seven_days"`
	RecentPaid   []models.Order `json:"recent_paid"`
}

// ComputeSalesStats summarizes orders as of now. Days are calendar days in
// now's location, oldest first, ending today.
func ComputeSalesStats(orders []models.Order, now time.Time) SalesStats {
	loc := now.Location()
	today := dayKey(now)

	days := make([]DailyRevenue, 7)
	index := make(map[string]int, 7)
	for i := range days {
		d := now.AddDate(0, 0, i-6)
		key := dayKey(d)
		days[i] = DailyRevenue{Date: key, Label: shortWeekdays[d.Weekday()]}
		index[key] = i
	}

	stats := SalesStats{LastSevenDay: days, RecentPaid: []models.Order{}}
	for _, o := range orders {
		if o.Status != models.StatusPaid {
			continue
		}
		stats.PaidOrders++
		stats.TotalRevenue += o.Total
		if len(stats.RecentPaid) < recentPaidLimit {
			stats.RecentPaid = append(stats.RecentPaid, o)
		}

		key := dayKey(o.CreatedAt.In(loc))
		if key == today {
			stats.TodayRevenue += o.Total
			stats.TodayOrders++
		}
		if i, ok := index[key]; ok {
			days[i].Revenue += o.Total
			days[i].Orders++
		}
	}
	return stats
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// RenderRevenueChart writes the seven day series as a PNG bar chart.
func RenderRevenueChart(w io.Writer, days []DailyRevenue) error {
	if len(days) == 0 {
		return errors.New("no days to chart")
	}

	var peak float64 = 1
	bars := make([]chart.Value, 0, len(days))
	for _, d := range days {
		v := float64(d.Revenue)
		if v > peak {
			peak = v
		}
		bars = append(bars, chart.Value{
			Label: d.Label,
			Value: v,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("f59e0b"),
				StrokeColor: drawing.ColorFromHex("b45309"),
				StrokeWidth: 1,
			},
		})
	}

	graph := chart.BarChart{
		Title:    "Performa 7 Hari Terakhir",
		Width:    720,
		Height:   360,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: peak * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return formatShortRupiah(f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.Wrap(err, "render revenue chart")
	}
	return nil
}

// formatShortRupiah prints axis ticks in thousands ("450k").
func formatShortRupiah(v float64) string {
	k := int64(v / 1000)
	if k == 0 {
		return "0"
	}
	return fmt.Sprintf("%dk", k)
}
