package services

import (
	"fmt"
	"strings"
	"time"

	"olist-dashboard/internal/models"
)

// Granularity decides how a purchase timestamp is reduced before it is
// compared against the date range.
type Granularity int

const (
	// GranularityMonth reduces a timestamp to the first day of its month, so a
	// range that starts mid-month drops that month's orders and a range that
	// ends mid-month keeps all of them.
	GranularityMonth Granularity = iota
	GranularityDay
)

func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(s) {
	case "month", "":
		return GranularityMonth, nil
	case "day":
		return GranularityDay, nil
	default:
		return 0, fmt.Errorf("unknown filter granularity %q", s)
	}
}

func (g Granularity) String() string {
	if g == GranularityDay {
		return "day"
	}
	return "month"
}

func (g Granularity) truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	if g == GranularityMonth {
		d = 1
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterOrders keeps the orders whose reduced purchase date lies in r, both
// bounds inclusive. An inverted range yields no orders.
func FilterOrders(orders []models.Order, r models.DateRange, g Granularity) []models.Order {
	start, end := GranularityDay.truncate(r.Start), GranularityDay.truncate(r.End)

	out := make([]models.Order, 0, len(orders))
	if end.Before(start) {
		return out
	}
	for _, o := range orders {
		key := g.truncate(o.PurchasedAt)
		if key.Before(start) || key.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}
