package store

import (
	"context"
	"time"

	"olist-dashboard/internal/models"
)

// Dataset is the six relations loaded once at startup. It is read-only after
// construction and shared by pointer.
type Dataset struct {
	Orders       []models.Order
	OrderItems   []models.OrderItem
	Customers    []models.Customer
	Products     []models.Product
	Translations []models.CategoryTranslation
	Payments     []models.Payment
	LoadedAt     time.Time
}

// Loader produces a Dataset from some source.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// Bounds returns the calendar dates of the earliest and latest purchase.
func (d *Dataset) Bounds() models.DateRange {
	if d == nil || len(d.Orders) == 0 {
		return models.DateRange{}
	}

	lo, hi := d.Orders[0].PurchasedAt, d.Orders[0].PurchasedAt
	for _, o := range d.Orders[1:] {
		if o.PurchasedAt.Before(lo) {
			lo = o.PurchasedAt
		}
		if o.PurchasedAt.After(hi) {
			hi = o.PurchasedAt
		}
	}
	return models.DateRange{Start: truncateDay(lo), End: truncateDay(hi)}
}

func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		"orders":       len(d.Orders),
		"order_items":  len(d.OrderItems),
		"customers":    len(d.Customers),
		"products":     len(d.Products),
		"translations": len(d.Translations),
		"payments":     len(d.Payments),
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
