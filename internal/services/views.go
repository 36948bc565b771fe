package services

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
)

const monthYearLayout = "January 2006"

func indexOrders(orders []models.Order) map[string]models.Order {
	idx := make(map[string]models.Order, len(orders))
	for _, o := range orders {
		idx[o.OrderID] = o
	}
	return idx
}

func indexProducts(products []models.Product) map[string]models.Product {
	idx := make(map[string]models.Product, len(products))
	for _, p := range products {
		idx[p.ProductID] = p
	}
	return idx
}

// MonthlyRevenueView sums item prices per purchase month, oldest month first.
// Months without orders are omitted.
func MonthlyRevenueView(orders []models.Order, items []models.OrderItem) []models.MonthlyRevenue {
	byID := indexOrders(orders)
	groups := make(map[time.Time]decimal.Decimal)

	for _, it := range items {
		o, ok := byID[it.OrderID]
		if !ok {
			continue
		}
		month := GranularityMonth.truncate(o.PurchasedAt)
		groups[month] = groups[month].Add(it.Price)
	}

	result := make([]models.MonthlyRevenue, 0, len(groups))
	for month, revenue := range groups {
		result = append(result, models.MonthlyRevenue{
			MonthYear: month.Format(monthYearLayout),
			Month:     month,
			Revenue:   revenue,
		})
	}
	slices.SortFunc(result, func(a, b models.MonthlyRevenue) int {
		return a.Month.Compare(b.Month)
	})
	return result
}

// ProductOrderCountView counts order lines per product, highest count first.
// Equal counts keep ascending product id order.
func ProductOrderCountView(orders []models.Order, items []models.OrderItem, products []models.Product) []models.ProductOrderCount {
	byID := indexOrders(orders)
	known := indexProducts(products)
	counts := make(map[string]int)

	for _, it := range items {
		if _, ok := byID[it.OrderID]; !ok {
			continue
		}
		if _, ok := known[it.ProductID]; !ok {
			continue
		}
		counts[it.ProductID]++
	}

	result := make([]models.ProductOrderCount, 0, len(counts))
	for id, n := range counts {
		result = append(result, models.ProductOrderCount{ProductID: id, OrderCount: n})
	}
	slices.SortFunc(result, func(a, b models.ProductOrderCount) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	slices.SortStableFunc(result, func(a, b models.ProductOrderCount) int {
		return cmp.Compare(b.OrderCount, a.OrderCount)
	})
	return result
}

// CitySpendingView sums every payment row per customer city. Rows come out in
// city order; ranking is left to the caller.
func CitySpendingView(orders []models.Order, customers []models.Customer, payments []models.Payment) []models.CitySpending {
	byID := indexOrders(orders)
	cityOf := make(map[string]string, len(customers))
	for _, c := range customers {
		cityOf[c.CustomerID] = c.City
	}

	groups := make(map[string]decimal.Decimal)
	for _, p := range payments {
		o, ok := byID[p.OrderID]
		if !ok {
			continue
		}
		city, ok := cityOf[o.CustomerID]
		if !ok {
			continue
		}
		groups[city] = groups[city].Add(p.Value)
	}

	result := make([]models.CitySpending, 0, len(groups))
	for city, amount := range groups {
		result = append(result, models.CitySpending{City: city, AmountSpent: amount})
	}
	slices.SortFunc(result, func(a, b models.CitySpending) int {
		return cmp.Compare(a.City, b.City)
	})
	return result
}

// CategoryRevenueView sums item prices per normalized category, in category
// order. products must already be normalized.
func CategoryRevenueView(orders []models.Order, items []models.OrderItem, products []models.Product) []models.CategoryRevenue {
	byID := indexOrders(orders)
	known := indexProducts(products)
	groups := make(map[string]decimal.Decimal)

	for _, it := range items {
		if _, ok := byID[it.OrderID]; !ok {
			continue
		}
		p, ok := known[it.ProductID]
		if !ok {
			continue
		}
		groups[p.CategoryName] = groups[p.CategoryName].Add(it.Price)
	}

	result := make([]models.CategoryRevenue, 0, len(groups))
	for category, revenue := range groups {
		result = append(result, models.CategoryRevenue{Category: category, Revenue: revenue})
	}
	slices.SortFunc(result, func(a, b models.CategoryRevenue) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return result
}
