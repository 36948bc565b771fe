package services

import (
	"cmp"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
)

// Summarize computes the headline metrics shown above the charts.
func Summarize(filtered []models.Order, monthly []models.MonthlyRevenue, rfm []models.RFMRecord) models.Summary {
	s := models.Summary{TotalOrders: len(filtered), TotalRevenue: decimal.Zero, AvgMonetary: decimal.Zero}

	for _, m := range monthly {
		s.TotalRevenue = s.TotalRevenue.Add(m.Revenue)
	}

	if len(rfm) == 0 {
		return s
	}

	var recency, frequency float64
	monetary := decimal.Zero
	for _, r := range rfm {
		recency += float64(r.Recency)
		frequency += float64(r.Frequency)
		monetary = monetary.Add(r.Monetary)
	}
	n := float64(len(rfm))
	s.AvgRecency = roundTo(recency/n, 1)
	s.AvgFrequency = roundTo(frequency/n, 2)
	s.AvgMonetary = monetary.Div(decimal.NewFromInt(int64(len(rfm)))).Round(2)
	return s
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func head[T any](xs []T, n int) []T {
	if n < 0 || len(xs) <= n {
		return slices.Clone(xs)
	}
	return slices.Clone(xs[:n])
}

func tail[T any](xs []T, n int) []T {
	if n < 0 || len(xs) <= n {
		return slices.Clone(xs)
	}
	return slices.Clone(xs[len(xs)-n:])
}

// TopProducts returns the n best sellers of an already ranked view.
func TopProducts(counts []models.ProductOrderCount, n int) []models.ProductOrderCount {
	return head(counts, n)
}

// BottomProducts returns the last n rows of an already ranked view.
func BottomProducts(counts []models.ProductOrderCount, n int) []models.ProductOrderCount {
	return tail(counts, n)
}

func TopCities(rows []models.CitySpending, n int) []models.CitySpending {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b models.CitySpending) int {
		return b.AmountSpent.Cmp(a.AmountSpent)
	})
	return head(sorted, n)
}

func TopCategories(rows []models.CategoryRevenue, n int) []models.CategoryRevenue {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b models.CategoryRevenue) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	return head(sorted, n)
}

// TopByRecency returns the n customers with the most recent purchase.
func TopByRecency(rfm []models.RFMRecord, n int) []models.RFMRecord {
	sorted := slices.Clone(rfm)
	slices.SortStableFunc(sorted, func(a, b models.RFMRecord) int {
		return cmp.Compare(a.Recency, b.Recency)
	})
	return head(sorted, n)
}

func TopByFrequency(rfm []models.RFMRecord, n int) []models.RFMRecord {
	sorted := slices.Clone(rfm)
	slices.SortStableFunc(sorted, func(a, b models.RFMRecord) int {
		return cmp.Compare(b.Frequency, a.Frequency)
	})
	return head(sorted, n)
}

func TopByMonetary(rfm []models.RFMRecord, n int) []models.RFMRecord {
	sorted := slices.Clone(rfm)
	slices.SortStableFunc(sorted, func(a, b models.RFMRecord) int {
		return b.Monetary.Cmp(a.Monetary)
	})
	return head(sorted, n)
}

func Performance(counts []models.ProductOrderCount, n int) models.ProductPerformance {
	return models.ProductPerformance{
		Best:  TopProducts(counts, n),
		Worst: BottomProducts(counts, n),
	}
}

func Segments(views *models.Views, n int) models.RFMSegments {
	return models.RFMSegments{
		Summary:     views.Summary,
		ByRecency:   TopByRecency(views.RFM, n),
		ByFrequency: TopByFrequency(views.RFM, n),
		ByMonetary:  TopByMonetary(views.RFM, n),
	}
}
