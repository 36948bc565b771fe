package services

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
)

const (
	recencyWeight   = 0.15
	frequencyWeight = 0.28
	monetaryWeight  = 0.57
)

type RFMOptions struct {
	// CorrectMonetaryRank normalizes the monetary rank by its own maximum.
	// When false the frequency rank is divided by the monetary maximum, which
	// is what the published dashboard has always reported.
	CorrectMonetaryRank bool
}

type customerActivity struct {
	uniqueID string
	last     time.Time
	dates    map[time.Time]struct{}
	monetary decimal.Decimal
}

// RFMView scores every customer (by customer_unique_id) that has at least one
// order with items in orders. Recency is measured against the latest order
// date in the same population. Records come out in customer_unique_id order.
func RFMView(orders []models.Order, items []models.OrderItem, customers []models.Customer, opts RFMOptions) []models.RFMRecord {
	orderTotals := make(map[string]decimal.Decimal)
	for _, it := range items {
		orderTotals[it.OrderID] = orderTotals[it.OrderID].Add(it.Price)
	}

	uniqueOf := make(map[string]string, len(customers))
	for _, c := range customers {
		uniqueOf[c.CustomerID] = c.CustomerUniqueID
	}

	activity := make(map[string]*customerActivity)
	var reference time.Time
	for _, o := range orders {
		total, ok := orderTotals[o.OrderID]
		if !ok {
			continue
		}
		uid, ok := uniqueOf[o.CustomerID]
		if !ok {
			continue
		}

		day := GranularityDay.truncate(o.PurchasedAt)
		a := activity[uid]
		if a == nil {
			a = &customerActivity{uniqueID: uid, dates: make(map[time.Time]struct{})}
			activity[uid] = a
		}
		if day.After(a.last) {
			a.last = day
		}
		a.dates[day] = struct{}{}
		a.monetary = a.monetary.Add(total)

		if day.After(reference) {
			reference = day
		}
	}

	acts := make([]*customerActivity, 0, len(activity))
	for _, a := range activity {
		acts = append(acts, a)
	}
	slices.SortFunc(acts, func(a, b *customerActivity) int {
		return cmp.Compare(a.uniqueID, b.uniqueID)
	})

	result := make([]models.RFMRecord, len(acts))
	for i, a := range acts {
		result[i] = models.RFMRecord{
			CustomerUniqueID: a.uniqueID,
			Recency:          int(reference.Sub(a.last).Hours() / 24),
			Frequency:        len(a.dates),
			Monetary:         a.monetary,
		}
	}

	// Recency ranks descending: the most recent buyer gets the highest rank.
	rRank := averageRanks(len(result), func(i, j int) int {
		return cmp.Compare(result[j].Recency, result[i].Recency)
	})
	fRank := averageRanks(len(result), func(i, j int) int {
		return cmp.Compare(result[i].Frequency, result[j].Frequency)
	})
	mRank := averageRanks(len(result), func(i, j int) int {
		return result[i].Monetary.Cmp(result[j].Monetary)
	})

	rMax, fMax, mMax := maxOf(rRank), maxOf(fRank), maxOf(mRank)
	for i := range result {
		r := &result[i]
		r.RRankNorm = rRank[i] / rMax * 100
		r.FRankNorm = fRank[i] / fMax * 100
		if opts.CorrectMonetaryRank {
			r.MRankNorm = mRank[i] / mMax * 100
		} else {
			r.MRankNorm = fRank[i] / mMax * 100
		}
		r.Score = recencyWeight*r.RRankNorm + frequencyWeight*r.FRankNorm + monetaryWeight*r.MRankNorm
	}

	return result
}

// averageRanks assigns 1-based ranks in the order defined by compare; tied
// elements share the mean of the positions they occupy.
func averageRanks(n int, compare func(i, j int) int) []float64 {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, compare)

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && compare(idx[i], idx[j]) == 0 {
			j++
		}
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = max(m, x)
	}
	return m
}
