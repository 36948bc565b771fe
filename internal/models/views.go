package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// DateRange is a pair of calendar dates, both inclusive.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

type MonthlyRevenue struct {
	MonthYear string          `json:"month_year"`
	Month     time.Time       `json:"-"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type ProductOrderCount struct {
	ProductID  string `json:"product_id"`
	OrderCount int    `json:"order_count"`
}

type CitySpending struct {
	City        string          `json:"customer_city"`
	AmountSpent decimal.Decimal `json:"amount_spent"`
}

type CategoryRevenue struct {
	Category string          `json:"product_category_name"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type RFMRecord struct {
	CustomerUniqueID string          `json:"customer_unique_id"`
	Recency          int             `json:"recency"`
	Frequency        int             `json:"frequency"`
	Monetary         decimal.Decimal `json:"monetary"`
	RRankNorm        float64         `json:"r_rank_norm"`
	FRankNorm        float64         `json:"f_rank_norm"`
	MRankNorm        float64         `json:"m_rank_norm"`
	Score            float64         `json:"rfm_score"`
}

type Summary struct {
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	AvgRecency   float64         `json:"avg_recency"`
	AvgFrequency float64         `json:"avg_frequency"`
	AvgMonetary  decimal.Decimal `json:"avg_monetary"`
}

// Views is everything the dashboard renders for one date range.
type Views struct {
	Range           DateRange           `json:"range"`
	Summary         Summary             `json:"summary"`
	MonthlyRevenue  []MonthlyRevenue    `json:"monthly_revenue"`
	ProductCounts   []ProductOrderCount `json:"product_order_count"`
	CitySpending    []CitySpending      `json:"city_spending"`
	CategoryRevenue []CategoryRevenue   `json:"category_revenue"`
	RFM             []RFMRecord         `json:"rfm"`
}

// ProductPerformance is the best and worst sellers of a ProductOrderCount view.
type ProductPerformance struct {
	Best  []ProductOrderCount `json:"best"`
	Worst []ProductOrderCount `json:"worst"`
}

// RFMSegments lists the top customers by each RFM metric.
type RFMSegments struct {
	Summary     Summary     `json:"summary"`
	ByRecency   []RFMRecord `json:"by_recency"`
	ByFrequency []RFMRecord `json:"by_frequency"`
	ByMonetary  []RFMRecord `json:"by_monetary"`
}
