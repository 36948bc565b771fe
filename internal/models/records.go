package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	PurchasedAt time.Time `json:"order_purchase_timestamp"`
}

type OrderItem struct {
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
}

type Customer struct {
	CustomerID       string `json:"customer_id"`
	CustomerUniqueID string `json:"customer_unique_id"`
	City             string `json:"customer_city"`
}

// Product.CategoryName is empty when the source row has no category.
type Product struct {
	ProductID    string `json:"product_id"`
	CategoryName string `json:"product_category_name"`
}

type CategoryTranslation struct {
	CategoryName        string `json:"product_category_name"`
	CategoryNameEnglish string `json:"product_category_name_english"`
}

type Payment struct {
	OrderID string          `json:"order_id"`
	Value   decimal.Decimal `json:"payment_value"`
}
