package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
)

// SQLSource reads the six relations from tables named after the Olist files.
// The driver is registered by the caller (lib/pq in cmd).
type SQLSource struct {
	db *sql.DB
}

func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

const (
	queryOrders       = `SELECT order_id, customer_id, order_purchase_timestamp FROM orders`
	queryOrderItems   = `SELECT order_id, product_id, price FROM order_items`
	queryCustomers    = `SELECT customer_id, customer_unique_id, customer_city FROM customers`
	queryProducts     = `SELECT product_id, product_category_name FROM products`
	queryTranslations = `SELECT product_category_name, product_category_name_english FROM product_category_name_translation`
	queryPayments     = `SELECT order_id, payment_value FROM order_payments`
)

func (s *SQLSource) Load(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{}
	var err error

	if ds.Orders, err = s.orders(ctx); err != nil {
		return nil, err
	}
	if ds.OrderItems, err = s.orderItems(ctx); err != nil {
		return nil, err
	}
	if ds.Customers, err = s.customers(ctx); err != nil {
		return nil, err
	}
	if ds.Products, err = s.products(ctx); err != nil {
		return nil, err
	}
	if ds.Translations, err = s.translations(ctx); err != nil {
		return nil, err
	}
	if ds.Payments, err = s.payments(ctx); err != nil {
		return nil, err
	}

	ds.LoadedAt = time.Now()
	return ds, nil
}

// scanRows runs query and hands each row to scan, numbering rows from 1.
func (s *SQLSource) scanRows(ctx context.Context, table, query string, scan func(row int, rows *sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
		if err := scan(n, rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", table, err)
	}
	return nil
}

func requireString(table string, row int, col string, v sql.NullString) (string, error) {
	if !v.Valid || v.String == "" {
		return "", newRowError(table, row, col, ErrCodeRequiredField, "value is required", "")
	}
	return v.String, nil
}

func requireDecimal(table string, row int, col string, v decimal.NullDecimal) (decimal.Decimal, error) {
	if !v.Valid {
		return decimal.Zero, newRowError(table, row, col, ErrCodeRequiredField, "value is required", "")
	}
	return v.Decimal, nil
}

func (s *SQLSource) orders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := s.scanRows(ctx, TableOrders, queryOrders, func(row int, rows *sql.Rows) error {
		var id, customerID sql.NullString
		var ts sql.NullTime
		if err := rows.Scan(&id, &customerID, &ts); err != nil {
			return fmt.Errorf("scan %s row %d: %w", TableOrders, row, err)
		}
		o := models.Order{}
		var err error
		if o.OrderID, err = requireString(TableOrders, row, "order_id", id); err != nil {
			return err
		}
		if o.CustomerID, err = requireString(TableOrders, row, "customer_id", customerID); err != nil {
			return err
		}
		if !ts.Valid {
			return newRowError(TableOrders, row, "order_purchase_timestamp", ErrCodeRequiredField, "value is required", "")
		}
		o.PurchasedAt = ts.Time.UTC()
		out = append(out, o)
		return nil
	})
	return out, err
}

func (s *SQLSource) orderItems(ctx context.Context) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := s.scanRows(ctx, TableOrderItems, queryOrderItems, func(row int, rows *sql.Rows) error {
		var orderID, productID sql.NullString
		var price decimal.NullDecimal
		if err := rows.Scan(&orderID, &productID, &price); err != nil {
			return fmt.Errorf("scan %s row %d: %w", TableOrderItems, row, err)
		}
		it := models.OrderItem{}
		var err error
		if it.OrderID, err = requireString(TableOrderItems, row, "order_id", orderID); err != nil {
			return err
		}
		if it.ProductID, err = requireString(TableOrderItems, row, "product_id", productID); err != nil {
			return err
		}
		if it.Price, err = requireDecimal(TableOrderItems, row, "price", price); err != nil {
			return err
		}
		out = append(out, it)
		return nil
	})
	return out, err
}

func (s *SQLSource) customers(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	err := s.scanRows(ctx, TableCustomers, queryCustomers, func(row int, rows *sql.Rows) error {
		var id, uniqueID, city sql.NullString
		if err := rows.Scan(&id, &uniqueID, &city); err != nil {
			return fmt.Errorf("scan %s row %d: %w", TableCustomers, row, err)
		}
		c := models.Customer{}
		var err error
		if c.CustomerID, err = requireString(TableCustomers, row, "customer_id", id); err != nil {
			return err
		}
		if c.CustomerUniqueID, err = requireString(TableCustomers, row, "customer_unique_id", uniqueID); err != nil {
			return err
		}
		if c.City, err = requireString(TableCustomers, row, "customer_city", city); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func (s *SQLSource) products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := s.scanRows(ctx, TableProducts, queryProducts, func(row int, rows *sql.Rows) error {
		var id, category sql.NullString
		if err := rows.Scan(&id, &category); err != nil {
			return fmt.Errorf("scan %s row %d: %w", TableProducts, row, err)
		}
		productID, err := requireString(TableProducts, row, "product_id", id)
		if err != nil {
			return err
		}
		out = append(out, models.Product{ProductID: productID, CategoryName: category.String})
		return nil
	})
	return out, err
}

func (s *SQLSource) translations(ctx context.Context) ([]models.CategoryTranslation, error) {
	var out []models.CategoryTranslation
	err := s.scanRows(ctx, TableTranslations, queryTranslations, func(row int, rows *sql.Rows) error {
		var name, english sql.NullString
		if err := rows.Scan(&name, &english); err != nil {
			return fmt.Errorf("scan %s row %d: %w", TableTranslations, row, err)
		}
		category, err := requireString(TableTranslations, row, "product_category_name", name)
		if err != nil {
			return err
		}
		out = append(out, models.CategoryTranslation{CategoryName: category, CategoryNameEnglish: english.String})
		return nil
	})
	return out, err
}

func (s *SQLSource) payments(ctx context.Context) ([]models.Payment, error) {
	var out []models.Payment
	err := s.scanRows(ctx, TablePayments, queryPayments, func(row int, rows *sql.Rows) error {
		var orderID sql.NullString
		var value decimal.NullDecimal
		if err := rows.Scan(&orderID, &value); err != nil {
			return fmt.Errorf("scan %s row %d: %w", TablePayments, row, err)
		}
		p := models.Payment{}
		var err error
		if p.OrderID, err = requireString(TablePayments, row, "order_id", orderID); err != nil {
			return err
		}
		if p.Value, err = requireDecimal(TablePayments, row, "payment_value", value); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}
