package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"olist-dashboard/internal/models"
)

const (
	TableOrders       = "orders"
	TableOrderItems   = "order_items"
	TableCustomers    = "customers"
	TableProducts     = "products"
	TableTranslations = "product_category_name_translation"
	TablePayments     = "order_payments"
)

// Files names the CSV file of each relation inside the data directory.
type Files struct {
	Orders       string
	OrderItems   string
	Customers    string
	Products     string
	Translations string
	Payments     string
}

func DefaultFiles() Files {
	return Files{
		Orders:       "orders_dataset.csv",
		OrderItems:   "order_items_dataset.csv",
		Customers:    "customers_dataset.csv",
		Products:     "products_dataset.csv",
		Translations: "product_category_name_translation.csv",
		Payments:     "order_payments_dataset.csv",
	}
}

func (f Files) paths(dir string) []string {
	return []string{
		filepath.Join(dir, f.Orders),
		filepath.Join(dir, f.OrderItems),
		filepath.Join(dir, f.Customers),
		filepath.Join(dir, f.Products),
		filepath.Join(dir, f.Translations),
		filepath.Join(dir, f.Payments),
	}
}

// CSVSource loads the Olist CSV export from a directory.
type CSVSource struct {
	Dir   string
	Files Files
}

func NewCSVSource(dir string, files Files) *CSVSource {
	return &CSVSource{Dir: dir, Files: files}
}

func (s *CSVSource) Load(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{}

	steps := []struct {
		file string
		read func(io.Reader) error
	}{
		{s.Files.Orders, func(r io.Reader) (err error) { ds.Orders, err = ReadOrders(r); return }},
		{s.Files.OrderItems, func(r io.Reader) (err error) { ds.OrderItems, err = ReadOrderItems(r); return }},
		{s.Files.Customers, func(r io.Reader) (err error) { ds.Customers, err = ReadCustomers(r); return }},
		{s.Files.Products, func(r io.Reader) (err error) { ds.Products, err = ReadProducts(r); return }},
		{s.Files.Translations, func(r io.Reader) (err error) { ds.Translations, err = ReadTranslations(r); return }},
		{s.Files.Payments, func(r io.Reader) (err error) { ds.Payments, err = ReadPayments(r); return }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := readFile(filepath.Join(s.Dir, step.file), step.read); err != nil {
			return nil, err
		}
	}

	ds.LoadedAt = time.Now()
	return ds, nil
}

// ModTime returns the newest modification time among the source files.
func (s *CSVSource) ModTime() (time.Time, error) {
	var newest time.Time
	for _, p := range s.Files.paths(s.Dir) {
		info, err := os.Stat(p)
		if err != nil {
			return time.Time{}, err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest, nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := read(f); err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return nil
}

// eachRecord feeds every data row of a table to fn.
func eachRecord(table string, r io.Reader, required []string, fn func(*record) error) error {
	tr, err := newTableReader(table, r, required...)
	if err != nil {
		return err
	}
	for {
		rec, err := tr.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func ReadOrders(r io.Reader) ([]models.Order, error) {
	var out []models.Order
	seen := make(map[string]struct{})

	err := eachRecord(TableOrders, r, []string{"order_id", "customer_id", "order_purchase_timestamp"}, func(rec *record) error {
		id, err := rec.required("order_id")
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return rec.duplicate("order_id", id)
		}
		seen[id] = struct{}{}

		customerID, err := rec.required("customer_id")
		if err != nil {
			return err
		}
		ts, err := rec.timestamp("order_purchase_timestamp")
		if err != nil {
			return err
		}

		out = append(out, models.Order{OrderID: id, CustomerID: customerID, PurchasedAt: ts})
		return nil
	})
	return out, err
}

func ReadOrderItems(r io.Reader) ([]models.OrderItem, error) {
	var out []models.OrderItem

	err := eachRecord(TableOrderItems, r, []string{"order_id", "product_id", "price"}, func(rec *record) error {
		orderID, err := rec.required("order_id")
		if err != nil {
			return err
		}
		productID, err := rec.required("product_id")
		if err != nil {
			return err
		}
		price, err := rec.decimal("price")
		if err != nil {
			return err
		}

		out = append(out, models.OrderItem{OrderID: orderID, ProductID: productID, Price: price})
		return nil
	})
	return out, err
}

func ReadCustomers(r io.Reader) ([]models.Customer, error) {
	var out []models.Customer
	seen := make(map[string]struct{})

	err := eachRecord(TableCustomers, r, []string{"customer_id", "customer_unique_id", "customer_city"}, func(rec *record) error {
		id, err := rec.required("customer_id")
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return rec.duplicate("customer_id", id)
		}
		seen[id] = struct{}{}

		uniqueID, err := rec.required("customer_unique_id")
		if err != nil {
			return err
		}
		city, err := rec.required("customer_city")
		if err != nil {
			return err
		}

		out = append(out, models.Customer{CustomerID: id, CustomerUniqueID: uniqueID, City: city})
		return nil
	})
	return out, err
}

func ReadProducts(r io.Reader) ([]models.Product, error) {
	var out []models.Product
	seen := make(map[string]struct{})

	err := eachRecord(TableProducts, r, []string{"product_id", "product_category_name"}, func(rec *record) error {
		id, err := rec.required("product_id")
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return rec.duplicate("product_id", id)
		}
		seen[id] = struct{}{}

		out = append(out, models.Product{ProductID: id, CategoryName: rec.get("product_category_name")})
		return nil
	})
	return out, err
}

func ReadTranslations(r io.Reader) ([]models.CategoryTranslation, error) {
	var out []models.CategoryTranslation
	seen := make(map[string]struct{})

	err := eachRecord(TableTranslations, r, []string{"product_category_name", "product_category_name_english"}, func(rec *record) error {
		name, err := rec.required("product_category_name")
		if err != nil {
			return err
		}
		if _, dup := seen[name]; dup {
			return rec.duplicate("product_category_name", name)
		}
		seen[name] = struct{}{}

		out = append(out, models.CategoryTranslation{
			CategoryName:        name,
			CategoryNameEnglish: rec.get("product_category_name_english"),
		})
		return nil
	})
	return out, err
}

func ReadPayments(r io.Reader) ([]models.Payment, error) {
	var out []models.Payment

	err := eachRecord(TablePayments, r, []string{"order_id", "payment_value"}, func(rec *record) error {
		orderID, err := rec.required("order_id")
		if err != nil {
			return err
		}
		value, err := rec.decimal("payment_value")
		if err != nil {
			return err
		}

		out = append(out, models.Payment{OrderID: orderID, Value: value})
		return nil
	})
	return out, err
}
