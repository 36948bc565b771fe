package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectAllTables(mock sqlmock.Sqlmock, ts time.Time, category any) {
	mock.ExpectQuery(regexp.QuoteMeta(queryOrders)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "customer_id", "order_purchase_timestamp"}).
			AddRow("o1", "c1", ts))
	mock.ExpectQuery(regexp.QuoteMeta(queryOrderItems)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "price"}).
			AddRow("o1", "p1", "50.00"))
	mock.ExpectQuery(regexp.QuoteMeta(queryCustomers)).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "customer_unique_id", "customer_city"}).
			AddRow("c1", "u1", "CityA"))
	mock.ExpectQuery(regexp.QuoteMeta(queryProducts)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_category_name"}).
			AddRow("p1", category))
	mock.ExpectQuery(regexp.QuoteMeta(queryTranslations)).
		WillReturnRows(sqlmock.NewRows([]string{"product_category_name", "product_category_name_english"}).
			AddRow("perfumaria", "perfumery"))
	mock.ExpectQuery(regexp.QuoteMeta(queryPayments)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "payment_value"}).
			AddRow("o1", "50.00"))
}

func TestSQLSource_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2023, 1, 5, 12, 0, 0, 0, time.UTC)
	expectAllTables(mock, ts, nil)

	ds, err := NewSQLSource(db).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Orders, 1)
	assert.Equal(t, ts, ds.Orders[0].PurchasedAt)
	require.Len(t, ds.OrderItems, 1)
	assert.Equal(t, "50", ds.OrderItems[0].Price.String())
	require.Len(t, ds.Products, 1)
	assert.Equal(t, "", ds.Products[0].CategoryName, "NULL category is absent")
	assert.Equal(t, "CityA", ds.Customers[0].City)
	assert.Equal(t, "perfumery", ds.Translations[0].CategoryNameEnglish)
	require.Len(t, ds.Payments, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_NullRequiredField(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryOrders)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "customer_id", "order_purchase_timestamp"}).
			AddRow("o1", nil, time.Now()))

	_, err = NewSQLSource(db).Load(context.Background())

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "customer_id", rowErr.Column)
	assert.Equal(t, ErrCodeRequiredField, rowErr.Code)
}

func TestSQLSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryOrders)).WillReturnError(assert.AnError)

	_, err = NewSQLSource(db).Load(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}
