package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTestDataset() *store.Dataset {
	return &store.Dataset{
		Orders: []models.Order{
			{OrderID: "O1", CustomerID: "C1", PurchasedAt: time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC)},
			{OrderID: "O2", CustomerID: "C2", PurchasedAt: time.Date(2023, 2, 10, 14, 0, 0, 0, time.UTC)},
			{OrderID: "O3", CustomerID: "C3", PurchasedAt: time.Date(2023, 3, 5, 18, 45, 0, 0, time.UTC)},
		},
		OrderItems: []models.OrderItem{
			{OrderID: "O1", ProductID: "P1", Price: price("100")},
			{OrderID: "O2", ProductID: "P2", Price: price("30")},
			{OrderID: "O2", ProductID: "P2", Price: price("30")},
			{OrderID: "O3", ProductID: "P1", Price: price("80")},
		},
		Customers: []models.Customer{
			{CustomerID: "C1", CustomerUniqueID: "U1", City: "sao paulo"},
			{CustomerID: "C2", CustomerUniqueID: "U2", City: "rio de janeiro"},
			{CustomerID: "C3", CustomerUniqueID: "U3", City: "curitiba"},
		},
		Products: []models.Product{
			{ProductID: "P1", CategoryName: "beleza_saude"},
			{ProductID: "P2", CategoryName: "informatica_acessorios"},
		},
		Translations: []models.CategoryTranslation{
			{CategoryName: "beleza_saude", CategoryNameEnglish: "health_beauty"},
		},
		Payments: []models.Payment{
			{OrderID: "O1", Value: price("100")},
			{OrderID: "O2", Value: price("60")},
			{OrderID: "O3", Value: price("80")},
		},
	}
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(services.WithLogger(testLogger()))
	a.SetData(createTestDataset())
	return a
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest[T any](t *testing.T, handler http.HandlerFunc, target string) (*httptest.ResponseRecorder, envelope[T]) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	handler(w, req)

	var body envelope[T]
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response from %s: %v", target, err)
	}
	return w, body
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()
	handlers := NewAPIHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
	if handlers.logger != logger {
		t.Error("NewAPIHandlers() should set logger field")
	}
}

func TestAPIHandlers_HandleMonthlyRevenue(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w, body := doRequest[[]models.MonthlyRevenue](t, handlers.HandleMonthlyRevenue, "/api/monthly-revenue")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Header().Get("Cache-Control") != cacheControl {
		t.Errorf("expected Cache-Control %q, got %q", cacheControl, w.Header().Get("Cache-Control"))
	}
	if !body.Success {
		t.Error("expected success=true")
	}

	want := []struct {
		month   string
		revenue string
	}{
		{"January 2023", "100"},
		{"February 2023", "60"},
		{"March 2023", "80"},
	}
	if len(body.Data) != len(want) {
		t.Fatalf("expected %d months, got %d", len(want), len(body.Data))
	}
	for i, w := range want {
		if body.Data[i].MonthYear != w.month || !body.Data[i].Revenue.Equal(price(w.revenue)) {
			t.Errorf("month %d = %s %s, want %s %s", i, body.Data[i].MonthYear, body.Data[i].Revenue, w.month, w.revenue)
		}
	}
}

func TestAPIHandlers_DateRange(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name        string
		query       string
		wantOrders  int
		wantRevenue string
	}{
		{"defaults to dataset bounds", "", 3, "240"},
		{"single month", "?start=2023-02-01&end=2023-02-28", 1, "60"},
		{"open end", "?start=2023-02-01", 2, "140"},
		{"open start", "?end=2023-01-31", 1, "100"},
		{"mid-month start excludes that month", "?start=2023-02-20&end=2023-03-31", 1, "80"},
		{"inverted range", "?start=2023-03-01&end=2023-01-01", 0, "0"},
		{"outside data", "?start=2020-01-01&end=2020-12-31", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doRequest[models.Summary](t, handlers.HandleSummary, "/api/summary"+tt.query)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if body.Data.TotalOrders != tt.wantOrders {
				t.Errorf("TotalOrders = %d, want %d", body.Data.TotalOrders, tt.wantOrders)
			}
			if !body.Data.TotalRevenue.Equal(price(tt.wantRevenue)) {
				t.Errorf("TotalRevenue = %s, want %s", body.Data.TotalRevenue, tt.wantRevenue)
			}
		})
	}
}

func TestAPIHandlers_BadRequest(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
	}{
		{"malformed start", handlers.HandleSummary, "/api/summary?start=01/02/2023"},
		{"malformed end", handlers.HandleViews, "/api/views?end=2023-13-01"},
		{"limit not a number", handlers.HandleCitySpending, "/api/city-spending?limit=ten"},
		{"limit too large", handlers.HandleRFM, "/api/rfm?limit=1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doRequest[any](t, tt.handler, tt.target)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			if body.Success {
				t.Error("expected success=false")
			}
			if body.Error.Code != "BAD_REQUEST" {
				t.Errorf("expected BAD_REQUEST, got %q", body.Error.Code)
			}
		})
	}
}

func TestAPIHandlers_HandleProductPerformance(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w, body := doRequest[models.ProductPerformance](t, handlers.HandleProductPerformance, "/api/product-performance?limit=1")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if len(body.Data.Best) != 1 || body.Data.Best[0].ProductID != "P1" || body.Data.Best[0].OrderCount != 2 {
		t.Errorf("unexpected best sellers %+v", body.Data.Best)
	}
	if len(body.Data.Worst) != 1 || body.Data.Worst[0].ProductID != "P2" {
		t.Errorf("unexpected worst sellers %+v", body.Data.Worst)
	}
}

func TestAPIHandlers_HandleCitySpending(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	_, body := doRequest[[]models.CitySpending](t, handlers.HandleCitySpending, "/api/city-spending?limit=2")

	if len(body.Data) != 2 {
		t.Fatalf("expected 2 cities, got %d", len(body.Data))
	}
	if body.Data[0].City != "sao paulo" || body.Data[1].City != "curitiba" {
		t.Errorf("unexpected ranking %+v", body.Data)
	}
}

func TestAPIHandlers_HandleCategoryRevenue(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	_, body := doRequest[[]models.CategoryRevenue](t, handlers.HandleCategoryRevenue, "/api/category-revenue")

	if len(body.Data) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(body.Data))
	}
	if body.Data[0].Category != "health_beauty" || !body.Data[0].Revenue.Equal(price("180")) {
		t.Errorf("unexpected top category %+v", body.Data[0])
	}
	if body.Data[1].Category != "informatica_acessorios" || !body.Data[1].Revenue.Equal(price("60")) {
		t.Errorf("untranslated category should keep its raw name, got %+v", body.Data[1])
	}
}

func TestAPIHandlers_HandleRFM(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w, body := doRequest[models.RFMSegments](t, handlers.HandleRFM, "/api/rfm?limit=2")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if len(body.Data.ByRecency) != 2 || body.Data.ByRecency[0].CustomerUniqueID != "U3" {
		t.Errorf("expected U3 to be the most recent customer, got %+v", body.Data.ByRecency)
	}
	if len(body.Data.ByMonetary) != 2 || body.Data.ByMonetary[0].CustomerUniqueID != "U1" {
		t.Errorf("expected U1 to be the biggest spender, got %+v", body.Data.ByMonetary)
	}
	if body.Data.Summary.TotalOrders != 3 {
		t.Errorf("expected summary over 3 orders, got %d", body.Data.Summary.TotalOrders)
	}
}

func TestAPIHandlers_HandleViews(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/views?start=2023-01-01&end=2023-01-31", nil)
	w := httptest.NewRecorder()
	handlers.HandleViews(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()
	for _, key := range []string{`"monthly_revenue"`, `"product_order_count"`, `"city_spending"`, `"category_revenue"`, `"rfm"`, `"summary"`, `"range"`} {
		if !strings.Contains(body, key) {
			t.Errorf("expected response to contain %s", key)
		}
	}
}

func TestAPIHandlers_EmptyViewsAreArrays(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/views?start=2023-03-01&end=2023-01-01", nil)
	w := httptest.NewRecorder()
	handlers.HandleViews(w, req)

	body := w.Body.String()
	if strings.Contains(body, "null") {
		t.Errorf("empty views should encode as [], got %s", body)
	}
	if !strings.Contains(body, `"rfm":[]`) {
		t.Errorf("expected empty rfm array, got %s", body)
	}
}

func TestAPIHandlers_NotLoaded(t *testing.T) {
	analytics := services.NewAnalytics(services.WithLogger(testLogger()))
	handlers := NewAPIHandlers(analytics, testLogger())

	w, body := doRequest[any](t, handlers.HandleMonthlyRevenue, "/api/monthly-revenue")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
	if body.Error.Code != "DATA_NOT_LOADED" {
		t.Errorf("expected DATA_NOT_LOADED, got %q", body.Error.Code)
	}

	_, health := doRequest[map[string]string](t, handlers.HandleHealth, "/health")
	if health.Data["status"] != "loading" {
		t.Errorf("expected loading status, got %q", health.Data["status"])
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w, body := doRequest[map[string]string](t, handlers.HandleHealth, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body.Data["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %v", body.Data["status"])
	}
	if _, err := time.Parse(time.RFC3339, body.Data["timestamp"]); err != nil {
		t.Errorf("timestamp should be in RFC3339 format: %v", err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w, body := doRequest[map[string]any](t, handlers.HandleStats, "/admin/stats")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body.Data["orders"] != float64(3) {
		t.Errorf("expected 3 orders, got %v", body.Data["orders"])
	}
	if body.Data["granularity"] != "month" {
		t.Errorf("expected month granularity, got %v", body.Data["granularity"])
	}
}

func TestResolveRange(t *testing.T) {
	bounds := models.DateRange{
		Start: time.Date(2016, 9, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2018, 10, 17, 0, 0, 0, 0, time.UTC),
	}

	r, err := resolveRange("", "  ", bounds)
	if err != nil || r != bounds {
		t.Errorf("blank bounds should fall back, got %v %v", r, err)
	}

	r, err = resolveRange("2017-01-01", "", bounds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Start.Equal(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)) || !r.End.Equal(bounds.End) {
		t.Errorf("unexpected range %v", r)
	}

	if _, err := resolveRange("2017-02-30", "", bounds); err == nil {
		t.Error("expected error for impossible date")
	}
}
