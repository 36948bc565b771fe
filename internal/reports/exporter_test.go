package reports

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olist-dashboard/internal/models"
)

func testViews() *models.Views {
	return &models.Views{
		Range: models.DateRange{
			Start: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2017, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		Summary: models.Summary{TotalOrders: 2, TotalRevenue: decimal.NewFromInt(150), AvgMonetary: decimal.NewFromInt(75)},
		MonthlyRevenue: []models.MonthlyRevenue{
			{MonthYear: "March 2017", Revenue: decimal.NewFromInt(150)},
		},
		ProductCounts:   []models.ProductOrderCount{{ProductID: "P1", OrderCount: 2}},
		CitySpending:    []models.CitySpending{},
		CategoryRevenue: []models.CategoryRevenue{},
		RFM:             []models.RFMRecord{},
	}
}

func TestTimestampedFilename(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	got := TimestampedFilename("reports", "rfm", now)
	assert.Equal(t, filepath.Join("reports", "rfm_20240506_070809.json"), got)
}

func TestBuild(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("BRT", -3*3600))

	report, err := Build("summary", "csv", testViews(), now)
	require.NoError(t, err)
	assert.Equal(t, "summary", report.Name)
	assert.Equal(t, time.UTC, report.GeneratedAt.Location())
	assert.Equal(t, testViews().Summary, report.Data)

	report, err = Build("product-performance", "csv", testViews(), now)
	require.NoError(t, err)
	perf, ok := report.Data.(models.ProductPerformance)
	require.True(t, ok)
	assert.Len(t, perf.Best, 1)

	_, err = Build("country-revenue", "csv", testViews(), now)
	assert.ErrorContains(t, err, "unknown report")
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "views")
	assert.Contains(t, names, "rfm")
	assert.IsNonDecreasing(t, names)
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "nested", "views_20240506_070809.json")

	report, err := Build("views", "postgres", testViews(), time.Now())
	require.NoError(t, err)
	require.NoError(t, ExportJSON(filename, report))

	raw, err := os.ReadFile(filename)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "views", decoded["report"])
	assert.Equal(t, "postgres", decoded["source"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, []any{}, data["rfm"])

	entries, err := os.ReadDir(filepath.Dir(filename))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestExportJSON_Unencodable(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bad.json")
	err := ExportJSON(filename, map[string]any{"ch": make(chan int)})
	require.Error(t, err)

	_, statErr := os.Stat(filename)
	assert.True(t, os.IsNotExist(statErr))
}
