package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
)

const timestampLayout = "20060102_150405"

// Report is the document written by the report command.
type Report struct {
	Name        string           `json:"report"`
	GeneratedAt time.Time        `json:"generated_at"`
	Source      string           `json:"source"`
	Range       models.DateRange `json:"range"`
	Data        any              `json:"data"`
}

var selectors = map[string]func(*models.Views) any{
	"views":               func(v *models.Views) any { return v },
	"summary":             func(v *models.Views) any { return v.Summary },
	"monthly-revenue":     func(v *models.Views) any { return v.MonthlyRevenue },
	"product-performance": func(v *models.Views) any { return services.Performance(v.ProductCounts, 5) },
	"city-spending":       func(v *models.Views) any { return services.TopCities(v.CitySpending, 10) },
	"category-revenue":    func(v *models.Views) any { return services.TopCategories(v.CategoryRevenue, 15) },
	"rfm":                 func(v *models.Views) any { return v.RFM },
}

// Names lists the reports Build accepts.
func Names() []string {
	names := make([]string, 0, len(selectors))
	for name := range selectors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build wraps the part of views selected by name.
func Build(name, source string, views *models.Views, now time.Time) (*Report, error) {
	sel, ok := selectors[name]
	if !ok {
		return nil, fmt.Errorf("unknown report %q", name)
	}
	return &Report{
		Name:        name,
		GeneratedAt: now.UTC(),
		Source:      source,
		Range:       views.Range,
		Data:        sel(views),
	}, nil
}

// ExportJSON writes data as indented JSON, creating parent directories. The
// file is written under a temporary name and renamed into place.
func ExportJSON(filename string, data any) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write report JSON: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("move report into place: %w", err)
	}
	return nil
}

func TimestampedFilename(baseDir, name string, now time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.json", name, now.Format(timestampLayout)))
}
