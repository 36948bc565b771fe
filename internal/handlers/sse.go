package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/ui/templates"
)

var fragmentFuncs = template.FuncMap{
	"brl":   templates.FormatBRL,
	"count": templates.FormatCount,
	"score": templates.FormatScore,

	"rfmSection": newRFMSection,
}

var fragments = template.Must(template.New("fragments").Funcs(fragmentFuncs).Parse(`
{{define "summary"}}<section id="summary-content"><div class="tiles">
<div class="tile">Total Orders<strong>{{count .TotalOrders}}</strong></div>
<div class="tile">Total Revenue<strong>{{brl .TotalRevenue}}</strong></div>
<div class="tile">Avg. Recency<strong>{{.AvgRecency}} days</strong></div>
<div class="tile">Avg. Frequency<strong>{{.AvgFrequency}}</strong></div>
<div class="tile">Avg. Monetary<strong>{{brl .AvgMonetary}}</strong></div>
</div></section>{{end}}

{{define "monthly"}}<div id="monthly-content">
<table class="modern-table">
<thead><tr><th>Month</th><th>Revenue</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.MonthYear}}</td><td>{{brl .Revenue}}</td></tr>
{{else}}<tr><td colspan="2">No orders in range</td></tr>
{{end}}</tbody>
</table>
</div>{{end}}

{{define "products"}}<div id="products-content">
<table class="modern-table">
<thead><tr><th>Best sellers</th><th>Orders</th></tr></thead>
<tbody>
{{range .Best}}<tr><td>{{.ProductID}}</td><td>{{count .OrderCount}}</td></tr>
{{end}}</tbody>
</table>
<table class="modern-table">
<thead><tr><th>Worst sellers</th><th>Orders</th></tr></thead>
<tbody>
{{range .Worst}}<tr><td>{{.ProductID}}</td><td>{{count .OrderCount}}</td></tr>
{{end}}</tbody>
</table>
</div>{{end}}

{{define "cities"}}<div id="cities-content">
<table class="modern-table">
<thead><tr><th>City</th><th>Amount Spent</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.City}}</td><td>{{brl .AmountSpent}}</td></tr>
{{end}}</tbody>
</table>
</div>{{end}}

{{define "categories"}}<div id="categories-content">
<table class="modern-table">
<thead><tr><th>Category</th><th>Revenue</th></tr></thead>
<tbody>
{{range .}}<tr><td><span class="category-badge">{{.Category}}</span></td><td>{{brl .Revenue}}</td></tr>
{{end}}</tbody>
</table>
</div>{{end}}

{{define "rfm"}}<div id="rfm-content">
{{template "rfmTable" (rfmSection "Most recent" .ByRecency)}}
{{template "rfmTable" (rfmSection "Most frequent" .ByFrequency)}}
{{template "rfmTable" (rfmSection "Highest spend" .ByMonetary)}}
</div>{{end}}

{{define "rfmTable"}}<table class="modern-table">
<caption>{{.Title}}</caption>
<thead><tr><th>Customer</th><th>Recency</th><th>Frequency</th><th>Monetary</th><th>RFM Score</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.CustomerUniqueID}}</td><td>{{.Recency}}</td><td>{{.Frequency}}</td><td>{{brl .Monetary}}</td><td>{{score .Score}}</td></tr>
{{end}}</tbody>
</table>{{end}}

{{define "error"}}<div id="{{.Target}}" class="error">{{.Message}}</div>{{end}}
`))

type rfmSection struct {
	Title string
	Rows  []models.RFMRecord
}

func newRFMSection(title string, rows []models.RFMRecord) rfmSection {
	return rfmSection{Title: title, Rows: rows}
}

// dashboardSignals is the client state posted by the date pickers.
type dashboardSignals struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func renderFragment(name string, data any) (string, error) {
	var buf strings.Builder
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// compute reads the date range from the datastar signals and runs the
// pipeline for it.
func (h *SSEHandlers) compute(r *http.Request) (*models.Views, error) {
	if !h.analytics.Loaded() {
		return nil, errors.DataNotLoaded("Dataset has not been loaded yet")
	}

	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return nil, errors.BadRequestWrap(err, "Invalid datastar signals")
	}

	dr, err := resolveRange(signals.Start, signals.End, h.analytics.DefaultRange())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), computeTimeout)
	defer cancel()
	return h.analytics.Compute(ctx, dr)
}

// fail replaces target with an error message.
func (h *SSEHandlers) fail(sse *datastar.ServerSentEventGenerator, target string, err error) {
	appErr := errors.From(err)
	h.logger.Warn("sse request failed",
		"target", target,
		"error_code", appErr.Code,
		"error", err,
	)

	html, renderErr := renderFragment("error", map[string]string{
		"Target":  target,
		"Message": appErr.Message,
	})
	if renderErr != nil {
		h.logger.Error("render error fragment", "error", renderErr)
		return
	}
	if patchErr := sse.PatchElements(html); patchErr != nil {
		h.logger.Error("patch error fragment", "error", patchErr)
	}
}

type panel struct {
	target   string
	fragment string
	signal   string
	data     func(*models.Views) any
}

var (
	summaryPanel = panel{
		target:   "summary-content",
		fragment: "summary",
		data:     func(v *models.Views) any { return v.Summary },
	}
	monthlyPanel = panel{
		target:   "monthly-content",
		fragment: "monthly",
		signal:   "monthlyData",
		data:     func(v *models.Views) any { return v.MonthlyRevenue },
	}
	productsPanel = panel{
		target:   "products-content",
		fragment: "products",
		signal:   "productsData",
		data:     func(v *models.Views) any { return services.Performance(v.ProductCounts, defaultProducts) },
	}
	citiesPanel = panel{
		target:   "cities-content",
		fragment: "cities",
		signal:   "citiesData",
		data:     func(v *models.Views) any { return services.TopCities(v.CitySpending, defaultCities) },
	}
	categoriesPanel = panel{
		target:   "categories-content",
		fragment: "categories",
		signal:   "categoriesData",
		data:     func(v *models.Views) any { return services.TopCategories(v.CategoryRevenue, defaultCategories) },
	}
	rfmPanel = panel{
		target:   "rfm-content",
		fragment: "rfm",
		signal:   "rfmData",
		data:     func(v *models.Views) any { return services.Segments(v, defaultCustomers) },
	}
)

// serve computes the views once and patches every panel: chart data as
// signals and the rendered fragment as elements.
func (h *SSEHandlers) serve(w http.ResponseWriter, r *http.Request, panels ...panel) {
	sse := datastar.NewSSE(w, r)

	views, err := h.compute(r)
	if err != nil {
		for _, p := range panels {
			h.fail(sse, p.target, err)
		}
		return
	}

	signals := make(map[string]any, len(panels))
	for _, p := range panels {
		data := p.data(views)
		if p.signal != "" {
			signals[p.signal] = data
		}

		html, err := renderFragment(p.fragment, data)
		if err != nil {
			h.fail(sse, p.target, err)
			continue
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.Error("patch elements", "target", p.target, "error", err)
			return
		}
	}

	if len(signals) > 0 {
		jsonData, err := json.Marshal(signals)
		if err != nil {
			h.logger.Error("marshal signals", "error", err)
			return
		}
		if err := sse.PatchSignals(jsonData); err != nil {
			h.logger.Error("patch signals", "error", err)
			return
		}
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, summaryPanel)
}

func (h *SSEHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, monthlyPanel)
}

func (h *SSEHandlers) HandleProductPerformance(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, productsPanel)
}

func (h *SSEHandlers) HandleCitySpending(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, citiesPanel)
}

func (h *SSEHandlers) HandleCategoryRevenue(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, categoriesPanel)
}

func (h *SSEHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, rfmPanel)
}

// HandleRefreshAll reruns the whole pipeline for the current pickers.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, summaryPanel, monthlyPanel, productsPanel, citiesPanel, categoriesPanel, rfmPanel)
}
