package templates

import (
	"context"
	"encoding/json"
	"io"

	"github.com/a-h/templ"

	"olist-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

const dashboardHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Olist E-commerce Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #1f2933; }
.filters { display: flex; gap: 1rem; align-items: end; margin-bottom: 1.5rem; }
.tiles { display: grid; grid-template-columns: repeat(5, 1fr); gap: 1rem; }
.tile { background: #f5f7fa; border-radius: 8px; padding: 1rem; }
.tile strong { display: block; font-size: 1.4rem; }
.grid { display: grid; grid-template-columns: 1fr 1fr; gap: 1.5rem; margin-top: 1.5rem; }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { padding: .4rem .6rem; border-bottom: 1px solid #e4e7eb; text-align: left; }
</style>
</head>
`

const dashboardPanels = `<section id="summary-content"><div class="tiles">Loading...</div></section>
<div class="grid">
<section><h2>Monthly Revenue</h2><div id="monthly-content"></div></section>
<section><h2>Product Performance</h2><div id="products-content"></div></section>
<section><h2>Top Cities by Spending</h2><div id="cities-content"></div></section>
<section><h2>Top Categories by Revenue</h2><div id="categories-content"></div></section>
</div>
<section><h2>Customer Segmentation (RFM)</h2><div id="rfm-content"></div></section>
</body>
</html>
`

// Dashboard renders the page shell. The date pickers start at bounds, the
// full span of the loaded orders; every panel is filled over SSE.
func Dashboard(bounds models.DateRange) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		var lo, hi string
		if !bounds.IsZero() {
			lo = bounds.Start.Format(dateLayout)
			hi = bounds.End.Format(dateLayout)
		}
		signals, err := json.Marshal(map[string]string{"start": lo, "end": hi})
		if err != nil {
			return err
		}

		if _, err := io.WriteString(w, dashboardHead); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<body data-signals='`+templ.EscapeString(string(signals))+`' data-on-load="@get('/sse/refresh-all')">
<h1>Olist E-commerce Dashboard</h1>
<form class="filters" data-on-change="@get('/sse/refresh-all')">
`); err != nil {
			return err
		}
		if err := dateInput(w, "Start date", "start", lo, hi); err != nil {
			return err
		}
		if err := dateInput(w, "End date", "end", lo, hi); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "</form>\n"); err != nil {
			return err
		}
		_, err = io.WriteString(w, dashboardPanels)
		return err
	})
}

func dateInput(w io.Writer, label, signal, lo, hi string) error {
	_, err := io.WriteString(w, `<label>`+templ.EscapeString(label)+
		` <input type="date" data-bind-`+templ.EscapeString(signal)+
		` min="`+templ.EscapeString(lo)+`" max="`+templ.EscapeString(hi)+`"></label>
`)
	return err
}
