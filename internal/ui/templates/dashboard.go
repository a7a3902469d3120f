// Package templates renders the dashboard page and the fragments the SSE
// endpoints patch into it.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// Element ids patched by the SSE endpoints.
const (
	StatusID   = "status"
	ChartsID   = "charts"
	InsightsID = "insights"
	DetailID   = "detail"
)

// Signals is the client-side filter state bound to the page controls.
type Signals struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Regions  []string `json:"regions"`
	Products []string `json:"products"`
}

// SignalsFor returns the signals that reproduce vm's selection.
func SignalsFor(vm *models.ViewModel) Signals {
	s := Signals{
		Regions:  nonNil(vm.Selection.Regions),
		Products: nonNil(vm.Selection.Products),
	}
	if !vm.Selection.Start.IsZero() {
		s.Start = dateValue(vm.Selection.Start)
	}
	if !vm.Selection.End.IsZero() {
		s.End = dateValue(vm.Selection.End)
	}
	return s
}

func component(build func(b *strings.Builder) error) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		if err := build(&b); err != nil {
			return err
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Dashboard is the full page. Its panels are filled in by /sse/dashboard
// once the page has loaded.
func Dashboard(vm *models.ViewModel, chartQuery string) templ.Component {
	return component(func(b *strings.Builder) error {
		signals, err := json.Marshal(SignalsFor(vm))
		if err != nil {
			return err
		}

		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>Sales Dashboard</title>`)
		fmt.Fprintf(b, `<script type="module" src="%s"></script>`, datastarScript)
		b.WriteString(`<style>` + pageStyle + `</style></head>`)

		fmt.Fprintf(b, `<body data-signals='%s' data-on-load="@get('/sse/dashboard')">`, templ.EscapeString(string(signals)))
		b.WriteString(`<header><h1>Sales Dashboard</h1>`)
		b.WriteString(`<button data-on-click="@get('/sse/refresh')">Refresh data</button></header>`)

		writeFilters(b, vm)

		writeStatus(b, vm)
		writeCharts(b, vm, chartQuery)
		writeInsights(b, vm)
		writeDetail(b, vm)
		b.WriteString(`</body></html>`)
		return nil
	})
}

// Status shows the view message and warnings.
func Status(vm *models.ViewModel) templ.Component {
	return component(func(b *strings.Builder) error {
		writeStatus(b, vm)
		return nil
	})
}

// ErrorStatus replaces the status line with a failure message.
func ErrorStatus(message string) templ.Component {
	return component(func(b *strings.Builder) error {
		fmt.Fprintf(b, `<div id="%s" class="status error">%s</div>`, StatusID, templ.EscapeString(message))
		return nil
	})
}

// Charts shows the three chart panels. chartQuery is appended to each
// chart URL so the images follow the current selection.
func Charts(vm *models.ViewModel, chartQuery string) templ.Component {
	return component(func(b *strings.Builder) error {
		writeCharts(b, vm, chartQuery)
		return nil
	})
}

func Insights(vm *models.ViewModel) templ.Component {
	return component(func(b *strings.Builder) error {
		writeInsights(b, vm)
		return nil
	})
}

func DetailTable(vm *models.ViewModel) templ.Component {
	return component(func(b *strings.Builder) error {
		writeDetail(b, vm)
		return nil
	})
}

func writeFilters(b *strings.Builder, vm *models.ViewModel) {
	b.WriteString(`<form class="filters" onsubmit="return false">`)
	fmt.Fprintf(b, `<label>From <input type="date" data-bind-start min="%s" max="%s"></label>`,
		dateValue(vm.DateBounds.Start), dateValue(vm.DateBounds.End))
	fmt.Fprintf(b, `<label>To <input type="date" data-bind-end min="%s" max="%s"></label>`,
		dateValue(vm.DateBounds.Start), dateValue(vm.DateBounds.End))
	writeSelect(b, "Regions", "regions", vm.AllRegions)
	writeSelect(b, "Products", "products", vm.AllProducts)
	b.WriteString(`<button data-on-click="@get('/sse/dashboard')">Apply</button></form>`)
}

func writeSelect(b *strings.Builder, label, signal string, options []string) {
	fmt.Fprintf(b, `<label>%s <select multiple data-bind-%s>`, label, signal)
	for _, opt := range options {
		v := templ.EscapeString(opt)
		fmt.Fprintf(b, `<option value="%s">%s</option>`, v, v)
	}
	b.WriteString(`</select></label>`)
}

func writeStatus(b *strings.Builder, vm *models.ViewModel) {
	class := "status"
	if vm.Status == models.StatusNoData {
		class += " empty"
	}
	fmt.Fprintf(b, `<div id="%s" class="%s">`, StatusID, class)
	fmt.Fprintf(b, `<span class="total">Total sales: $%s</span>`, templ.EscapeString(vm.TotalSalesDisplay))
	if !vm.LastUpdated.IsZero() {
		fmt.Fprintf(b, ` <span class="updated">Last updated %s</span>`, vm.LastUpdated.Format("02/01/2006 15:04:05"))
	}
	if vm.Message != "" {
		fmt.Fprintf(b, `<p class="message">%s</p>`, templ.EscapeString(vm.Message))
	}
	for _, w := range vm.Warnings {
		fmt.Fprintf(b, `<p class="warning">%s</p>`, templ.EscapeString(w))
	}
	b.WriteString(`</div>`)
}

func writeCharts(b *strings.Builder, vm *models.ViewModel, chartQuery string) {
	fmt.Fprintf(b, `<section id="%s" class="charts">`, ChartsID)
	writePanel(b, vm.ByProduct, "product", chartQuery)
	writePanel(b, vm.ByRegion, "region", chartQuery)
	writePanel(b, vm.OverTime, "time", chartQuery)
	b.WriteString(`</section>`)
}

func writePanel(b *strings.Builder, panel models.Panel, name, chartQuery string) {
	fmt.Fprintf(b, `<figure class="panel" id="panel-%s"><figcaption>%s</figcaption>`, name, templ.EscapeString(panel.Title))
	switch {
	case panel.Warning != "":
		fmt.Fprintf(b, `<p class="warning">%s</p>`, templ.EscapeString(panel.Warning))
	case len(panel.Rows) == 0:
		fmt.Fprintf(b, `<p class="empty">%s</p>`, models.NoDataLabel)
	default:
		src := "/charts/" + name + ".svg"
		if chartQuery != "" {
			src += "?" + chartQuery
		}
		fmt.Fprintf(b, `<img src="%s" alt="%s">`, templ.EscapeString(src), templ.EscapeString(panel.Title))
		b.WriteString(`<ul class="points">`)
		for _, row := range panel.Rows {
			fmt.Fprintf(b, `<li tabindex="0">%s`, templ.EscapeString(row.Label))
			if row.Annotation != "" {
				fmt.Fprintf(b, ` <span class="annotation">%s</span>`, templ.EscapeString(row.Annotation))
			}
			// Hover is markup built by presentation.HoverText with the name
			// already escaped.
			fmt.Fprintf(b, `<span class="hover" role="tooltip">%s</span></li>`, row.Hover)
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</figure>`)
}

func writeInsights(b *strings.Builder, vm *models.ViewModel) {
	in := vm.Insights
	fmt.Fprintf(b, `<section id="%s" class="insights"><h2>Insights</h2><dl>`, InsightsID)
	item := func(term, value string) {
		fmt.Fprintf(b, `<dt>%s</dt><dd>%s</dd>`, term, templ.EscapeString(value))
	}
	item("Total sales", in.TotalSalesDisplay)
	item("Average sale", in.AverageSalesDisplay)
	item("Orders", fmt.Sprint(in.NumOrders))
	item("Most sold product", in.MostSoldProduct)
	item("Top region", in.MostSalesRegion)
	best := in.MaxSalesDateDisplay
	if in.HasData && !in.MaxSalesDate.IsZero() {
		best += " ($" + in.MaxSalesDateTotal.StringFixed(2) + ")"
	}
	item("Best day", best)
	b.WriteString(`</dl></section>`)
}

func writeDetail(b *strings.Builder, vm *models.ViewModel) {
	fmt.Fprintf(b, `<section id="%s" class="detail"><table class="modern-table">`, DetailID)
	fmt.Fprintf(b, `<caption>Showing %d of %d orders</caption>`, len(vm.Detail), vm.DetailTotal)
	b.WriteString(`<thead><tr><th>Order date</th><th>Total due</th><th>Region</th><th>Product</th></tr></thead><tbody>`)
	for _, row := range vm.Detail {
		fmt.Fprintf(b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			templ.EscapeString(row.OrderDate),
			templ.EscapeString(row.TotalDue),
			templ.EscapeString(row.StateName),
			templ.EscapeString(row.ProductName),
		)
	}
	b.WriteString(`</tbody></table></section>`)
}

func dateValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:0 auto;max-width:1100px;padding:1rem;color:#222}
header{display:flex;justify-content:space-between;align-items:center}
.filters{display:flex;gap:1rem;flex-wrap:wrap;align-items:flex-end;margin-bottom:1rem}
.filters select{min-width:12rem;min-height:6rem}
.status{padding:.5rem 0}.status.error{color:#b00020}.warning{color:#8a6d00}.empty{color:#666}
.charts{display:grid;gap:1rem}.panel img{width:100%;height:auto}
.points{display:flex;flex-wrap:wrap;gap:.25rem .75rem;list-style:none;padding:0;font-size:.85rem}
.points li{position:relative;cursor:default}.annotation{color:#1f77b4;font-weight:600}
.hover{display:none;position:absolute;bottom:100%;left:0;z-index:1;background:#fff;border:1px solid #ccc;padding:.25rem .5rem;white-space:nowrap}
.points li:hover .hover,.points li:focus .hover{display:block}
.insights dl{display:grid;grid-template-columns:max-content auto;gap:.25rem 1rem}
.modern-table{border-collapse:collapse;width:100%}.modern-table td,.modern-table th{border-bottom:1px solid #ddd;padding:.25rem .5rem;text-align:left}`
