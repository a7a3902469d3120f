package presentation

import (
	"time"

	"sales-dashboard/internal/models"
)

// Input carries the outputs of one filter and aggregate pass.
type Input struct {
	Set               *models.RecordSet
	Selection         models.Selection
	Records           []models.Record
	AvailableRegions  []string
	AvailableProducts []string
	Summary           models.Summary
	Warnings          []string
	// DetailRows caps the detail table; 0 shows every filtered record.
	DetailRows int
}

const (
	noDataMessage  = "No sales data is available yet"
	noMatchMessage = "No orders match the selected filters"
	productTitle   = "Sales by Product"
	regionTitle    = "Sales by Region"
	overTimeTitle  = "Sales Over Time"
	productLabel   = "Product"
	regionLabel    = "Region"
	overTimeLabel  = "Date"
	overTimeXAxis  = "Month"
)

// BuildViewModel assembles everything the page needs from one render pass.
func BuildViewModel(in Input) *models.ViewModel {
	vm := baseView(in.Set, in.Selection)
	s := in.Summary

	vm.Status = models.StatusOK
	if len(in.Records) == 0 {
		vm.Message = noMatchMessage
	}
	vm.AvailableRegions = nonNil(in.AvailableRegions)
	vm.AvailableProducts = nonNil(in.AvailableProducts)

	vm.TotalSales = s.TotalSales
	vm.TotalSalesDisplay = FormatMagnitude(s.TotalSales)

	vm.ByProduct = models.Panel{
		Title:   productTitle,
		XLabel:  productLabel,
		Rows:    categoryRows(productLabel, s.ByProduct),
		Warning: s.Warnings[models.PanelByProduct],
	}
	vm.ByRegion = models.Panel{
		Title:   regionTitle,
		XLabel:  regionLabel,
		Rows:    categoryRows(regionLabel, s.ByRegion),
		Warning: s.Warnings[models.PanelByRegion],
	}
	vm.OverTime = models.Panel{
		Title:   overTimeTitle,
		XLabel:  overTimeXAxis,
		Rows:    timeRows(s.OverTime),
		Warning: s.Warnings[models.PanelOverTime],
	}

	vm.Insights = insightsView(s.Insights)
	vm.Detail = detailRows(in.Records, in.DetailRows)
	vm.DetailTotal = len(in.Records)

	vm.Warnings = append(vm.Warnings, in.Warnings...)
	if w, ok := s.Warnings[models.PanelTotal]; ok {
		vm.Warnings = append(vm.Warnings, w)
	}
	return vm
}

// NoDataView is the view of a feed that loaded successfully with zero rows.
func NoDataView(set *models.RecordSet, sel models.Selection) *models.ViewModel {
	vm := baseView(set, sel)
	vm.Status = models.StatusNoData
	vm.Message = noDataMessage
	vm.AvailableRegions = []string{}
	vm.AvailableProducts = []string{}
	vm.TotalSalesDisplay = FormatMagnitude(vm.TotalSales)
	vm.ByProduct = models.Panel{Title: productTitle, XLabel: productLabel, Rows: []models.ChartRow{}}
	vm.ByRegion = models.Panel{Title: regionTitle, XLabel: regionLabel, Rows: []models.ChartRow{}}
	vm.OverTime = models.Panel{Title: overTimeTitle, XLabel: overTimeXAxis, Rows: []models.ChartRow{}}
	vm.Insights = insightsView(models.Insights{
		MostSoldProduct: models.NoDataLabel,
		MostSalesRegion: models.NoDataLabel,
	})
	vm.Detail = []models.DetailRow{}
	return vm
}

func baseView(set *models.RecordSet, sel models.Selection) *models.ViewModel {
	vm := &models.ViewModel{
		Selection:   sel,
		AllRegions:  []string{},
		AllProducts: []string{},
	}
	if set == nil {
		return vm
	}
	vm.LastUpdated = set.LoadedAt
	vm.DateBounds = set.DateBounds()
	if set.Columns.Has(models.ColStateName) {
		vm.AllRegions = distinct(set.Records, func(r models.Record) string { return r.StateName })
	}
	if set.Columns.Has(models.ColProductName) {
		vm.AllProducts = distinct(set.Records, func(r models.Record) string { return r.ProductName })
	}
	for _, col := range set.Columns.Missing() {
		vm.Warnings = append(vm.Warnings, "feed is missing column "+col)
	}
	return vm
}

func categoryRows(label string, rows []models.AggregateRow) []models.ChartRow {
	out := make([]models.ChartRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.ChartRow{
			Label:      row.Key,
			Total:      row.Total,
			Percent:    row.Percent,
			Hover:      HoverText(label, row.Key, row.Total, row.Percent),
			Annotation: Annotation(row.Total),
		})
	}
	return out
}

func timeRows(rows []models.AggregateRow) []models.ChartRow {
	out := make([]models.ChartRow, 0, len(rows))
	for _, row := range rows {
		display := row.Period.Format(displayDateLayout)
		out = append(out, models.ChartRow{
			Label:      display,
			Period:     row.Period,
			Total:      row.Total,
			Percent:    row.Percent,
			Hover:      HoverText(overTimeLabel, display, row.Total, row.Percent),
			Annotation: Annotation(row.Total),
		})
	}
	return out
}

func insightsView(in models.Insights) models.InsightsView {
	view := models.InsightsView{
		Insights:            in,
		TotalSalesDisplay:   FormatCurrency(in.TotalSales),
		AverageSalesDisplay: FormatCurrency(in.AverageSales),
		MaxSalesDateDisplay: models.NoDataLabel,
	}
	if !in.MaxSalesDate.IsZero() {
		view.MaxSalesDateDisplay = in.MaxSalesDate.Format(displayDateLayout)
	}
	return view
}

func detailRows(records []models.Record, limit int) []models.DetailRow {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	rows := make([]models.DetailRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.DetailRow{
			OrderDate:   formatDate(rec.OrderDate),
			TotalDue:    FormatCurrency(rec.TotalDue),
			StateName:   rec.StateName,
			ProductName: rec.ProductName,
		})
	}
	return rows
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(displayDateLayout)
}

func distinct(records []models.Record, field func(models.Record) string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, rec := range records {
		v := field(rec)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
