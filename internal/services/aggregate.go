package services

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

// grouping sums amounts per key and remembers first-seen key order.
type grouping struct {
	index  map[string]int
	keys   []string
	totals []decimal.Decimal
}

func newGrouping() *grouping {
	return &grouping{index: make(map[string]int)}
}

func (g *grouping) add(key string, amount decimal.Decimal) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.keys)
		g.index[key] = i
		g.keys = append(g.keys, key)
		g.totals = append(g.totals, decimal.Zero)
	}
	g.totals[i] = g.totals[i].Add(amount)
}

// sortedDesc returns the groups by total, largest first. The sort is stable,
// so groups with equal totals stay in first-seen order and the earliest of
// them wins any argmax.
func (g *grouping) sortedDesc(total decimal.Decimal) []models.AggregateRow {
	rows := make([]models.AggregateRow, len(g.keys))
	for i, key := range g.keys {
		rows[i] = models.AggregateRow{
			Key:     key,
			Total:   g.totals[i].Round(2),
			Percent: percentage(g.totals[i], total),
		}
	}
	slices.SortStableFunc(rows, func(a, b models.AggregateRow) int {
		return b.Total.Cmp(a.Total)
	})
	return rows
}

// percentage is row/total*100, or 0 when total is zero.
func percentage(value, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return value.Div(total).Mul(hundred).InexactFloat64()
}

// Aggregate computes the grouped sums and insights of a filtered record set.
// Every amount is rounded to cents before it is summed.
func Aggregate(records []models.Record, columns models.ColumnSet) models.Summary {
	summary := models.Summary{Warnings: make(map[string]string)}

	hasTotal := columns.Has(models.ColTotalDue)
	hasDate := columns.Has(models.ColOrderDate)
	hasRegion := columns.Has(models.ColStateName)
	hasProduct := columns.Has(models.ColProductName)

	warn := func(panel, column string) {
		summary.Warnings[panel] = (&errors.MissingColumnError{Column: column, Panel: panel}).Error()
	}
	if !hasTotal {
		for _, panel := range []string{models.PanelTotal, models.PanelByProduct, models.PanelByRegion, models.PanelOverTime} {
			warn(panel, models.ColTotalDue)
		}
	}
	if !hasProduct {
		warn(models.PanelByProduct, models.ColProductName)
	}
	if !hasRegion {
		warn(models.PanelByRegion, models.ColStateName)
	}
	if !hasDate {
		warn(models.PanelOverTime, models.ColOrderDate)
	}

	products := newGrouping()
	regions := newGrouping()
	monthly := make(map[time.Time]decimal.Decimal)
	daily := make(map[time.Time]decimal.Decimal)
	total := decimal.Zero

	for _, rec := range records {
		if !hasTotal {
			break
		}
		amount := rec.TotalDue.Round(2)
		total = total.Add(amount)

		if hasProduct {
			products.add(rec.ProductName, amount)
		}
		if hasRegion {
			regions.add(rec.StateName, amount)
		}
		if hasDate {
			month := monthStart(rec.OrderDate)
			monthly[month] = monthly[month].Add(amount)
			day := dayStart(rec.OrderDate)
			daily[day] = daily[day].Add(amount)
		}
	}

	summary.TotalSales = total.Round(2)
	summary.ByProduct = products.sortedDesc(summary.TotalSales)
	summary.ByRegion = regions.sortedDesc(summary.TotalSales)
	summary.OverTime = monthlySeries(monthly, summary.TotalSales)
	summary.ByDay = dailySeries(daily, summary.TotalSales)
	summary.Insights = insights(len(records), summary)

	if len(summary.Warnings) == 0 {
		summary.Warnings = nil
	}
	return summary
}

func insights(count int, s models.Summary) models.Insights {
	in := models.Insights{
		TotalSales:        s.TotalSales,
		AverageSales:      decimal.Zero,
		NumOrders:         count,
		MostSoldProduct:   models.NoDataLabel,
		MostSalesRegion:   models.NoDataLabel,
		MaxSalesDateTotal: decimal.Zero,
		HasData:           count > 0,
	}
	if count > 0 {
		in.AverageSales = s.TotalSales.Div(decimal.NewFromInt(int64(count))).Round(2)
	}
	if len(s.ByProduct) > 0 {
		in.MostSoldProduct = s.ByProduct[0].Key
	}
	if len(s.ByRegion) > 0 {
		in.MostSalesRegion = s.ByRegion[0].Key
	}
	// ByDay is ascending, so a strict comparison keeps the earliest day on ties.
	for i, row := range s.ByDay {
		if i == 0 || row.Total.GreaterThan(in.MaxSalesDateTotal) {
			in.MaxSalesDate = row.Period
			in.MaxSalesDateTotal = row.Total
		}
	}
	return in
}

// monthlySeries orders month buckets ascending and fills months without
// sales between the first and last month with zero rows.
func monthlySeries(buckets map[time.Time]decimal.Decimal, total decimal.Decimal) []models.AggregateRow {
	if len(buckets) == 0 {
		return []models.AggregateRow{}
	}
	months := sortedPeriods(buckets)
	first, last := months[0], months[len(months)-1]

	rows := make([]models.AggregateRow, 0, len(months))
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		amount := buckets[m]
		rows = append(rows, models.AggregateRow{
			Key:     m.Format("2006-01"),
			Period:  m,
			Total:   amount.Round(2),
			Percent: percentage(amount, total),
		})
	}
	return rows
}

func dailySeries(buckets map[time.Time]decimal.Decimal, total decimal.Decimal) []models.AggregateRow {
	days := sortedPeriods(buckets)
	rows := make([]models.AggregateRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, models.AggregateRow{
			Key:     d.Format(time.DateOnly),
			Period:  d,
			Total:   buckets[d].Round(2),
			Percent: percentage(buckets[d], total),
		})
	}
	return rows
}

func sortedPeriods(buckets map[time.Time]decimal.Decimal) []time.Time {
	periods := make([]time.Time, 0, len(buckets))
	for p := range buckets {
		periods = append(periods, p)
	}
	slices.SortFunc(periods, func(a, b time.Time) int { return a.Compare(b) })
	return periods
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type orderLine struct {
	orderID int64
	product string
}

// DedupeOrderLines keeps the first record per (order, product). The feed
// repeats an order's header total on every line, so summing raw rows counts
// an order once per line. Records without an order id are kept as is.
func DedupeOrderLines(records []models.Record) []models.Record {
	seen := make(map[orderLine]struct{}, len(records))
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if rec.OrderID != 0 {
			key := orderLine{orderID: rec.OrderID, product: rec.ProductName}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, rec)
	}
	return out
}
