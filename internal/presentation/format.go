// Package presentation shapes aggregation output for the page: number
// formatting, hover text, chart rows and server-rendered charts.
package presentation

import (
	"fmt"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const displayDateLayout = "02/01/2006"

// annotationThreshold is the smallest total that gets a value label on its chart point.
var annotationThreshold = decimal.NewFromInt(1000)

var magnitudes = []struct {
	limit  decimal.Decimal
	suffix string
}{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "Bi"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "K"},
}

// FormatMagnitude renders a non-negative amount with two decimals and a
// T, Bi, M or K suffix: 1500 is "1.50K", 999 is "999.00".
func FormatMagnitude(v decimal.Decimal) string {
	for _, m := range magnitudes {
		if v.GreaterThanOrEqual(m.limit) {
			return v.Div(m.limit).StringFixed(2) + m.suffix
		}
	}
	return v.StringFixed(2)
}

// FormatCurrency renders an amount as dollars with thousands separators
// and two decimals, e.g. "$1,234.56".
func FormatCurrency(v decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", v.Round(2).InexactFloat64())
}

// HoverText is the tooltip of a chart point. The name is escaped since
// product and region labels come straight from the feed.
func HoverText(label, name string, total decimal.Decimal, percent float64) string {
	return fmt.Sprintf("<b>%s:</b> %s<br><b>Total:</b> %s<br><b>Percent:</b> %.2f%%",
		label, templ.EscapeString(name), FormatCurrency(total), percent)
}

// Annotation is the value label drawn next to large chart points.
func Annotation(total decimal.Decimal) string {
	if total.LessThan(annotationThreshold) {
		return ""
	}
	return "$" + FormatMagnitude(total)
}
