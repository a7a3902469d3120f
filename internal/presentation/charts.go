package presentation

import (
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sales-dashboard/internal/models"
)

const (
	chartWidth  = 960
	chartHeight = 420
	// MaxBars caps the categories drawn on a bar chart; the JSON API still
	// returns every group.
	MaxBars = 20
)

// ErrNoChartData is returned when a panel has no rows to draw.
var ErrNoChartData = errors.New("no data to chart")

var seriesColor = drawing.ColorFromHex("1f77b4")

// RenderBarChart writes the panel's largest groups as an SVG bar chart.
func RenderBarChart(w io.Writer, panel models.Panel) error {
	rows := panel.Rows
	if len(rows) == 0 {
		return ErrNoChartData
	}
	if len(rows) > MaxBars {
		rows = rows[:MaxBars]
	}

	bars := make([]chart.Value, 0, len(rows))
	var maxY float64
	for _, row := range rows {
		v := row.Total.InexactFloat64()
		maxY = max(maxY, v)
		bars = append(bars, chart.Value{
			Label: row.Label,
			Value: v,
			Style: chart.Style{FillColor: seriesColor, StrokeColor: seriesColor},
		})
	}

	barWidth := min(60, max(8, (chartWidth-120)/(2*len(bars))))
	bc := chart.BarChart{
		Title:      panel.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Range:          yRange(maxY),
			ValueFormatter: magnitudeFormatter,
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}

// RenderLineChart writes a time panel as an SVG line chart, labelling each
// point that carries an annotation. go-chart needs two distinct X values,
// so a single month is padded to a flat segment.
func RenderLineChart(w io.Writer, panel models.Panel) error {
	if len(panel.Rows) == 0 {
		return ErrNoChartData
	}

	xs := make([]time.Time, 0, len(panel.Rows)+1)
	ys := make([]float64, 0, len(panel.Rows)+1)
	var labels []chart.Value2
	var maxY float64
	for _, row := range panel.Rows {
		v := row.Total.InexactFloat64()
		maxY = max(maxY, v)
		xs = append(xs, row.Period)
		ys = append(ys, v)
		if row.Annotation != "" {
			labels = append(labels, chart.Value2{
				XValue: chart.TimeToFloat64(row.Period),
				YValue: v,
				Label:  row.Annotation,
			})
		}
	}
	if len(xs) == 1 {
		xs = append(xs, xs[0].AddDate(0, 0, 1))
		ys = append(ys, ys[0])
	}

	series := chart.TimeSeries{
		Name:    panel.XLabel,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: seriesColor,
			StrokeWidth: 2,
			DotColor:    seriesColor,
			DotWidth:    3,
		},
	}

	ch := chart.Chart{
		Title:      panel.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis: chart.XAxis{
			Name:           panel.XLabel,
			ValueFormatter: chart.TimeValueFormatterWithFormat("01/2006"),
		},
		YAxis: chart.YAxis{
			Range:          yRange(maxY),
			ValueFormatter: magnitudeFormatter,
		},
		Series: []chart.Series{series},
	}
	// An empty annotation series fails validation.
	if len(labels) > 0 {
		ch.Series = append(ch.Series, chart.AnnotationSeries{
			Name:        "annotations",
			Style:       chart.Style{StrokeColor: seriesColor},
			Annotations: labels,
		})
	}
	return ch.Render(chart.SVG, w)
}

// yRange anchors the axis at zero with some headroom. An all-zero panel
// still gets a positive height.
func yRange(maxY float64) *chart.ContinuousRange {
	if maxY <= 0 {
		maxY = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: maxY * 1.1}
}

func magnitudeFormatter(v any) string {
	if f, ok := v.(float64); ok {
		return "$" + FormatMagnitude(decimal.NewFromFloat(max(f, 0)).Round(2))
	}
	return ""
}
