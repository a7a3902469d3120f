package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ViewStatus string

const (
	StatusOK     ViewStatus = "ok"
	StatusNoData ViewStatus = "no_data"
)

// ChartRow is an aggregate row shaped for a chart trace.
type ChartRow struct {
	Label      string          `json:"label"`
	Period     time.Time       `json:"period,omitzero"`
	Total      decimal.Decimal `json:"total"`
	Percent    float64         `json:"percent"`
	Hover      string          `json:"hover"`
	Annotation string          `json:"annotation,omitempty"`
}

type Panel struct {
	Title   string     `json:"title"`
	XLabel  string     `json:"x_label"`
	Rows    []ChartRow `json:"rows"`
	Warning string     `json:"warning,omitempty"`
}

type InsightsView struct {
	Insights
	TotalSalesDisplay   string `json:"total_sales_display"`
	AverageSalesDisplay string `json:"average_sales_display"`
	MaxSalesDateDisplay string `json:"max_sales_date_display"`
}

type DetailRow struct {
	OrderDate   string `json:"order_date"`
	TotalDue    string `json:"total_due"`
	StateName   string `json:"state_name"`
	ProductName string `json:"product_name"`
}

// ViewModel is everything the page needs to draw one render pass.
type ViewModel struct {
	Status            ViewStatus      `json:"status"`
	Message           string          `json:"message,omitempty"`
	LastUpdated       time.Time       `json:"last_updated"`
	DateBounds        DateRange       `json:"date_bounds"`
	AllRegions        []string        `json:"all_regions"`
	AllProducts       []string        `json:"all_products"`
	Selection         Selection       `json:"selection"`
	AvailableRegions  []string        `json:"available_regions"`
	AvailableProducts []string        `json:"available_products"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalSalesDisplay string          `json:"total_sales_display"`
	ByProduct         Panel           `json:"by_product"`
	ByRegion          Panel           `json:"by_region"`
	OverTime          Panel           `json:"over_time"`
	Insights          InsightsView    `json:"insights"`
	Detail            []DetailRow     `json:"detail"`
	DetailTotal       int             `json:"detail_total"`
	Warnings          []string        `json:"warnings,omitempty"`
}
