package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the order feed.
const (
	ColOrderID     = "order_id"
	ColOrderDate   = "order_date"
	ColTotalDue    = "total_due"
	ColStateName   = "state_name"
	ColProductName = "product_name"
)

// NoDataLabel is reported by insights when the filtered set is empty.
const NoDataLabel = "no data"

// Record is one order line joined with its product and ship-to region.
// TotalDue is the order header total, repeated on every line of the order.
type Record struct {
	OrderID     int64           `json:"order_id,omitempty"`
	OrderDate   time.Time       `json:"order_date"`
	TotalDue    decimal.Decimal `json:"total_due"`
	StateName   string          `json:"state_name"`
	ProductName string          `json:"product_name"`
}

// ColumnSet tracks which columns the feed carried.
type ColumnSet map[string]bool

func (c ColumnSet) Has(col string) bool {
	return c[col]
}

// Missing returns the required columns absent from the set, in a stable order.
func (c ColumnSet) Missing() []string {
	var missing []string
	for _, col := range RequiredColumns {
		if !c[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// RequiredColumns are the columns every visualization depends on.
var RequiredColumns = []string{ColOrderDate, ColTotalDue, ColStateName, ColProductName}

// AllColumns returns a ColumnSet with every known column present.
func AllColumns() ColumnSet {
	return ColumnSet{
		ColOrderID:     true,
		ColOrderDate:   true,
		ColTotalDue:    true,
		ColStateName:   true,
		ColProductName: true,
	}
}

// RecordSet is the immutable result of one data source load.
type RecordSet struct {
	Records  []Record  `json:"-"`
	Columns  ColumnSet `json:"columns"`
	LoadedAt time.Time `json:"loaded_at"`
	Source   string    `json:"source"`
	Skipped  int       `json:"skipped"`
}

func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// DateBounds returns the earliest and latest order date of the set.
func (rs *RecordSet) DateBounds() DateRange {
	var r DateRange
	for i, rec := range rs.Records {
		if i == 0 || rec.OrderDate.Before(r.Start) {
			r.Start = rec.OrderDate
		}
		if i == 0 || rec.OrderDate.After(r.End) {
			r.End = rec.OrderDate
		}
	}
	return r
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Selection is the filter state of a single interaction. Zero Start or End
// leave that side of the range open; empty Regions or Products mean all.
type Selection struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Regions  []string  `json:"regions"`
	Products []string  `json:"products"`
}

// AggregateRow is a (label, total) pair of a grouping. Period is set for
// time series rows only.
type AggregateRow struct {
	Key     string          `json:"key"`
	Period  time.Time       `json:"period,omitzero"`
	Total   decimal.Decimal `json:"total"`
	Percent float64         `json:"percent"`
}

type Insights struct {
	TotalSales        decimal.Decimal `json:"total_sales"`
	AverageSales      decimal.Decimal `json:"average_sales"`
	NumOrders         int             `json:"num_orders"`
	MostSoldProduct   string          `json:"most_sold_product"`
	MostSalesRegion   string          `json:"most_sales_region"`
	MaxSalesDate      time.Time       `json:"max_sales_date,omitzero"`
	MaxSalesDateTotal decimal.Decimal `json:"max_sales_date_total"`
	HasData           bool            `json:"has_data"`
}

// Summary is the output of one aggregation pass.
type Summary struct {
	TotalSales decimal.Decimal `json:"total_sales"`
	ByProduct  []AggregateRow  `json:"by_product"`
	ByRegion   []AggregateRow  `json:"by_region"`
	OverTime   []AggregateRow  `json:"over_time"`
	ByDay      []AggregateRow  `json:"-"`
	Insights   Insights        `json:"insights"`
	// Warnings holds a MissingColumn message per degraded panel.
	Warnings map[string]string `json:"warnings,omitempty"`
}

// Panel keys of Summary.Warnings.
const (
	PanelTotal     = "total"
	PanelByProduct = "by_product"
	PanelByRegion  = "by_region"
	PanelOverTime  = "over_time"
)
