package services

import (
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

type FilterResult struct {
	Records           []models.Record
	AvailableRegions  []string
	AvailableProducts []string
	Warnings          []string
}

// ApplyFilters narrows records to the selection in a single pass. The date
// range is inclusive on both ends at calendar-day granularity; an empty
// region or product set places no restriction. A constraint on a column the
// feed does not carry is skipped and reported as a warning.
func ApplyFilters(records []models.Record, sel models.Selection, columns models.ColumnSet) FilterResult {
	var result FilterResult

	useDates := !sel.Start.IsZero() || !sel.End.IsZero()
	useRegions := len(sel.Regions) > 0
	useProducts := len(sel.Products) > 0

	if useDates && !columns.Has(models.ColOrderDate) {
		result.Warnings = append(result.Warnings, (&errors.MissingColumnError{Column: models.ColOrderDate, Panel: "date filter"}).Error())
		useDates = false
	}
	if useRegions && !columns.Has(models.ColStateName) {
		result.Warnings = append(result.Warnings, (&errors.MissingColumnError{Column: models.ColStateName, Panel: "region filter"}).Error())
		useRegions = false
	}
	if useProducts && !columns.Has(models.ColProductName) {
		result.Warnings = append(result.Warnings, (&errors.MissingColumnError{Column: models.ColProductName, Panel: "product filter"}).Error())
		useProducts = false
	}

	var from, until time.Time
	if !sel.Start.IsZero() {
		from = startOfDay(sel.Start)
	}
	if !sel.End.IsZero() {
		until = startOfDay(sel.End).AddDate(0, 0, 1)
	}

	regions := toSet(sel.Regions)
	products := toSet(sel.Products)

	result.Records = make([]models.Record, 0, len(records))
	for _, rec := range records {
		if useDates {
			if !from.IsZero() && rec.OrderDate.Before(from) {
				continue
			}
			if !until.IsZero() && !rec.OrderDate.Before(until) {
				continue
			}
		}
		if useRegions && !regions[rec.StateName] {
			continue
		}
		if useProducts && !products[rec.ProductName] {
			continue
		}
		result.Records = append(result.Records, rec)
	}

	if columns.Has(models.ColStateName) {
		result.AvailableRegions = distinct(result.Records, func(r models.Record) string { return r.StateName })
	}
	if columns.Has(models.ColProductName) {
		result.AvailableProducts = distinct(result.Records, func(r models.Record) string { return r.ProductName })
	}

	return result
}

// distinct returns the values of field in first-seen order.
func distinct(records []models.Record, field func(models.Record) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
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

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
