package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/ui/templates"
)

// parseSelection reads start, end, and repeated region and product
// parameters. Dates are YYYY-MM-DD; blank values are ignored.
func parseSelection(q url.Values) (models.Selection, error) {
	return buildSelection(q.Get("start"), q.Get("end"), q["region"], q["product"])
}

// selectionFromSignals reads the filter state Datastar sends with @get.
// Requests without signals fall back to query parameters.
func selectionFromSignals(r *http.Request) (models.Selection, error) {
	if r.URL.Query().Get("datastar") == "" {
		return parseSelection(r.URL.Query())
	}
	var signals templates.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return models.Selection{}, errors.BadRequestWrap(err, "Invalid filter signals")
	}
	return buildSelection(signals.Start, signals.End, signals.Regions, signals.Products)
}

func buildSelection(start, end string, regions, products []string) (models.Selection, error) {
	var sel models.Selection
	var err error

	if sel.Start, err = parseDate(start); err != nil {
		return models.Selection{}, errors.ValidationWrap(err, "start must be a date in YYYY-MM-DD format")
	}
	if sel.End, err = parseDate(end); err != nil {
		return models.Selection{}, errors.ValidationWrap(err, "end must be a date in YYYY-MM-DD format")
	}
	if !sel.Start.IsZero() && !sel.End.IsZero() && sel.End.Before(sel.Start) {
		return models.Selection{}, errors.Validation("end must not be before start")
	}

	sel.Regions = compact(regions)
	sel.Products = compact(products)
	return sel, nil
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, v)
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// selectionQuery encodes sel in the form parseSelection reads.
func selectionQuery(sel models.Selection) string {
	q := url.Values{}
	if !sel.Start.IsZero() {
		q.Set("start", sel.Start.Format(time.DateOnly))
	}
	if !sel.End.IsZero() {
		q.Set("end", sel.End.Format(time.DateOnly))
	}
	for _, r := range sel.Regions {
		q.Add("region", r)
	}
	for _, p := range sel.Products {
		q.Add("product", p)
	}
	return q.Encode()
}
