// Package datasource loads the flat order feed the dashboard aggregates.
package datasource

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// Source produces a complete record set per call. Key identifies the
// underlying query so results can be cached per query.
type Source interface {
	Load(ctx context.Context) (*models.RecordSet, error)
	Key() string
}

var columnAliases = map[string]string{
	"salesorderid": models.ColOrderID,
	"orderid":      models.ColOrderID,
	"orderdate":    models.ColOrderDate,
	"totaldue":     models.ColTotalDue,
	"statename":    models.ColStateName,
	"productname":  models.ColProductName,
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func sourceKey(kind, identity string) string {
	return fmt.Sprintf("%s:%016x", kind, xxhash.Sum64String(identity))
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
}

// recordDecoder maps positional row values onto Record fields using the
// column names of the result set.
type recordDecoder struct {
	index   map[string]int
	columns models.ColumnSet
}

func newRecordDecoder(names []string) *recordDecoder {
	d := &recordDecoder{
		index:   make(map[string]int, len(names)),
		columns: make(models.ColumnSet, len(names)),
	}
	for i, name := range names {
		col, ok := columnAliases[normalizeColumn(name)]
		if !ok {
			continue
		}
		if _, dup := d.index[col]; dup {
			continue
		}
		d.index[col] = i
		d.columns[col] = true
	}
	return d
}

func (d *recordDecoder) value(values []any, col string) (any, bool) {
	i, ok := d.index[col]
	if !ok {
		return nil, false
	}
	if i >= len(values) {
		return nil, true
	}
	return values[i], true
}

// decode converts one row. Columns the feed does not carry are left zero;
// a carried column with a null or unparsable value rejects the row.
func (d *recordDecoder) decode(values []any) (models.Record, error) {
	var rec models.Record

	if v, ok := d.value(values, models.ColOrderID); ok && v != nil && v != "" {
		id, err := toInt64(v)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", models.ColOrderID, err)
		}
		rec.OrderID = id
	}

	if v, ok := d.value(values, models.ColOrderDate); ok {
		t, err := toTime(v)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", models.ColOrderDate, err)
		}
		rec.OrderDate = t
	}

	if v, ok := d.value(values, models.ColTotalDue); ok {
		amount, err := toDecimal(v)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", models.ColTotalDue, err)
		}
		if amount.IsNegative() {
			return rec, fmt.Errorf("%s: negative amount %s", models.ColTotalDue, amount)
		}
		rec.TotalDue = amount
	}

	if v, ok := d.value(values, models.ColStateName); ok {
		s, err := toString(v)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", models.ColStateName, err)
		}
		rec.StateName = s
	}

	if v, ok := d.value(values, models.ColProductName); ok {
		s, err := toString(v)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", models.ColProductName, err)
		}
		rec.ProductName = s
	}

	return rec, nil
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", fmt.Errorf("null value")
	case string:
		return nonEmpty(x)
	case []byte:
		return nonEmpty(string(x))
	default:
		return fmt.Sprint(x), nil
	}
}

func nonEmpty(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty value")
	}
	return s, nil
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("null value")
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseTime(x)
	case []byte:
		return parseTime(string(x))
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("null value")
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(x)))
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}
