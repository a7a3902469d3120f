package datasource

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

var orderColumns = []string{"SalesOrderID", "OrderDate", "TotalDue", "StateName", "ProductName"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockSource(t *testing.T) (*SQLSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLSource(db, "sqlserver", time.Second, discardLogger()), mock
}

func expectSalesQuery(mock sqlmock.Sqlmock) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(regexp.QuoteMeta("FROM Sales.SalesOrderHeader AS soh"))
}

func TestSQLSource_Load(t *testing.T) {
	src, mock := newMockSource(t)

	jan := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(orderColumns).
		AddRow(int64(43659), jan, []byte("100.0000"), "A", "X").
		AddRow(int64(43660), feb, 300.0, "B", "Y")
	expectSalesQuery(mock).WillReturnRows(rows)

	set, err := src.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, set.Records, 2)
	assert.Equal(t, int64(43659), set.Records[0].OrderID)
	assert.True(t, set.Records[0].OrderDate.Equal(jan))
	assert.True(t, decimal.NewFromInt(100).Equal(set.Records[0].TotalDue))
	assert.Equal(t, "A", set.Records[0].StateName)
	assert.Equal(t, "Y", set.Records[1].ProductName)
	assert.Empty(t, set.Columns.Missing())
	assert.Equal(t, "sqlserver", set.Source)
	assert.False(t, set.LoadedAt.IsZero())
}

func TestSQLSource_LoadNormalizesToUTC(t *testing.T) {
	src, mock := newMockSource(t)

	eastern := time.FixedZone("EST", -5*60*60)
	rows := sqlmock.NewRows(orderColumns).
		AddRow(int64(1), time.Date(2024, 1, 31, 23, 30, 0, 0, eastern), 10.0, "A", "X")
	expectSalesQuery(mock).WillReturnRows(rows)

	set, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Records, 1)
	assert.Equal(t, time.Date(2024, 2, 1, 4, 30, 0, 0, time.UTC), set.Records[0].OrderDate)
}

func TestSQLSource_LoadSkipsMalformedRows(t *testing.T) {
	src, mock := newMockSource(t)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(orderColumns).
		AddRow(int64(1), day, 10.0, "A", "X").
		AddRow(int64(2), nil, 10.0, "A", "X").
		AddRow(int64(3), day, "not-a-number", "A", "X").
		AddRow(int64(4), day, -5.0, "A", "X").
		AddRow(int64(5), day, 10.0, nil, "X")
	expectSalesQuery(mock).WillReturnRows(rows)

	set, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, set.Records, 1)
	assert.Equal(t, 4, set.Skipped)
}

func TestSQLSource_LoadMissingColumn(t *testing.T) {
	src, mock := newMockSource(t)

	rows := sqlmock.NewRows([]string{"OrderDate", "TotalDue", "StateName"}).
		AddRow(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 10.0, "A")
	expectSalesQuery(mock).WillReturnRows(rows)

	set, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Records, 1)
	assert.Equal(t, []string{models.ColProductName}, set.Columns.Missing())
	assert.False(t, set.Columns.Has(models.ColOrderID))
	assert.Empty(t, set.Records[0].ProductName)
}

func TestSQLSource_LoadEmptyResult(t *testing.T) {
	src, mock := newMockSource(t)
	expectSalesQuery(mock).WillReturnRows(sqlmock.NewRows(orderColumns))

	set, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestSQLSource_LoadQueryError(t *testing.T) {
	src, mock := newMockSource(t)
	expectSalesQuery(mock).WillReturnError(stderrors.New("connection refused"))

	set, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, errors.IsDataSourceUnavailable(err))
	assert.ErrorContains(t, err, "connection refused")
}

func TestSQLSource_LoadRowError(t *testing.T) {
	src, mock := newMockSource(t)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(orderColumns).
		AddRow(int64(1), day, 10.0, "A", "X").
		AddRow(int64(2), day, 10.0, "B", "Y").
		RowError(1, stderrors.New("connection reset"))
	expectSalesQuery(mock).WillReturnRows(rows)

	set, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, set, "a partial result must not be returned")
	assert.True(t, errors.IsDataSourceUnavailable(err))
}

func TestSQLSource_Key(t *testing.T) {
	src, _ := newMockSource(t)
	other := NewSQLSource(nil, "mysql", time.Second, discardLogger())

	assert.Equal(t, src.Key(), src.Key())
	assert.NotEqual(t, src.Key(), other.Key())
	assert.Regexp(t, `^sqlserver:[0-9a-f]{16}$`, src.Key())
}
