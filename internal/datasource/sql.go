package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

// SalesQuery joins order headers with their lines, products and ship-to
// state. TotalDue is the header total, so it repeats once per order line.
const SalesQuery = `
SELECT soh.SalesOrderID, soh.OrderDate, soh.TotalDue, sp.Name AS StateName, p.Name AS ProductName
FROM Sales.SalesOrderHeader AS soh
JOIN Sales.SalesOrderDetail AS sod ON soh.SalesOrderID = sod.SalesOrderID
JOIN Production.Product AS p ON sod.ProductID = p.ProductID
JOIN Person.Address AS a ON soh.ShipToAddressID = a.AddressID
JOIN Person.StateProvince AS sp ON a.StateProvinceID = sp.StateProvinceID
JOIN Person.CountryRegion AS cr ON sp.CountryRegionCode = cr.CountryRegionCode`

type SQLSource struct {
	db      *sql.DB
	driver  string
	query   string
	timeout time.Duration
	logger  *slog.Logger
}

// OpenSQL opens the connection pool for cfg. An unreachable server is
// logged, not returned: every render reports it until the server is back.
func OpenSQL(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*SQLSource, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(max(cfg.MaxOpenConns/2, 1))
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database not reachable at startup", "driver", cfg.Driver, "error", err)
	}

	return NewSQLSource(db, cfg.Driver, cfg.QueryTimeout, logger), nil
}

func NewSQLSource(db *sql.DB, driver string, timeout time.Duration, logger *slog.Logger) *SQLSource {
	return &SQLSource{
		db:      db,
		driver:  driver,
		query:   SalesQuery,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *SQLSource) Key() string {
	return sourceKey(s.driver, s.query)
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

func (s *SQLSource) Load(ctx context.Context) (*models.RecordSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, errors.DataSourceUnavailable(fmt.Errorf("query orders: %w", err))
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.DataSourceUnavailable(fmt.Errorf("read columns: %w", err))
	}

	decoder := newRecordDecoder(names)
	set := &models.RecordSet{
		Columns: decoder.columns,
		Source:  s.driver,
	}

	values := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.DataSourceUnavailable(fmt.Errorf("scan row: %w", err))
		}
		rec, err := decoder.decode(values)
		if err != nil {
			set.Skipped++
			s.logger.Debug("skipping malformed order row", "error", err)
			continue
		}
		set.Records = append(set.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DataSourceUnavailable(fmt.Errorf("iterate rows: %w", err))
	}

	set.LoadedAt = time.Now()
	s.logger.Info("orders loaded",
		"source", s.driver,
		"records", len(set.Records),
		"skipped", set.Skipped,
		"duration", time.Since(start),
	)
	if missing := set.Columns.Missing(); len(missing) > 0 {
		s.logger.Warn("order feed is missing columns", "columns", missing)
	}

	return set, nil
}
