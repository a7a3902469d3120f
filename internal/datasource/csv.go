package datasource

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// CSVSource reads an exported copy of the order feed. The header row names
// the columns the same way the SQL result set does.
type CSVSource struct {
	path      string
	logger    *slog.Logger
	batchSize int
}

func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	return &CSVSource{
		path:      path,
		logger:    logger,
		batchSize: batchSize,
	}
}

func (s *CSVSource) Key() string {
	return sourceKey("csv", s.path)
}

func (s *CSVSource) Load(ctx context.Context) (*models.RecordSet, error) {
	start := time.Now()

	file, err := os.Open(s.path)
	if err != nil {
		return nil, errors.DataSourceUnavailable(fmt.Errorf("open file: %w", err))
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReaderSize(file, 1024*1024))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("empty file")
		}
		return nil, errors.DataSourceUnavailable(fmt.Errorf("read header: %w", err))
	}

	decoder := newRecordDecoder(header)
	set := &models.RecordSet{
		Columns: decoder.columns,
		Source:  "csv",
	}

	batch := make([][]string, 0, s.batchSize)
	flush := func() error {
		records, skipped, err := s.processBatch(ctx, decoder, batch)
		if err != nil {
			return err
		}
		set.Records = append(set.Records, records...)
		set.Skipped += skipped
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.DataSourceUnavailable(err)
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.DataSourceUnavailable(fmt.Errorf("read row: %w", err))
		}

		batch = append(batch, row)
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return nil, errors.DataSourceUnavailable(err)
			}
		}
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, errors.DataSourceUnavailable(err)
		}
	}

	set.LoadedAt = time.Now()
	duration := time.Since(start)
	s.logger.Info("csv processing complete",
		"records", len(set.Records),
		"skipped", set.Skipped,
		"duration", duration,
	)
	if missing := set.Columns.Missing(); len(missing) > 0 {
		s.logger.Warn("order feed is missing columns", "columns", missing)
	}

	return set, nil
}

// processBatch decodes rows concurrently. Results keep file order so that
// first-seen ordering downstream matches the file.
func (s *CSVSource) processBatch(ctx context.Context, decoder *recordDecoder, batch [][]string) ([]models.Record, int, error) {
	type decoded struct {
		rec   models.Record
		valid bool
	}
	results := make([]decoded, len(batch))

	chunk := (len(batch) + maxWorkers - 1) / maxWorkers

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for lo := 0; lo < len(batch); lo += chunk {
		hi := min(lo+chunk, len(batch))
		g.Go(func() error {
			values := make([]any, 0, 8)
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				values = values[:0]
				for _, field := range batch[i] {
					values = append(values, field)
				}
				rec, err := decoder.decode(values)
				if err != nil {
					continue
				}
				results[i] = decoded{rec: rec, valid: true}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	records := make([]models.Record, 0, len(batch))
	skipped := 0
	for _, r := range results {
		if !r.valid {
			skipped++
			continue
		}
		records = append(records, r.rec)
	}
	return records, skipped, nil
}
