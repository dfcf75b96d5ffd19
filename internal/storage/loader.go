package storage

import (
	"context"
	"fmt"
	"time"

	"recflow/internal/metrics"

	"go.uber.org/zap"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// rows (aligned to columns) and return the number of rows inserted. They must
// be safe for repeated calls and cancel promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// Loader drains rows from a channel, groups them into batches of BatchSize
// and calls Copy for each non-empty batch. A progress line is logged on
// every successful flush.
type Loader struct {
	Columns   []string
	BatchSize int
	Copy      CopyFn

	// Job labels metrics.
	Job string

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// LoadBatches runs a Loader without logging.
func LoadBatches(ctx context.Context, columns []string, in <-chan []any, batchSize int, copyFn CopyFn) (int64, error) {
	return Loader{Columns: columns, BatchSize: batchSize, Copy: copyFn}.Run(ctx, in)
}

// Run returns the total number of rows reported by Copy and the first error.
// On cancellation it returns (total, ctx.Err()).
func (l Loader) Run(ctx context.Context, in <-chan []any) (int64, error) {
	if l.BatchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if l.Copy == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, l.BatchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		size := len(batch)
		n, err := l.Copy(ctx, l.Columns, batch)
		total += n
		batch = batch[:0]

		if err != nil {
			log.Error("loader: copy failed",
				zap.Int("batch_rows", size), zap.Int64("inserted", n), zap.Int64("total", total), zap.Error(err))
			return err
		}

		batches++
		metrics.RecordBatches(l.Job, 1)
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Info("loader: batch flushed",
			zap.Int64("batch", batches),
			zap.Int64("inserted", n),
			zap.Int64("total", total),
			zap.Float64("rps", rps),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)),
		)
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := ctx.Err(); err != nil {
					return total, err
				}
				if err := flush(); err != nil {
					return total, err
				}
				log.Debug("loader: input closed", zap.Int64("total", total), zap.Int64("batches", batches))
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= l.BatchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
