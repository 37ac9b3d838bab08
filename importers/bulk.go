package importers

import (
	"context"
	"io"

	"github.com/ridge/chamber"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of rows stored at once unless configured
// otherwise
const DefaultBatchSize = 100000

// BulkImporter creates one record per CSV row in batches, bypassing the save
// sequence of the model
type BulkImporter[T any] struct {
	Source

	Model *chamber.Model[T]
	// DeleteExisting removes all the records of the model before the import
	DeleteExisting bool
	// BatchSize defaults to DefaultBatchSize
	BatchSize int
}

// Import reads rows from r. Returns the number of created records.
func (imp BulkImporter[T]) Import(ctx context.Context, r io.Reader) (int, error) {
	logger := imp.Model.DB().Logger(ctx).With(zap.String("kind", imp.Model.Kind().DBName))
	if imp.DeleteExisting {
		deleted, err := imp.Model.DeleteAll(ctx)
		if err != nil {
			return 0, err
		}
		logger.Info("Existing records deleted", zap.Int("count", deleted))
	}
	size := imp.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	var batch []T
	created := 0
	flush := func() error {
		if err := imp.Model.BulkCreate(ctx, batch); err != nil {
			return err
		}
		created += len(batch)
		logger.Debug("Batch imported", zap.Int("batch", len(batch)), zap.Int("total", created))
		batch = batch[:0]
		return nil
	}

	err := imp.read(imp.Model.Kind(), r, func(line int, values map[string]any) error {
		var data T
		record := imp.Model.New(data)
		if err := record.Change(values); err != nil {
			return err
		}
		batch = append(batch, record.Data)
		if len(batch) == size {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	logger.Info("CSV imported in bulk", zap.Int("created", created), zap.Error(err))
	return created, err
}

// ImportFile imports a CSV file
func (imp BulkImporter[T]) ImportFile(ctx context.Context, path string) (created int, err error) {
	err = readFile(path, func(r io.Reader) error {
		created, err = imp.Import(ctx, r)
		return err
	})
	return created, err
}
