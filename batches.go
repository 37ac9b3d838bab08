package chamber

import (
	"context"
	"time"

	"github.com/ridge/chamber/changes"
	"github.com/ridge/chamber/typeddb"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of records in a batch unless configured
// otherwise
const DefaultBatchSize = 10000

// batchCursor is the stored position of a batch iterator: the identity of the
// last record of its last complete batch
type batchCursor struct {
	Meta `chamber:"name=batch_cursor"`

	Key     string `chamber:"identity"`
	Last    string
	Expires time.Time // zero never expires
}

var kindBatchCursor = KindOf(batchCursor{})

type batchConfig struct {
	size         int
	expiration   time.Duration
	storeOnError bool
}

// BatchOption configures a BatchIterator
type BatchOption func(c *batchConfig)

// BatchSize sets the number of records in a batch
func BatchSize(size int) BatchOption {
	return func(c *batchConfig) {
		c.size = size
	}
}

// CursorExpiration makes the stored cursor expire d after the iterator is
// created. An expired cursor is ignored and iteration starts over.
func CursorExpiration(d time.Duration) BatchOption {
	return func(c *batchConfig) {
		c.expiration = d
	}
}

// StoreCursorOnError stores the cursor of a batch that fails half-way, so
// that the next iterator starts at the failed record
func StoreCursorOnError() BatchOption {
	return func(c *batchConfig) {
		c.storeOnError = true
	}
}

// BatchIterator walks the records of a model in identity order, a batch at a
// time, remembering its position in the database under a key. An iterator
// created later with the same key, possibly in another process sharing the
// database, continues after the last complete batch.
//
// A BatchIterator must not be used concurrently.
type BatchIterator[T any] struct {
	model   *Model[T]
	key     string
	pred    func(data *T) bool
	config  batchConfig
	expires time.Time
	cursor  string
	stored  string
}

// Batches returns an iterator over the records for which pred returns true,
// all records if pred is nil, starting after the cursor stored under key
func (m *Model[T]) Batches(ctx context.Context, key string, pred func(data *T) bool, options ...BatchOption) *BatchIterator[T] {
	config := batchConfig{size: DefaultBatchSize}
	for _, opt := range options {
		opt(&config)
	}
	if config.size <= 0 {
		panic("batch size must be positive")
	}
	it := &BatchIterator[T]{model: m, key: m.kind.DBName + "/" + key, pred: pred, config: config}
	now := m.db.clock.Now()
	if config.expiration > 0 {
		it.expires = now.Add(config.expiration)
	}
	var c batchCursor
	if m.db.Reader().Get(it.key, &c) && (c.Expires.IsZero() || now.Before(c.Expires)) {
		it.cursor = c.Last
	}
	it.stored = it.cursor
	return it
}

// Cursor returns the identity of the last record processed, empty before
// the first one
func (it *BatchIterator[T]) Cursor() string {
	return it.cursor
}

// Each calls fn for the records of the next batch and stores the cursor
// once all of them succeed. Returns the first error of fn; the cursor is then
// stored only with StoreCursorOnError. Calling Each again moves on to the
// following batch.
func (it *BatchIterator[T]) Each(ctx context.Context, fn func(ctx context.Context, r *Record[T]) error) error {
	batch := it.after(it.cursor, it.config.size)
	for _, r := range batch {
		if err := fn(ctx, r); err != nil {
			if it.config.storeOnError {
				if serr := it.store(ctx); serr != nil {
					return serr
				}
			}
			return err
		}
		it.cursor = r.ID()
	}
	return it.store(ctx)
}

// Len returns the number of records in the next batch
func (it *BatchIterator[T]) Len() int {
	return len(it.after(it.cursor, it.config.size))
}

// Total returns the number of records the iterator walks from the start
func (it *BatchIterator[T]) Total() int {
	return len(it.after("", -1))
}

// Remaining returns the number of records after the cursor
func (it *BatchIterator[T]) Remaining() int {
	return len(it.after(it.cursor, -1))
}

// after loads up to limit records following cursor, all if limit is negative
func (it *BatchIterator[T]) after(cursor string, limit int) []*Record[T] {
	m := it.model
	var res []*Record[T]
	iter := m.db.Reader().All(m.kind)
	for limit < 0 || len(res) < limit {
		var stored T
		if !iter(&stored) {
			break
		}
		if m.kind.IDOf(stored) <= cursor {
			continue
		}
		data := changes.Copy(stored).(T)
		if it.pred == nil || it.pred(&data) {
			res = append(res, m.newRecord(data, false, nil))
		}
	}
	return res
}

func (it *BatchIterator[T]) store(ctx context.Context) error {
	if it.cursor == it.stored {
		return nil
	}
	c := batchCursor{Key: it.key, Last: it.cursor, Expires: it.expires}
	err := it.model.db.write(func(txn typeddb.Transaction) error {
		txn.Set(c)
		return nil
	})
	if err != nil {
		return err
	}
	it.stored = it.cursor
	it.model.db.Logger(ctx).Debug("Batch cursor stored", zap.String("key", it.key), zap.String("cursor", it.cursor))
	return nil
}
