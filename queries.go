package chamber

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/ridge/chamber/changes"
	"github.com/ridge/chamber/indices"
	"github.com/ridge/chamber/meta"
	"github.com/ridge/chamber/typeddb"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// load reads a stored record through the current atomic block, if any. The
// result is a deep copy, safe to change.
func (m *Model[T]) load(id string) (T, error) {
	var stored T
	if !m.db.Reader().Get(id, &stored) {
		return stored, m.notFound(id)
	}
	return changes.Copy(stored).(T), nil
}

func (m *Model[T]) notFound(id string) error {
	return fmt.Errorf("%s %q: %w", m.kind.DBName, id, ErrNotFound)
}

func (m *Model[T]) collect(iter typeddb.Iterator, pred func(data *T) bool) []*Record[T] {
	var res []*Record[T]
	for {
		var stored T
		if !iter(&stored) {
			return res
		}
		data := changes.Copy(stored).(T)
		if pred == nil || pred(&data) {
			res = append(res, m.newRecord(data, false, nil))
		}
	}
}

// Get loads a record by identity. Returns an error wrapping ErrNotFound if
// there is no such record.
func (m *Model[T]) Get(ctx context.Context, id string) (*Record[T], error) {
	data, err := m.load(id)
	if err != nil {
		return nil, err
	}
	return m.newRecord(data, false, nil), nil
}

// GetOrNone loads a record by identity, nil if there is no such record
func (m *Model[T]) GetOrNone(ctx context.Context, id string) *Record[T] {
	r, err := m.Get(ctx, id)
	if err != nil {
		return nil
	}
	return r
}

// Only loads some fields of a record. The identity is always loaded. The
// other fields hold their stored values but are deferred: they take part in
// change detection and saves only once they are assigned a different value
// or refreshed.
func (m *Model[T]) Only(ctx context.Context, id string, fields ...string) (*Record[T], error) {
	data, err := m.load(id)
	if err != nil {
		return nil, err
	}
	keep := map[string]bool{m.kind.Identity().Name: true}
	for _, name := range fields {
		m.field(name)
		keep[name] = true
	}
	v := reflect.ValueOf(&data).Elem()
	deferred := map[string]any{}
	for _, f := range m.kind.Fields {
		if !keep[f.Name] {
			deferred[f.Name] = changes.Copy(v.FieldByIndex(f.Index).Interface())
		}
	}
	return m.newRecord(data, false, deferred), nil
}

// All loads all records in the order of identity
func (m *Model[T]) All(ctx context.Context) []*Record[T] {
	return m.collect(m.db.Reader().All(m.kind), nil)
}

// Search loads the records found in an index of the kind
func (m *Model[T]) Search(ctx context.Context, index indices.Definition, args ...any) []*Record[T] {
	return m.collect(m.db.Reader().Search(m.kind, index, args...), nil)
}

// Filter loads the records for which pred returns true
func (m *Model[T]) Filter(ctx context.Context, pred func(data *T) bool) []*Record[T] {
	return m.collect(m.db.Reader().All(m.kind), pred)
}

// FilterBy loads the records whose fields are equal to the given values.
// A query on one field with a non-zero value uses the index on that field if
// the kind has one.
func (m *Model[T]) FilterBy(ctx context.Context, values map[string]any) []*Record[T] {
	for name := range values {
		m.field(name)
	}
	matches := func(data *T) bool {
		v := reflect.ValueOf(data).Elem()
		for name, value := range values {
			field := v.FieldByIndex(m.fields[name].Index)
			if value == nil {
				if !field.IsZero() {
					return false
				}
				continue
			}
			if !changes.Equal(field.Interface(), value) {
				return false
			}
		}
		return true
	}
	reader := m.db.Reader()
	if len(values) == 1 {
		for name, value := range values {
			index, ok := m.kind.Indices[name]
			t := m.fields[name].Type
			if ok && t.Kind() != reflect.Ptr && reflect.TypeOf(value) == t && !reflect.ValueOf(value).IsZero() {
				return m.collect(reader.Search(m.kind, index, value), matches)
			}
		}
	}
	return m.collect(reader.All(m.kind), matches)
}

// FilterByDate loads the records whose time fields fall on the calendar days
// of the given times, each day taken in the location of its time
func (m *Model[T]) FilterByDate(ctx context.Context, dates map[string]time.Time) []*Record[T] {
	return m.Filter(ctx, m.onDays(dates))
}

// ExcludeByDate loads the records that FilterByDate with the same dates
// leaves out
func (m *Model[T]) ExcludeByDate(ctx context.Context, dates map[string]time.Time) []*Record[T] {
	on := m.onDays(dates)
	return m.Filter(ctx, func(data *T) bool {
		return !on(data)
	})
}

func (m *Model[T]) onDays(dates map[string]time.Time) func(data *T) bool {
	type day struct {
		index    []int
		from, to time.Time
	}
	days := make([]day, 0, len(dates))
	for _, name := range sortedKeys(dates) {
		f := m.field(name)
		if f.Type != reflect.TypeOf(time.Time{}) {
			panic(fmt.Sprintf("field %s.%s is not a time.Time", m.kind.Type, name))
		}
		d := dates[name]
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		days = append(days, day{index: f.Index, from: from, to: from.AddDate(0, 0, 1)})
	}
	return func(data *T) bool {
		v := reflect.ValueOf(data).Elem()
		for _, d := range days {
			t := v.FieldByIndex(d.index).Interface().(time.Time)
			if t.Before(d.from) || !t.Before(d.to) {
				return false
			}
		}
		return true
	}
}

// Distinct returns the distinct values of a field, in the order they first
// appear in identity order
func (m *Model[T]) Distinct(ctx context.Context, field string) []any {
	f := m.field(field)
	var res []any
	iter := m.db.Reader().All(m.kind)
	for {
		var stored T
		if !iter(&stored) {
			return res
		}
		value := reflect.ValueOf(stored).FieldByIndex(f.Index).Interface()
		if slices.IndexFunc(res, func(v any) bool { return changes.Equal(v, value) }) < 0 {
			res = append(res, changes.Copy(value))
		}
	}
}

// Create saves a new record
func (m *Model[T]) Create(ctx context.Context, data T, options ...SaveOption) (*Record[T], error) {
	r := m.New(data)
	if err := r.Save(ctx, options...); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateOrCreate finds the first record (in identity order) matching query
// and changes it with defaults, or creates a record from query and defaults.
// Runs in an atomic block. Returns whether the record was created.
func (m *Model[T]) UpdateOrCreate(ctx context.Context, query, defaults map[string]any, options ...SaveOption) (*Record[T], bool, error) {
	var r *Record[T]
	var created bool
	err := m.db.Atomic(ctx, func(ctx context.Context) error {
		if found := m.FilterBy(ctx, query); len(found) > 0 {
			r, created = found[0], false
			return r.ChangeAndSave(ctx, defaults, options...)
		}
		var zero T
		r, created = m.New(zero), true
		if err := r.Change(query); err != nil {
			return err
		}
		return r.ChangeAndSave(ctx, defaults, options...)
	})
	if err != nil {
		return nil, false, err
	}
	return r, created, nil
}

// BulkCreate stores new records in one atomic block, without hooks,
// validation, dispatchers or signals. Empty identities are generated and
// audit columns filled like on save.
func (m *Model[T]) BulkCreate(ctx context.Context, data []T) error {
	if len(data) == 0 {
		return nil
	}
	now := m.db.clock.Now()
	err := m.db.write(func(txn typeddb.Transaction) error {
		for i := range data {
			m.prepareInsert(&data[i], now)
			txn.Set(changes.Copy(data[i]))
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.db.Logger(ctx).Debug("Records created in bulk", zap.String("kind", m.kind.DBName), zap.Int("count", len(data)))
	return nil
}

// BulkChangeAndSave assigns fields by name in every record and saves them,
// in one atomic block
func (m *Model[T]) BulkChangeAndSave(ctx context.Context, records []*Record[T], values map[string]any, options ...SaveOption) error {
	return m.db.Atomic(ctx, func(ctx context.Context) error {
		for _, r := range records {
			if err := r.ChangeAndSave(ctx, values, options...); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAll removes all records of the model without hooks, validation or
// signals. Returns the number of removed records.
func (m *Model[T]) DeleteAll(ctx context.Context) (int, error) {
	var n int
	err := m.db.write(func(txn typeddb.Transaction) error {
		var ids []string
		iter := txn.All(m.kind)
		for {
			var stored T
			if !iter(&stored) {
				break
			}
			ids = append(ids, m.kind.IDOf(stored))
		}
		for _, id := range ids {
			if txn.Delete(typeddb.EID{Kind: m.kind, ID: id}) {
				n++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	m.db.Logger(ctx).Debug("Records deleted", zap.String("kind", m.kind.DBName), zap.Int("count", n))
	return n, nil
}

// Count returns the number of stored records
func (m *Model[T]) Count(ctx context.Context) int {
	n := 0
	iter := m.db.Reader().All(m.kind)
	for iter(nil) {
		n++
	}
	return n
}

// prepareInsert fills in an empty identity and the audit columns of a record
// about to be inserted
func (m *Model[T]) prepareInsert(data *T, now time.Time) {
	v := reflect.ValueOf(data).Elem()
	if id := v.FieldByIndex(m.kind.Identity().Index); id.String() == "" {
		id.SetString(uuid.NewString())
	}
	if f, ok := m.kind.AuditField(meta.AuditCreated); ok {
		if created := v.FieldByIndex(f.Index); created.IsZero() {
			created.Set(reflect.ValueOf(now))
		}
	}
	if f, ok := m.kind.AuditField(meta.AuditChanged); ok {
		v.FieldByIndex(f.Index).Set(reflect.ValueOf(now))
	}
}
