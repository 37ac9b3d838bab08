package chamber

import (
	"context"
	"reflect"

	"github.com/ridge/chamber/changes"
	"github.com/ridge/chamber/meta"
	"github.com/ridge/chamber/signals"
	"github.com/ridge/chamber/typeddb"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// PreSaver is implemented by records with a hook run first in every save.
// changed is false while the record is being created. cs holds the changes
// made before the hook.
type PreSaver interface {
	PreSave(ctx context.Context, changed bool, cs ChangeSet) error
}

// PostSaver is implemented by records with a hook run right after the write
// of every save. cs holds the changes that were written.
type PostSaver interface {
	PostSave(ctx context.Context, changed bool, cs ChangeSet) error
}

// PreDeleter is implemented by records with a hook run first in every delete
type PreDeleter interface {
	PreDelete(ctx context.Context) error
}

// PostDeleter is implemented by records with a hook run right after the
// removal in every delete
type PostDeleter interface {
	PostDelete(ctx context.Context) error
}

type saveConfig struct {
	onlyChanged   bool
	updateFields  []string
	cleanPreSave  bool
	cleanPostSave bool
	exclude       []string
}

// SaveOption changes the behavior of one save
type SaveOption func(c *saveConfig)

// UpdateOnlyChangedFields makes a save of a stored record write only the
// changed fields and the changed audit column
func UpdateOnlyChangedFields() SaveOption {
	return func(c *saveConfig) { c.onlyChanged = true }
}

// UpdateFields makes a save of a stored record write only the given fields
func UpdateFields(fields ...string) SaveOption {
	return func(c *saveConfig) { c.updateFields = append(c.updateFields, fields...) }
}

// CleanPreSave overrides the model setting of validation before the write
func CleanPreSave(clean bool) SaveOption {
	return func(c *saveConfig) { c.cleanPreSave = clean }
}

// CleanPostSave overrides the model setting of validation after the write
func CleanPostSave(clean bool) SaveOption {
	return func(c *saveConfig) { c.cleanPostSave = clean }
}

// Exclude leaves fields out of validation
func Exclude(fields ...string) SaveOption {
	return func(c *saveConfig) { c.exclude = append(c.exclude, fields...) }
}

type deleteConfig struct {
	cleanPreDelete  bool
	cleanPostDelete bool
}

// DeleteOption changes the behavior of one delete
type DeleteOption func(c *deleteConfig)

// CleanPreDelete overrides the model setting of validation before a delete
func CleanPreDelete(clean bool) DeleteOption {
	return func(c *deleteConfig) { c.cleanPreDelete = clean }
}

// CleanPostDelete overrides the model setting of validation after a delete
func CleanPostDelete(clean bool) DeleteOption {
	return func(c *deleteConfig) { c.cleanPostDelete = clean }
}

// Save stores the record.
//
// The sequence is: PreSave hook, validation (see WithCleanPreSave),
// pre-save dispatchers, PreSave signal, write, PostSave hook, validation (see
// WithCleanPostSave), dispatchers, PostSave signal. An error stops the
// sequence and is returned; the write is not undone unless the save runs in
// an atomic block that fails. Validation failures are returned as
// *PersistenceError.
func (r *Record[T]) Save(ctx context.Context, options ...SaveOption) error {
	cfg := saveConfig{
		cleanPreSave:  r.model.config.cleanPreSave,
		cleanPostSave: r.model.config.cleanPostSave,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if r.model.config.saveAtomic {
		return r.model.db.Atomic(ctx, func(ctx context.Context) error {
			return r.save(ctx, cfg)
		})
	}
	return r.save(ctx, cfg)
}

func (r *Record[T]) save(ctx context.Context, cfg saveConfig) error {
	m := r.model
	changed := !r.adding

	cs := r.tracker.Freeze()
	if h, ok := any(&r.Data).(PreSaver); ok {
		if err := h.PreSave(ctx, changed, cs); err != nil {
			return err
		}
	}
	if cfg.cleanPreSave {
		if err := r.FullClean(ctx, cfg.exclude...); err != nil {
			return err
		}
	}
	if err := r.dispatch(ctx, m.preSaveDispatchers, cs); err != nil {
		return err
	}
	if err := m.db.signals.PreSave.Send(ctx, m.kind.Type, signals.Event{Instance: r, Changed: changed, Changes: cs}); err != nil {
		return err
	}

	// the write resets the baseline, post-save steps see the changes as of now
	cs = r.tracker.Freeze()
	fields := cfg.updateFields
	if len(fields) == 0 && cfg.onlyChanged && changed {
		fields = append([]string{}, cs.Keys()...)
		if f, ok := m.kind.AuditField(meta.AuditChanged); ok && !slices.Contains(fields, f.Name) {
			fields = append(fields, f.Name)
		}
		if i := slices.Index(fields, m.kind.Identity().Name); i >= 0 {
			fields = slices.Delete(fields, i, i+1)
		}
	}
	if err := r.write(ctx, fields); err != nil {
		return err
	}

	if h, ok := any(&r.Data).(PostSaver); ok {
		if err := h.PostSave(ctx, changed, cs); err != nil {
			return err
		}
	}
	if cfg.cleanPostSave {
		if err := r.FullClean(ctx, cfg.exclude...); err != nil {
			return err
		}
	}
	if err := r.dispatch(ctx, m.dispatchers, cs); err != nil {
		return err
	}
	return m.db.signals.PostSave.Send(ctx, m.kind.Type, signals.Event{Instance: r, Changed: changed, Changes: cs})
}

// SaveSimple writes the record and resets its baseline, skipping hooks,
// validation, dispatchers and signals. Only UpdateFields and
// UpdateOnlyChangedFields options take effect.
func (r *Record[T]) SaveSimple(ctx context.Context, options ...SaveOption) error {
	var cfg saveConfig
	for _, opt := range options {
		opt(&cfg)
	}
	fields := cfg.updateFields
	if len(fields) == 0 && cfg.onlyChanged && !r.adding {
		fields = append([]string{}, r.tracker.Changes().Keys()...)
		if f, ok := r.model.kind.AuditField(meta.AuditChanged); ok && !slices.Contains(fields, f.Name) {
			fields = append(fields, f.Name)
		}
		if i := slices.Index(fields, r.model.kind.Identity().Name); i >= 0 {
			fields = slices.Delete(fields, i, i+1)
		}
	}
	return r.write(ctx, fields)
}

// write stores the record and makes the fetched fields the new baseline.
// Nil fields write the whole record, or its fetched fields after a partial
// load; an empty non-nil list writes nothing. New records are always written
// whole.
func (r *Record[T]) write(ctx context.Context, fields []string) error {
	m := r.model
	now := m.db.clock.Now()
	if r.adding {
		m.prepareInsert(&r.Data, now)
	} else if f, ok := m.kind.AuditField(meta.AuditChanged); ok {
		r.value(f.Name).Set(reflect.ValueOf(now))
		delete(r.deferred, f.Name)
	}
	fetched := r.fetched()
	if !r.adding && fields == nil && len(fetched) < len(m.names) {
		fields = fetched
	}

	if r.adding || len(fields) > 0 || fields == nil {
		err := m.db.write(func(txn typeddb.Transaction) error {
			if r.adding || fields == nil {
				txn.Set(changes.Copy(r.Data))
			} else {
				txn.Update(changes.Copy(r.Data), fields)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	adding := r.adding
	r.adding = false
	for _, name := range fetched {
		delete(r.deferred, name)
	}
	r.tracker.Refresh(fetched...)
	m.db.Logger(ctx).Debug("Record saved", zap.String("kind", m.kind.DBName), zap.String("id", r.ID()),
		zap.Bool("created", adding), zap.Strings("fields", fields))
	return nil
}

// Delete removes the record.
//
// The sequence is: PreDelete hook, validation (see WithCleanPreDelete),
// PreDelete signal, removal, PostDelete signal, PostDelete hook, validation
// (see WithCleanPostDelete). Returns ErrUnsaved for a record that was never
// saved and an error wrapping ErrNotFound if the record is already gone.
func (r *Record[T]) Delete(ctx context.Context, options ...DeleteOption) error {
	if r.adding {
		return ErrUnsaved
	}
	cfg := deleteConfig{
		cleanPreDelete:  r.model.config.cleanPreDelete,
		cleanPostDelete: r.model.config.cleanPostDelete,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if r.model.config.deleteAtomic {
		return r.model.db.Atomic(ctx, func(ctx context.Context) error {
			return r.delete(ctx, cfg)
		})
	}
	return r.delete(ctx, cfg)
}

func (r *Record[T]) delete(ctx context.Context, cfg deleteConfig) error {
	m := r.model
	if h, ok := any(&r.Data).(PreDeleter); ok {
		if err := h.PreDelete(ctx); err != nil {
			return err
		}
	}
	if cfg.cleanPreDelete {
		if err := r.FullClean(ctx); err != nil {
			return err
		}
	}
	event := signals.Event{Instance: r, Changed: true}
	if err := m.db.signals.PreDelete.Send(ctx, m.kind.Type, event); err != nil {
		return err
	}

	id := r.ID()
	var found bool
	err := m.db.write(func(txn typeddb.Transaction) error {
		found = txn.Delete(typeddb.EID{Kind: m.kind, ID: id})
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return m.notFound(id)
	}
	m.db.Logger(ctx).Debug("Record deleted", zap.String("kind", m.kind.DBName), zap.String("id", id))

	if err := m.db.signals.PostDelete.Send(ctx, m.kind.Type, event); err != nil {
		return err
	}
	if h, ok := any(&r.Data).(PostDeleter); ok {
		if err := h.PostDelete(ctx); err != nil {
			return err
		}
	}
	if cfg.cleanPostDelete {
		return r.FullClean(ctx)
	}
	return nil
}

func (r *Record[T]) dispatch(ctx context.Context, dispatchers []Dispatcher[T], cs ChangeSet) error {
	for _, d := range dispatchers {
		if err := d.Dispatch(ctx, r, cs); err != nil {
			return err
		}
	}
	return nil
}
