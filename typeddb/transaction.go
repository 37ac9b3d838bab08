package typeddb

import (
	"fmt"
	"reflect"

	"github.com/ridge/must/v2"
)

// Transaction is a read-write view of the database.
// Do not use concurrently.
type Transaction interface {
	Snapshot
	// Set inserts or replaces the record addressed by its type and identity
	Set(obj any)
	// Update replaces only the named fields of the stored record with the
	// values from obj. A record that is not stored yet is inserted whole.
	Update(obj any, fields []string)
	// Delete removes the record. Returns false if it does not exist.
	Delete(eid EID) bool
	// Before returns the state of the database at the start of the transaction
	Before() Snapshot
	// Snapshot returns a read-only snapshot including the uncommitted changes
	// made so far. It survives the transaction and is safe to use concurrently.
	Snapshot() Snapshot
}

// Change is the net effect of a transaction on one record.
// Nil Before means the record was created, nil After means it was deleted.
type Change struct {
	Before any
	After  any
}

// undo restores one record to what it was before a single write
type undo struct {
	eid     EID
	before  any // stored value before the write, nil if absent
	change  Change
	tracked bool // whether changes had an entry for eid before the write
}

type transaction struct {
	snapshot

	changes map[EID]Change
	before  snapshot
	undo    []undo
}

func (txn *transaction) write(eid EID, obj any) {
	change, tracked := txn.changes[eid]
	current := get(txn.txn, eid)
	txn.undo = append(txn.undo, undo{eid: eid, before: current, change: change, tracked: tracked})
	if !tracked {
		change.Before = current
	}
	if obj == nil {
		if current != nil {
			must.OK(txn.txn.Delete(eid.Kind.DBName, current))
		}
	} else {
		must.OK(txn.txn.Insert(eid.Kind.DBName, obj))
	}
	change.After = obj
	txn.changes[eid] = change
}

func (txn *transaction) Set(obj any) {
	obj = reflect.Indirect(reflect.ValueOf(obj)).Interface()
	txn.write(txn.tdb.EIDOf(obj), obj)
}

func (txn *transaction) Update(obj any, fields []string) {
	eid := txn.tdb.EIDOf(obj)
	stored := get(txn.txn, eid)
	if stored == nil {
		txn.Set(obj)
		return
	}
	src := reflect.Indirect(reflect.ValueOf(obj))
	dst := reflect.New(eid.Kind.Type).Elem()
	dst.Set(reflect.ValueOf(stored))
	for _, name := range fields {
		field, ok := eid.Kind.Field(name)
		if !ok {
			panic(fmt.Errorf("field %s.%s not found", eid.Kind.Type, name))
		}
		dst.FieldByIndex(field.Index).Set(src.FieldByIndex(field.Index))
	}
	txn.write(eid, dst.Interface())
}

func (txn *transaction) Delete(eid EID) bool {
	if get(txn.txn, eid) == nil {
		return false
	}
	txn.write(eid, nil)
	return true
}

// rollbackTo undoes the writes made after the undo log had the given length
func (txn *transaction) rollbackTo(mark int) {
	for i := len(txn.undo) - 1; i >= mark; i-- {
		u := txn.undo[i]
		if u.before == nil {
			if current := get(txn.txn, u.eid); current != nil {
				must.OK(txn.txn.Delete(u.eid.Kind.DBName, current))
			}
		} else {
			must.OK(txn.txn.Insert(u.eid.Kind.DBName, u.before))
		}
		if u.tracked {
			txn.changes[u.eid] = u.change
		} else {
			delete(txn.changes, u.eid)
		}
	}
	txn.undo = txn.undo[:mark]
}

func (txn *transaction) Before() Snapshot {
	return txn.before
}

func (txn *transaction) Snapshot() Snapshot {
	return snapshot{
		tdb: txn.tdb,
		txn: txn.txn.Snapshot(),
		ts:  txn.ts,
	}
}

// SetMany puts all passed records into the transaction. Slice arguments have
// every element put separately.
func SetMany(txn Transaction, objs ...any) {
	for _, obj := range objs {
		v := reflect.ValueOf(obj)
		if v.Kind() == reflect.Slice {
			for i := 0; i < v.Len(); i++ {
				txn.Set(v.Index(i).Interface())
			}
		} else {
			txn.Set(obj)
		}
	}
}
