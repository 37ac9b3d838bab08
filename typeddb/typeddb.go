package typeddb

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/ridge/must/v2"
)

// ErrRollback is returned by Atomic when the block completed without error
// but was marked for rollback with SetRollback
var ErrRollback = errors.New("atomic block rolled back")

// TransactionControl manages a transaction, available only from the
// transaction constructor
type TransactionControl struct {
	txn *transaction
}

// Cancel cancels the corresponding transaction.
// Safe to use on a transaction that has already been committed or canceled.
func (tc TransactionControl) Cancel() {
	tc.txn.txn.Abort()
}

// Commit commits the corresponding transaction.
// Do not use the transaction after it's been committed.
func (tc TransactionControl) Commit() {
	tc.txn.txn.Commit()
}

// Changes returns the net changes made in the transaction so far
func (tc TransactionControl) Changes() map[EID]Change {
	return tc.txn.changes
}

// TypedDB is a typed wrapper around MemDB playing the role of one database
// connection.
//
// TypedDB has a single writer: atomic blocks must not be entered from
// several goroutines at once. Snapshots are safe to use concurrently.
type TypedDB struct {
	alias        string
	byStructType map[reflect.Type]*Kind
	memdb        *memdb.MemDB
	block        *block
}

// block is the state of the outermost atomic block in progress
type block struct {
	txn      *transaction
	ctrl     TransactionControl
	depth    int
	rollback bool
}

func generateMemDBSchema(kinds []*Kind) *memdb.DBSchema {
	tables := map[string]*memdb.TableSchema{}
	for _, kind := range kinds {
		tables[kind.DBName] = &memdb.TableSchema{Name: kind.DBName, Indexes: kind.indexSchema}
	}
	return &memdb.DBSchema{Tables: tables}
}

// New creates a database with the given connection alias holding the given
// kinds of records
func New(alias string, kinds []*Kind) *TypedDB {
	tdb := &TypedDB{
		alias:        alias,
		byStructType: map[reflect.Type]*Kind{},
	}
	for _, kind := range kinds {
		if tdb.byStructType[kind.Type] != nil {
			panic(fmt.Sprintf("duplicate entity type: %v", kind.Type))
		}
		tdb.byStructType[kind.Type] = kind
	}
	tdb.memdb = must.OK1(memdb.NewMemDB(generateMemDBSchema(kinds)))
	return tdb
}

// Alias returns the connection alias
func (tdb *TypedDB) Alias() string {
	return tdb.alias
}

func (tdb *TypedDB) kindOf(obj any) *Kind {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	kind := tdb.byStructType[t]
	if kind == nil {
		panic(fmt.Sprintf("unexpected type: %T", obj))
	}
	return kind
}

func (tdb *TypedDB) kindOfPtr(ptr any) *Kind {
	t := reflect.TypeOf(ptr)
	if t.Kind() != reflect.Ptr {
		panic("pointer expected")
	}
	kind := tdb.byStructType[t.Elem()]
	if kind == nil {
		panic(fmt.Sprintf("unexpected struct type: %v", t))
	}
	return kind
}

// EIDOf returns the EID of a record given by value or pointer. The record
// need not be stored.
func (tdb *TypedDB) EIDOf(obj any) EID {
	kind := tdb.kindOf(obj)
	id := kind.IDOf(obj)
	if id == "" {
		panic(fmt.Sprintf("%s.%s is not set", kind, kind.Identity()))
	}
	return EID{Kind: kind, ID: id}
}

// Snapshot returns a new read-only snapshot of the committed state
func (tdb *TypedDB) Snapshot() Snapshot {
	return &snapshot{tdb: tdb, txn: tdb.memdb.Txn(false), ts: time.Now()}
}

// Transaction returns a writable transaction over the database along with its
// control interface. It blocks while another transaction is open.
func (tdb *TypedDB) Transaction() (Transaction, TransactionControl) {
	w := tdb.memdb.Txn(true)
	ts := time.Now() // taken after acquiring the writer lock
	txn := &transaction{
		snapshot: snapshot{tdb: tdb, txn: w, ts: ts},
		changes:  map[EID]Change{},
		before:   snapshot{tdb: tdb, txn: tdb.memdb.Txn(false), ts: ts},
	}
	return txn, TransactionControl{txn}
}

// HasKind reports whether the kind is stored in the database
func (tdb *TypedDB) HasKind(kind *Kind) bool {
	return tdb.byStructType[kind.Type] == kind
}
