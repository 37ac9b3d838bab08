package typeddb

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/ridge/chamber/indices"
	"github.com/ridge/must/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Iterator is an iterator over the results of a query. Every call fills in
// another record into ptr. Returns false at the end of the result set (ptr is
// left untouched then). A nil ptr skips one record.
//
// Do not use a single iterator concurrently.
type Iterator = func(ptr any) bool

// Snapshot is a read-only view of the database at the moment it was taken.
// Safe for concurrent use.
type Snapshot interface {
	// Time returns the time when the snapshot was taken
	Time() time.Time
	// Get copies the record of the kind given by the ptr type with the given
	// string-based id into ptr. Returns false if there is no such record.
	Get(id any, ptr any) bool
	// All returns an iterator over all the records of a kind
	All(kind *Kind) Iterator
	// Search returns an iterator over the records found in an index
	Search(kind *Kind, index indices.Definition, args ...any) Iterator
	// Conflicts returns the names of unique indices where a record other
	// than obj has the same key as obj
	Conflicts(kind *Kind, obj any) []string
}

type snapshot struct {
	tdb *TypedDB
	txn *memdb.Txn
	ts  time.Time
}

func (s snapshot) Time() time.Time {
	return s.ts
}

func get(txn *memdb.Txn, eid EID) any {
	return must.OK1(txn.First(eid.Kind.DBName, "id", eid.ID))
}

func (s snapshot) Get(id any, ptr any) bool {
	rid := reflect.ValueOf(id)
	if rid.Kind() != reflect.String {
		panic("id must be a string")
	}
	res := get(s.txn, EID{Kind: s.tdb.kindOfPtr(ptr), ID: rid.String()})
	if res == nil {
		return false
	}
	reflect.ValueOf(ptr).Elem().Set(reflect.ValueOf(res))
	return true
}

func (s snapshot) All(kind *Kind) Iterator {
	return s.Search(kind, kind.identity)
}

func (s snapshot) Search(kind *Kind, index indices.Definition, args ...any) Iterator {
	name := index.Name()
	if len(args) > index.Args() {
		panic(fmt.Errorf("index %s expects up to %d arguments", name, index.Args()))
	}
	schema := kind.indexSchema[name]
	if schema == nil {
		panic(fmt.Errorf("index %s for kind %s not found", name, kind))
	}
	if len(args) > 0 && len(args) < index.Args() {
		if _, ok := schema.Indexer.(memdb.PrefixIndexer); !ok {
			panic(fmt.Errorf("index %s expects exactly %d arguments", name, index.Args()))
		}
		name += "_prefix" // memdb suffix for prefix search
	}
	iter := must.OK1(s.txn.Get(kind.DBName, name, args...))

	return func(ptr any) bool {
		res := iter.Next()
		if res == nil {
			return false
		}
		if ptr != nil {
			reflect.ValueOf(ptr).Elem().Set(reflect.ValueOf(res))
		}
		return true
	}
}

// memdb does not enforce uniqueness of secondary indices and keeps one entry
// per key of a unique index, so conflicts are found by comparing the keys of
// all the records of the kind
func (s snapshot) Conflicts(kind *Kind, obj any) []string {
	obj = reflect.Indirect(reflect.ValueOf(obj)).Interface()
	id := kind.IDOf(obj)
	var conflicts []string
	for _, name := range sortedIndexNames(kind) {
		schema := kind.indexSchema[name]
		if !schema.Unique || name == kind.identity.Name() {
			continue
		}
		indexer := schema.Indexer.(memdb.SingleIndexer)
		ok, key, err := indexer.FromObject(obj)
		if err != nil || !ok {
			continue
		}
		iter := must.OK1(s.txn.Get(kind.DBName, kind.identity.Name()))
		for other := iter.Next(); other != nil; other = iter.Next() {
			if kind.IDOf(other) == id {
				continue
			}
			if ok, otherKey, err := indexer.FromObject(other); err == nil && ok && bytes.Equal(key, otherKey) {
				conflicts = append(conflicts, name)
				break
			}
		}
	}
	return conflicts
}

func sortedIndexNames(kind *Kind) []string {
	names := maps.Keys(kind.indexSchema)
	slices.Sort(names)
	return names
}
